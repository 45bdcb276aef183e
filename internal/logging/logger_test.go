package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoggerLevels(t *testing.T) {
	var console bytes.Buffer
	logger, err := New(Options{Console: &console, RunID: "run-1"})
	require.NoError(t, err)

	logger.Info("hidden at warn")
	logger.Warn("shown at warn", zap.String("path", "Plans.json"))
	require.NoError(t, logger.Close())

	out := console.String()
	assert.NotContains(t, out, "hidden at warn")
	assert.Contains(t, out, "shown at warn")
	assert.Contains(t, out, "run-1")
}

func TestLoggerVerboseAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "plansync.log")
	logger, err := New(Options{Level: "error", Verbose: true, File: path, Console: &console})
	require.NoError(t, err)
	require.NotEmpty(t, logger.RunID)

	logger.Debug("stage done", zap.Duration("elapsed", 0))
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.Contains(t, line, `"msg":"stage done"`)
	assert.Contains(t, line, `"run_id":"`+logger.RunID+`"`)
	assert.Contains(t, console.String(), "stage done")
}

func TestLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	require.Error(t, err)
}

func TestNopClose(t *testing.T) {
	assert.NoError(t, Nop().Close())
	var nilLogger *Logger
	assert.NoError(t, nilLogger.Close())
}
