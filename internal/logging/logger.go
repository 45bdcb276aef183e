package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options configures a Logger.
type Options struct {
	// Level is one of debug, info, warn, error. Empty means warn.
	Level string
	// Verbose forces debug level.
	Verbose bool
	// File, when set, receives JSON lines in addition to the console output.
	File string
	// Console receives human-readable lines. Nil means stderr.
	Console io.Writer
	// RunID tags every entry. Empty means a fresh UUID.
	RunID string
}

// Logger writes console lines to stderr and, optionally, JSON lines to a
// log file so failures can be inspected after a CI job ends.
type Logger struct {
	*zap.Logger
	RunID string
	file  *os.File
}

// New builds a Logger from opts.
func New(opts Options) (*Logger, error) {
	level := zapcore.WarnLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("logging: %w", err)
		}
		level = parsed
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	consoleConfig := zap.NewDevelopmentEncoderConfig()
	consoleConfig.TimeKey = ""
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConfig), zapcore.AddSync(console), level),
	}

	var file *os.File
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("logging: ensure log dir: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logging: open log file: %w", err)
		}
		file = f
		fileConfig := zap.NewProductionEncoderConfig()
		fileConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileConfig), zapcore.AddSync(f), level))
	}

	logger := zap.New(zapcore.NewTee(cores...)).With(zap.String("run_id", runID))
	return &Logger{Logger: logger, RunID: runID, file: file}, nil
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// Close flushes buffered entries and releases the log file.
func (l *Logger) Close() error {
	if l == nil || l.Logger == nil {
		return nil
	}
	_ = l.Logger.Sync()
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
