package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kingrea/plansync/internal/drift"
	"github.com/kingrea/plansync/internal/plantest"
	"github.com/kingrea/plansync/internal/render"
)

type result struct {
	code   int
	stdout string
	stderr string
}

func runCLI(t *testing.T, args ...string) result {
	t.Helper()
	for _, key := range []string{"PLANSYNC_INPUT", "PLANSYNC_OUTPUT", "PLANSYNC_LOG_LEVEL", "PLANSYNC_LOG_FILE"} {
		t.Setenv(key, "")
	}
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func projectWithPlan(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	plantest.WriteFile(t, dir, "Plans.json", content)
	return dir
}

func TestValidate(t *testing.T) {
	dir := projectWithPlan(t, plantest.ValidJSON)
	res := runCLI(t, "-C", dir, "validate")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "validation passed:")
}

func TestValidateReportsEveryViolation(t *testing.T) {
	dir := projectWithPlan(t, `{"1_Purpose": []}`)
	res := runCLI(t, "-C", dir, "validate")
	require.Equal(t, 1, res.code)
	assert.Empty(t, res.stdout)

	var violations []string
	for _, line := range strings.Split(strings.TrimSpace(res.stderr), "\n") {
		if strings.HasPrefix(line, "- ") {
			violations = append(violations, line)
		}
	}
	require.GreaterOrEqual(t, len(violations), 2)
	assert.True(t, strings.HasPrefix(violations[0], "- $: "), violations[0])
}

func TestValidateMissingInput(t *testing.T) {
	res := runCLI(t, "-C", t.TempDir(), "validate", "--input", "nope.json")
	require.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "error:")
	assert.Contains(t, res.stderr, "read plan file")
}

func TestRenderThenCheck(t *testing.T) {
	dir := projectWithPlan(t, "\ufeff"+plantest.ValidJSON)

	res := runCLI(t, "-C", dir, "render", "--output", "docs/Plans.md")
	require.Equal(t, 0, res.code, res.stderr)

	data, err := os.ReadFile(filepath.Join(dir, "docs", "Plans.md"))
	require.NoError(t, err)
	assert.Equal(t, drift.Normalize(render.Document(plantest.Valid(t))), string(data))
	assert.NotContains(t, string(data), "\r")

	res = runCLI(t, "-C", dir, "check", "--output", "docs/Plans.md")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "in sync:")
}

func TestCheckDistinguishesMissingFromStale(t *testing.T) {
	dir := projectWithPlan(t, plantest.ValidJSON)

	res := runCLI(t, "-C", dir, "check")
	require.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "never rendered")
	assert.Contains(t, res.stderr, "run: plansync render")

	plantest.WriteFile(t, dir, "Plans.md", "# Plans\n")
	res = runCLI(t, "-C", dir, "check")
	require.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "out of sync")
	assert.Contains(t, res.stderr, "first difference at line 1")
	assert.NotContains(t, res.stderr, "never rendered")
}

func TestCheckAcceptsCRLFRendering(t *testing.T) {
	dir := projectWithPlan(t, plantest.ValidJSON)
	rendered := drift.Normalize(render.Document(plantest.Valid(t)))
	plantest.WriteFile(t, dir, "Plans.md", strings.ReplaceAll(rendered, "\n", "\r\n"))

	res := runCLI(t, "-C", dir, "check")
	require.Equal(t, 0, res.code, res.stderr)
}

func TestPreviewPlain(t *testing.T) {
	dir := projectWithPlan(t, plantest.ValidJSON)
	res := runCLI(t, "-C", dir, "preview", "--plain")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "Purpose")
	assert.Contains(t, res.stdout, "Progress Tracking")
}

func TestInitThenGate(t *testing.T) {
	dir := projectWithPlan(t, plantest.ValidJSON)

	res := runCLI(t, "-C", dir, "init")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "created:")

	res = runCLI(t, "-C", dir, "init")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "kept existing:")

	res = runCLI(t, "-C", dir, "gate")
	require.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "- Plans.md: required file is missing")
	assert.Contains(t, res.stderr, "- Plans.md: "+drift.ErrNeverRendered.Error())

	res = runCLI(t, "-C", dir, "render")
	require.Equal(t, 0, res.code, res.stderr)

	res = runCLI(t, "-C", dir, "gate", "--report", "out/gate.json")
	require.Equal(t, 0, res.code, res.stderr)
	assert.Contains(t, res.stdout, "gate passed: 4 check(s)")

	data, err := os.ReadFile(filepath.Join(dir, "out", "gate.json"))
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Equal(t, true, report["passed"])
	assert.Contains(t, report, "_plansync")
}

func TestInvalidConfigFails(t *testing.T) {
	dir := t.TempDir()
	plantest.WriteFile(t, dir, ".plansync/config.yaml", "log:\n  level: loud\n")
	res := runCLI(t, "-C", dir, "validate")
	require.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "config: log.level")
}

func TestUnknownCommand(t *testing.T) {
	res := runCLI(t, "frobnicate")
	assert.Equal(t, 1, res.code)
	assert.Contains(t, res.stderr, "unknown command")
}
