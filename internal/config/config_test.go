package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"PLANSYNC_INPUT", "PLANSYNC_OUTPUT", "PLANSYNC_LOG_LEVEL", "PLANSYNC_LOG_FILE"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, projectDir, content string) {
	t.Helper()
	dir := filepath.Join(projectDir, Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	clearEnv(t)
	projectDir := t.TempDir()
	c, err := Load(projectDir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if c.Project.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.Project.Version)
	}
	if got := c.InputPath(); got != filepath.Join(c.ProjectDir, "Plans.json") {
		t.Fatalf("unexpected input path %s", got)
	}
	if got := c.OutputPath(); got != filepath.Join(c.ProjectDir, "Plans.md") {
		t.Fatalf("unexpected output path %s", got)
	}
	if c.LogLevel() != "warn" {
		t.Fatalf("expected warn log level, got %s", c.LogLevel())
	}
	if c.LogFile() != "" {
		t.Fatalf("expected no log file, got %s", c.LogFile())
	}
}

func TestLoadParsesYaml(t *testing.T) {
	clearEnv(t)
	projectDir := t.TempDir()
	writeConfig(t, projectDir, strings.TrimSpace(`
version: 1
input: docs/roadmap.yaml
output: docs/ROADMAP.md
log:
  level: DEBUG
  file: .plansync/logs/plansync.log
gate:
  required_files: [LICENSE]
  keywords:
    - file: LICENSE
      all: ["MIT License"]
  forbidden_lines:
    - file: docs/decisions.md
      pattern: '\|\s*DR-\d+\s*\|.*\|\s*Open\s*\|'
  plans:
    - input: docs/roadmap.yaml
      output: docs/ROADMAP.md
`))
	c, err := Load(projectDir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !strings.HasSuffix(c.InputPath(), filepath.Join("docs", "roadmap.yaml")) || !filepath.IsAbs(c.InputPath()) {
		t.Fatalf("expected resolved input path, got %s", c.InputPath())
	}
	if c.LogLevel() != "debug" {
		t.Fatalf("expected normalized log level, got %s", c.LogLevel())
	}
	if !strings.HasPrefix(c.LogFile(), c.ProjectDir) {
		t.Fatalf("expected log file under project dir, got %s", c.LogFile())
	}
	gate := c.Gate()
	if len(gate.RequiredFiles) != 1 || gate.RequiredFiles[0] != filepath.Join(c.ProjectDir, "LICENSE") {
		t.Fatalf("unexpected required files %v", gate.RequiredFiles)
	}
	if len(gate.ForbiddenLines) != 1 || len(gate.Plans) != 1 || len(gate.Keywords) != 1 {
		t.Fatalf("unexpected gate rules %+v", gate)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	projectDir := t.TempDir()
	writeConfig(t, projectDir, "input: from-file.json\nlog:\n  level: info\n")
	t.Setenv("PLANSYNC_INPUT", "from-env.json")
	t.Setenv("PLANSYNC_LOG_LEVEL", "error")

	c, err := Load(projectDir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if filepath.Base(c.InputPath()) != "from-env.json" {
		t.Fatalf("expected env input, got %s", c.InputPath())
	}
	if c.LogLevel() != "error" {
		t.Fatalf("expected env log level, got %s", c.LogLevel())
	}
	if filepath.Base(c.OutputPath()) != "Plans.md" {
		t.Fatalf("expected default output, got %s", c.OutputPath())
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "bad-log-level", yaml: "log:\n  level: loud\n"},
		{name: "keyword-without-file", yaml: "gate:\n  keywords:\n    - all: [x]\n"},
		{name: "bad-pattern", yaml: "gate:\n  forbidden_lines:\n    - file: a.md\n      pattern: '('\n"},
		{name: "plan-without-output", yaml: "gate:\n  plans:\n    - input: Plans.json\n"},
		{name: "bad-yaml", yaml: "input: [unterminated\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			clearEnv(t)
			projectDir := t.TempDir()
			writeConfig(t, projectDir, test.yaml)
			if _, err := Load(projectDir); err == nil {
				t.Fatalf("expected validation error but got none")
			} else if !strings.HasPrefix(err.Error(), "config: ") {
				t.Fatalf("expected config: prefix, got %v", err)
			}
		})
	}
}

func TestInitDirKeepsExistingConfig(t *testing.T) {
	clearEnv(t)
	projectDir := t.TempDir()
	path, created, err := InitDir(projectDir)
	if err != nil {
		t.Fatalf("InitDir returned error: %v", err)
	}
	if !created {
		t.Fatalf("expected config to be created")
	}
	if _, err := Load(projectDir); err != nil {
		t.Fatalf("default config does not load: %v", err)
	}

	if err := os.WriteFile(path, []byte("input: custom.json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, created, err = InitDir(projectDir); err != nil || created {
		t.Fatalf("expected existing config to be kept, created=%v err=%v", created, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "input: custom.json\n" {
		t.Fatalf("config was overwritten: %q", data)
	}
	if _, err := os.Stat(filepath.Join(projectDir, Dir, "reports")); err != nil {
		t.Fatalf("expected reports dir: %v", err)
	}
}
