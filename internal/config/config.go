// internal/config/config.go
//
// This package handles configuration and the .plansync directory. Settings
// come from built-in defaults, .plansync/config.yaml and PLANSYNC_*
// environment variables, in that order; command-line flags are applied on
// top by the CLI.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	// Dir is the name of the directory we create in each project
	Dir = ".plansync"

	defaultInput    = "Plans.json"
	defaultOutput   = "Plans.md"
	defaultLogLevel = "warn"
)

const defaultProjectConfigYAML = `# plansync project configuration
version: 1

# Roadmap source document and its rendered Markdown, relative to the project root.
input: Plans.json
output: Plans.md

log:
  # One of debug, info, warn, error.
  level: warn
  # Optional log file. Leave empty to log to stderr only.
  # file: .plansync/logs/plansync.log

# Compliance gate rules used by "plansync gate".
gate:
  required_files:
    - Plans.json
    - Plans.md
  json_files:
    - Plans.json
  # keywords:
  #   - file: LICENSE
  #     all: ["MIT License", "Permission is hereby granted"]
  # forbidden_lines:
  #   - file: docs/decisions.md
  #     pattern: '\|\s*DR-\d+\s*\|.*\|\s*Open\s*\|'
  #     message: open decision record
  plans:
    - input: Plans.json
      output: Plans.md
`

var logLevels = []string{"debug", "info", "warn", "error"}

// LogConfig controls diagnostic output.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

// KeywordRule requires every keyword in All to appear in File.
type KeywordRule struct {
	File string   `yaml:"file"`
	All  []string `yaml:"all"`
}

// ForbiddenLineRule rejects any line of File matching Pattern.
type ForbiddenLineRule struct {
	File    string `yaml:"file"`
	Pattern string `yaml:"pattern"`
	Message string `yaml:"message,omitempty"`
}

// PlanPair names a roadmap document and its rendering.
type PlanPair struct {
	Input  string `yaml:"input"`
	Output string `yaml:"output"`
}

// GateConfig captures the compliance gate rules.
type GateConfig struct {
	RequiredFiles  []string            `yaml:"required_files,omitempty"`
	JSONFiles      []string            `yaml:"json_files,omitempty"`
	Keywords       []KeywordRule       `yaml:"keywords,omitempty"`
	ForbiddenLines []ForbiddenLineRule `yaml:"forbidden_lines,omitempty"`
	Plans          []PlanPair          `yaml:"plans,omitempty"`
}

// ProjectConfig models .plansync/config.yaml.
type ProjectConfig struct {
	Version int        `yaml:"version"`
	Input   string     `yaml:"input"`
	Output  string     `yaml:"output"`
	Log     LogConfig  `yaml:"log"`
	Gate    GateConfig `yaml:"gate"`
}

// envOverrides holds the PLANSYNC_* environment variables.
type envOverrides struct {
	Input    string `env:"PLANSYNC_INPUT"`
	Output   string `env:"PLANSYNC_OUTPUT"`
	LogLevel string `env:"PLANSYNC_LOG_LEVEL"`
	LogFile  string `env:"PLANSYNC_LOG_FILE"`
}

// Config holds the runtime configuration for plansync.
type Config struct {
	// ProjectDir is the directory plansync runs against
	ProjectDir string

	// ConfigDir is ProjectDir/.plansync
	ConfigDir string

	Project ProjectConfig
}

// InitDir creates the .plansync directory with a default config.yaml.
// An existing config file is never overwritten; created reports whether a
// new one was written.
//
// Structure created:
// .plansync/
// ├── config.yaml
// ├── logs/       <- optional log file target
// └── reports/    <- gate reports
func InitDir(projectDir string) (path string, created bool, err error) {
	dir := filepath.Join(projectDir, Dir)
	for _, sub := range []string{dir, filepath.Join(dir, "logs"), filepath.Join(dir, "reports")} {
		if err := os.MkdirAll(sub, 0o755); err != nil {
			return "", false, fmt.Errorf("config: create %s: %w", sub, err)
		}
	}
	path = filepath.Join(dir, "config.yaml")
	created, err = ensureProjectConfig(path)
	if err != nil {
		return "", false, fmt.Errorf("config: write %s: %w", path, err)
	}
	return path, created, nil
}

// Load builds the configuration for projectDir. A missing config file
// yields the defaults.
func Load(projectDir string) (*Config, error) {
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, fmt.Errorf("config: resolve project dir: %w", err)
	}
	cfg := &Config{
		ProjectDir: abs,
		ConfigDir:  filepath.Join(abs, Dir),
		Project:    defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Project.normalize(cfg.ProjectDir)
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.ConfigDir, "config.yaml")
}

// ReportsDir returns the default directory for gate reports.
func (c *Config) ReportsDir() string {
	return filepath.Join(c.ConfigDir, "reports")
}

// InputPath returns the resolved roadmap document path.
func (c *Config) InputPath() string {
	return c.Project.Input
}

// OutputPath returns the resolved rendered document path.
func (c *Config) OutputPath() string {
	return c.Project.Output
}

// LogLevel returns the configured log level.
func (c *Config) LogLevel() string {
	return c.Project.Log.Level
}

// LogFile returns the resolved log file path, or "".
func (c *Config) LogFile() string {
	return c.Project.Log.File
}

// Gate returns the compliance gate rules.
func (c *Config) Gate() GateConfig {
	return c.Project.Gate
}

// Resolve returns path resolved against the project directory.
func (c *Config) Resolve(path string) string {
	return resolvePath(c.ProjectDir, path)
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	c.Project = parsed
	return nil
}

func (c *Config) applyEnv() error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	if overrides.Input != "" {
		c.Project.Input = overrides.Input
	}
	if overrides.Output != "" {
		c.Project.Output = overrides.Output
	}
	if overrides.LogLevel != "" {
		c.Project.Log.Level = overrides.LogLevel
	}
	if overrides.LogFile != "" {
		c.Project.Log.File = overrides.LogFile
	}
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Input:   defaultInput,
		Output:  defaultOutput,
		Log:     LogConfig{Level: defaultLogLevel},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Input) == "" {
		pc.Input = defaultInput
	}
	if strings.TrimSpace(pc.Output) == "" {
		pc.Output = defaultOutput
	}
	if strings.TrimSpace(pc.Log.Level) == "" {
		pc.Log.Level = defaultLogLevel
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Input = resolvePath(base, pc.Input)
	pc.Output = resolvePath(base, pc.Output)
	pc.Log.Level = strings.ToLower(strings.TrimSpace(pc.Log.Level))
	pc.Log.File = resolvePath(base, pc.Log.File)
	pc.Gate.normalize(base)
}

func (g *GateConfig) normalize(base string) {
	for i := range g.RequiredFiles {
		g.RequiredFiles[i] = resolvePath(base, g.RequiredFiles[i])
	}
	for i := range g.JSONFiles {
		g.JSONFiles[i] = resolvePath(base, g.JSONFiles[i])
	}
	for i := range g.Keywords {
		g.Keywords[i].File = resolvePath(base, g.Keywords[i].File)
	}
	for i := range g.ForbiddenLines {
		g.ForbiddenLines[i].File = resolvePath(base, g.ForbiddenLines[i].File)
	}
	for i := range g.Plans {
		g.Plans[i].Input = resolvePath(base, g.Plans[i].Input)
		g.Plans[i].Output = resolvePath(base, g.Plans[i].Output)
	}
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if !contains(logLevels, pc.Log.Level) {
		return fmt.Errorf("log.level must be one of %s, got %q", strings.Join(logLevels, ", "), pc.Log.Level)
	}
	return pc.Gate.validate()
}

func (g GateConfig) validate() error {
	for i, rule := range g.Keywords {
		if rule.File == "" {
			return fmt.Errorf("gate.keywords[%d]: file is required", i)
		}
		if len(rule.All) == 0 {
			return fmt.Errorf("gate.keywords[%d]: all must list at least one keyword", i)
		}
	}
	for i, rule := range g.ForbiddenLines {
		if rule.File == "" {
			return fmt.Errorf("gate.forbidden_lines[%d]: file is required", i)
		}
		if _, err := regexp.Compile(rule.Pattern); err != nil || rule.Pattern == "" {
			return fmt.Errorf("gate.forbidden_lines[%d]: invalid pattern %q", i, rule.Pattern)
		}
	}
	for i, pair := range g.Plans {
		if pair.Input == "" || pair.Output == "" {
			return fmt.Errorf("gate.plans[%d]: input and output are required", i)
		}
	}
	return nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if err := os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644); err != nil {
		return false, err
	}
	return true, nil
}
