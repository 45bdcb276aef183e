// Package gate runs the repository compliance checks: required files,
// parseable JSON, required keywords, forbidden lines and roadmap sync.
// Every check runs; findings accumulate instead of stopping at the first.
package gate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/kingrea/plansync/internal/config"
	"github.com/kingrea/plansync/internal/contracts"
	"github.com/kingrea/plansync/internal/drift"
)

// Check names one family of gate rules.
type Check string

const (
	CheckRequiredFiles  Check = "required_files"
	CheckJSONFiles      Check = "json_files"
	CheckKeywords       Check = "keywords"
	CheckForbiddenLines Check = "forbidden_lines"
	CheckPlans          Check = "plans"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Finding is one failed gate rule.
type Finding struct {
	Check   Check  `json:"check"`
	File    string `json:"file,omitempty"`
	Message string `json:"message"`
}

func (f Finding) String() string {
	if f.File == "" {
		return f.Message
	}
	return f.File + ": " + f.Message
}

// Result collects the findings of a gate run.
type Result struct {
	Findings []Finding `json:"findings"`
	// Checked counts the individual rules evaluated.
	Checked int `json:"checked"`
}

// Passed reports whether no rule failed.
func (r Result) Passed() bool {
	return len(r.Findings) == 0
}

// Option customizes a Runner.
type Option func(*Runner)

// WithLogger sets the logger for per-check diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithBase shows file paths relative to dir in findings.
func WithBase(dir string) Option {
	return func(r *Runner) {
		r.base = dir
	}
}

// Runner evaluates gate rules.
type Runner struct {
	logger *zap.Logger
	base   string
}

// NewRunner builds a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// outcome is what one check family produced.
type outcome struct {
	findings []Finding
	checked  int
}

// Run evaluates rules. Check families run concurrently; findings are
// reported in family order and rule order within a family. The only error
// is ctx cancellation.
func (r *Runner) Run(ctx context.Context, rules config.GateConfig) (Result, error) {
	families := []struct {
		check Check
		run   func() outcome
	}{
		{CheckRequiredFiles, func() outcome { return r.requiredFiles(rules.RequiredFiles) }},
		{CheckJSONFiles, func() outcome { return r.jsonFiles(rules.JSONFiles) }},
		{CheckKeywords, func() outcome { return r.keywords(rules.Keywords) }},
		{CheckForbiddenLines, func() outcome { return r.forbiddenLines(rules.ForbiddenLines) }},
		{CheckPlans, func() outcome { return r.plans(rules.Plans) }},
	}
	if err := ctx.Err(); err != nil {
		return Result{Findings: []Finding{}}, fmt.Errorf("gate: %w", err)
	}

	outcomes := make([]outcome, len(families))
	g, gctx := errgroup.WithContext(ctx)
	for i, family := range families {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			outcomes[i] = family.run()
			r.logger.Debug("gate check finished",
				zap.String("check", string(family.check)),
				zap.Int("rules", outcomes[i].checked),
				zap.Int("findings", len(outcomes[i].findings)),
				zap.Duration("elapsed", time.Since(start)))
			return nil
		})
	}
	err := g.Wait()

	result := Result{Findings: []Finding{}}
	for _, o := range outcomes {
		result.Findings = append(result.Findings, o.findings...)
		result.Checked += o.checked
	}
	if err != nil {
		return result, fmt.Errorf("gate: %w", err)
	}
	return result, nil
}

func (r *Runner) finding(check Check, path, format string, args ...any) Finding {
	return Finding{
		Check:   check,
		File:    r.display(path),
		Message: fmt.Sprintf(format, args...),
	}
}

func (r *Runner) display(path string) string {
	if path == "" || r.base == "" {
		return path
	}
	rel, err := filepath.Rel(r.base, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

func (r *Runner) requiredFiles(paths []string) (out outcome) {
	for _, path := range paths {
		out.checked++
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				out.findings = append(out.findings, r.finding(CheckRequiredFiles, path, "required file is missing"))
			} else {
				out.findings = append(out.findings, r.finding(CheckRequiredFiles, path, "cannot stat: %v", err))
			}
		}
	}
	return out
}

func (r *Runner) jsonFiles(paths []string) (out outcome) {
	for _, path := range paths {
		out.checked++
		data, err := os.ReadFile(path)
		if err != nil {
			out.findings = append(out.findings, r.finding(CheckJSONFiles, path, "cannot read: %v", unwrapPathError(err)))
			continue
		}
		var value any
		if err := json.Unmarshal(bytes.TrimPrefix(data, utf8BOM), &value); err != nil {
			out.findings = append(out.findings, r.finding(CheckJSONFiles, path, "invalid JSON: %v", err))
		}
	}
	return out
}

func (r *Runner) keywords(rules []config.KeywordRule) (out outcome) {
	for _, rule := range rules {
		out.checked++
		data, err := os.ReadFile(rule.File)
		if err != nil {
			out.findings = append(out.findings, r.finding(CheckKeywords, rule.File, "cannot read: %v", unwrapPathError(err)))
			continue
		}
		content := norm.NFC.String(string(bytes.TrimPrefix(data, utf8BOM)))
		var missing []string
		for _, keyword := range rule.All {
			if !strings.Contains(content, norm.NFC.String(keyword)) {
				missing = append(missing, keyword)
			}
		}
		if len(missing) > 0 {
			out.findings = append(out.findings, r.finding(CheckKeywords, rule.File, "missing keywords: %s", strings.Join(missing, ", ")))
		}
	}
	return out
}

func (r *Runner) forbiddenLines(rules []config.ForbiddenLineRule) (out outcome) {
	for _, rule := range rules {
		out.checked++
		pattern, err := regexp.Compile(rule.Pattern)
		if err != nil {
			out.findings = append(out.findings, r.finding(CheckForbiddenLines, rule.File, "invalid pattern %q: %v", rule.Pattern, err))
			continue
		}
		data, err := os.ReadFile(rule.File)
		if err != nil {
			out.findings = append(out.findings, r.finding(CheckForbiddenLines, rule.File, "cannot read: %v", unwrapPathError(err)))
			continue
		}
		message := rule.Message
		if message == "" {
			message = "forbidden line"
		}
		scanner := bufio.NewScanner(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for lineNo := 1; scanner.Scan(); lineNo++ {
			line := strings.TrimRight(scanner.Text(), "\r")
			if pattern.MatchString(line) {
				out.findings = append(out.findings, r.finding(CheckForbiddenLines, rule.File, "line %d: %s: %s", lineNo, message, strings.TrimSpace(line)))
			}
		}
		if err := scanner.Err(); err != nil {
			out.findings = append(out.findings, r.finding(CheckForbiddenLines, rule.File, "cannot scan: %v", err))
		}
	}
	return out
}

func (r *Runner) plans(pairs []config.PlanPair) (out outcome) {
	for _, pair := range pairs {
		out.checked++
		report, err := contracts.ValidateFile(pair.Input)
		if err != nil {
			out.findings = append(out.findings, r.finding(CheckPlans, pair.Input, "cannot read: %v", unwrapPathError(err)))
			continue
		}
		if !report.IsValid() {
			for _, violation := range report.Violations {
				out.findings = append(out.findings, r.finding(CheckPlans, pair.Input, "%s", violation.Error()))
			}
			continue
		}
		var previous *string
		data, err := os.ReadFile(pair.Output)
		switch {
		case err == nil:
			text := string(data)
			previous = &text
		case !errors.Is(err, fs.ErrNotExist):
			out.findings = append(out.findings, r.finding(CheckPlans, pair.Output, "cannot read: %v", unwrapPathError(err)))
			continue
		}
		if syncErr := drift.Check(report.Document, previous).Err(); syncErr != nil {
			out.findings = append(out.findings, r.finding(CheckPlans, pair.Output, "%v", syncErr))
		}
	}
	return out
}

func unwrapPathError(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err
	}
	return err
}
