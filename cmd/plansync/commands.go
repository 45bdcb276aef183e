package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/plansync/internal/artifact"
	"github.com/kingrea/plansync/internal/config"
	"github.com/kingrea/plansync/internal/contracts"
	"github.com/kingrea/plansync/internal/drift"
	"github.com/kingrea/plansync/internal/gate"
	"github.com/kingrea/plansync/internal/plan"
	"github.com/kingrea/plansync/internal/render"
	"github.com/kingrea/plansync/internal/tui"
	"github.com/kingrea/plansync/internal/watch"
)

// paths holds the --input/--output flags, which fall back to config.
type paths struct {
	input  string
	output string
}

func (p *paths) addInput(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&p.input, "input", "i", "", "roadmap document (default from config)")
}

func (p *paths) addOutput(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&p.output, "output", "o", "", "rendered Markdown (default from config)")
}

func (a *app) inputPath(p paths) string {
	if p.input != "" {
		return a.cfg.Resolve(p.input)
	}
	return a.cfg.InputPath()
}

func (a *app) outputPath(p paths) string {
	if p.output != "" {
		return a.cfg.Resolve(p.output)
	}
	return a.cfg.OutputPath()
}

// loadValid validates the document at path. Violations are printed one per
// line and reported as errFailed.
func (a *app) loadValid(path string) (*plan.Mapping, error) {
	start := time.Now()
	report, err := contracts.ValidateFile(path)
	if err != nil {
		return nil, err
	}
	a.log.Debug("document validated",
		zap.String("path", path),
		zap.Int("violations", len(report.Violations)),
		zap.Duration("elapsed", time.Since(start)))
	if !report.IsValid() {
		fmt.Fprintln(a.stderr, a.errStyle.Render("validation failed:"), path)
		for _, violation := range report.Violations {
			fmt.Fprintf(a.stderr, "- %s\n", violation.Error())
		}
		return nil, errFailed
	}
	return report.Document, nil
}

func (a *app) renderTo(doc *plan.Mapping, output string) error {
	start := time.Now()
	text := drift.Normalize(render.Document(doc))
	if err := artifact.NewStore().Write(artifact.RenderedPlan(output), []byte(text), artifact.Metadata{}); err != nil {
		return err
	}
	a.log.Debug("rendering written",
		zap.String("path", output),
		zap.String("digest", drift.Digest(text)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func newValidateCmd(a *app) *cobra.Command {
	var p paths
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the roadmap document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := a.inputPath(p)
			if _, err := a.loadValid(input); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, a.okStyle.Render("validation passed:"), input)
			return nil
		},
	}
	p.addInput(cmd)
	return cmd
}

func newRenderCmd(a *app) *cobra.Command {
	var p paths
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the roadmap document to Markdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := a.loadValid(a.inputPath(p))
			if err != nil {
				return err
			}
			output := a.outputPath(p)
			if err := a.renderTo(doc, output); err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, a.okStyle.Render("rendered:"), output)
			return nil
		},
	}
	p.addInput(cmd)
	p.addOutput(cmd)
	return cmd
}

func newCheckCmd(a *app) *cobra.Command {
	var p paths
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Fail when the rendering is missing or out of sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, output := a.inputPath(p), a.outputPath(p)
			doc, err := a.loadValid(input)
			if err != nil {
				return err
			}
			existing, err := artifact.NewStore().Check(artifact.RenderedPlan(output))
			if err != nil {
				return err
			}
			var previous *string
			if existing.State == artifact.StateReady {
				text := string(existing.Body)
				previous = &text
			}

			result := drift.Check(doc, previous)
			a.log.Debug("sync checked",
				zap.Stringer("status", result.Status),
				zap.String("rendered_digest", result.RenderedDigest),
				zap.String("previous_digest", result.PreviousDigest))
			switch result.Status {
			case drift.StatusNeverRendered:
				fmt.Fprintf(a.stderr, "%s %s does not exist; the document was never rendered\n", a.errStyle.Render("check failed:"), output)
			case drift.StatusOutOfSync:
				fmt.Fprintf(a.stderr, "%s %s is out of sync with %s (first difference at line %d)\n",
					a.errStyle.Render("check failed:"), output, input, result.FirstDiffLine)
			default:
				fmt.Fprintln(a.stdout, a.okStyle.Render("in sync:"), output)
				return nil
			}
			fmt.Fprintln(a.stderr, a.hintStyle.Render(fmt.Sprintf("run: plansync render --input %s --output %s", input, output)))
			return errFailed
		},
	}
	p.addInput(cmd)
	p.addOutput(cmd)
	return cmd
}

func newPreviewCmd(a *app) *cobra.Command {
	var (
		p     paths
		plain bool
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Show the rendered roadmap in a terminal pager",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := a.inputPath(p)
			doc, err := a.loadValid(input)
			if err != nil {
				return err
			}
			markdown := render.Document(doc)
			if plain {
				out, err := tui.RenderMarkdown(markdown, render.Width, "notty")
				if err != nil {
					return err
				}
				fmt.Fprint(a.stdout, out)
				return nil
			}
			program := tea.NewProgram(
				tui.NewPreview(filepath.Base(input), markdown),
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
			)
			if _, err := program.Run(); err != nil {
				return fmt.Errorf("run preview: %w", err)
			}
			return nil
		},
	}
	p.addInput(cmd)
	cmd.Flags().BoolVar(&plain, "plain", false, "print without the pager or colors")
	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var p paths
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-render whenever the roadmap document changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, output := a.inputPath(p), a.outputPath(p)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w, err := watch.New([]string{input}, watch.WithLogger(a.log.Logger))
			if err != nil {
				return err
			}
			a.refresh(input, output)
			fmt.Fprintln(a.stdout, a.noteStyle.Render(fmt.Sprintf("watching %s (ctrl+c to stop)", input)))
			return w.Run(ctx, func(context.Context) {
				a.refresh(input, output)
			})
		},
	}
	p.addInput(cmd)
	p.addOutput(cmd)
	return cmd
}

// refresh is one watch iteration. Failures are reported, never fatal.
func (a *app) refresh(input, output string) {
	doc, err := a.loadValid(input)
	if err != nil {
		if !errors.Is(err, errFailed) {
			a.log.Warn("cannot load document", zap.String("path", input), zap.Error(err))
		}
		return
	}
	if err := a.renderTo(doc, output); err != nil {
		a.log.Warn("cannot write rendering", zap.String("path", output), zap.Error(err))
		return
	}
	fmt.Fprintln(a.stdout, a.okStyle.Render("rendered:"), output)
}

func newGateCmd(a *app) *cobra.Command {
	var reportPath string
	cmd := &cobra.Command{
		Use:   "gate",
		Short: "Run the compliance gate configured in .plansync/config.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules := a.cfg.Gate()
			runner := gate.NewRunner(gate.WithLogger(a.log.Logger), gate.WithBase(a.cfg.ProjectDir))
			result, err := runner.Run(cmd.Context(), rules)
			if err != nil {
				return err
			}
			if reportPath != "" {
				path := a.cfg.Resolve(reportPath)
				if err := gate.WriteReport(artifact.NewStore(), path, result, rules, version); err != nil {
					return err
				}
				a.log.Info("gate report written", zap.String("path", path))
			}
			if !result.Passed() {
				fmt.Fprintf(a.stderr, "%s %d finding(s)\n", a.errStyle.Render("gate failed:"), len(result.Findings))
				for _, finding := range result.Findings {
					fmt.Fprintf(a.stderr, "- %s\n", finding)
				}
				return errFailed
			}
			fmt.Fprintf(a.stdout, "%s %d check(s)\n", a.okStyle.Render("gate passed:"), result.Checked)
			return nil
		},
	}
	cmd.Flags().StringVar(&reportPath, "report", "", "write a JSON report to this path")
	return cmd
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create .plansync/config.yaml with defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, created, err := config.InitDir(a.projectDir)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintln(a.stdout, a.okStyle.Render("created:"), path)
			} else {
				fmt.Fprintln(a.stdout, a.noteStyle.Render("kept existing:"), path)
			}
			return nil
		},
	}
}
