// cmd/plansync/main.go
//
// This is the entry point for the plansync CLI. It keeps a roadmap document
// (Plans.json) and its Markdown rendering (Plans.md) in lockstep.
//
// Flow:
// 1. Load .plansync/config.yaml and PLANSYNC_* overrides
// 2. Build the logger
// 3. Run the subcommand, which decides the exit status

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kingrea/plansync/internal/config"
	"github.com/kingrea/plansync/internal/logging"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

// errFailed marks a run whose failures were already printed.
var errFailed = errors.New("plansync: failed")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	a := newApp(stdout, stderr)
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(stderr, a.errStyle.Render("error:"), err)
		}
		return 1
	}
	return 0
}

// app carries the state shared by every subcommand.
type app struct {
	stdout io.Writer
	stderr io.Writer

	projectDir string
	verbose    bool

	cfg *config.Config
	log *logging.Logger

	okStyle   lipgloss.Style
	noteStyle lipgloss.Style
	errStyle  lipgloss.Style
	hintStyle lipgloss.Style
}

func newApp(stdout, stderr io.Writer) *app {
	out := lipgloss.NewRenderer(stdout)
	errOut := lipgloss.NewRenderer(stderr)
	return &app{
		stdout:    stdout,
		stderr:    stderr,
		log:       logging.Nop(),
		okStyle:   out.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		noteStyle: out.NewStyle().Faint(true),
		errStyle:  errOut.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		hintStyle: errOut.NewStyle().Faint(true),
	}
}

func (a *app) close() {
	_ = a.log.Close()
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "plansync",
		Short: "Validate, render and sync-check a roadmap document",
		Long: `plansync keeps a machine-readable roadmap document and its Markdown
rendering in lockstep.

  validate  check the document against the roadmap schema
  render    write the deterministic Markdown rendering
  check     fail when the rendering is missing or stale
  gate      run the repository compliance gate`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// init must work before any config exists.
			if cmd.Name() == "init" {
				return nil
			}
			return a.setup()
		},
	}

	root.PersistentFlags().StringVarP(&a.projectDir, "project", "C", ".", "project directory")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newValidateCmd(a),
		newRenderCmd(a),
		newCheckCmd(a),
		newPreviewCmd(a),
		newWatchCmd(a),
		newGateCmd(a),
		newInitCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.projectDir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Options{
		Level:   cfg.LogLevel(),
		Verbose: a.verbose,
		File:    cfg.LogFile(),
		Console: a.stderr,
	})
	if err != nil {
		return err
	}
	a.log = logger
	a.log.Debug("configuration loaded",
		zap.String("project", cfg.ProjectDir),
		zap.String("input", cfg.InputPath()),
		zap.String("output", cfg.OutputPath()))
	return nil
}
