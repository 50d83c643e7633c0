// Command ldf lints and inspects spec documents (requirements.md, design.md,
// tasks.md) under a project's .ldf/specs directory.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/ldf/internal/config"
)

// version is set by goreleaser at build time.
var version = "dev"

// exitError carries a process exit code through cobra's RunE. A nil err means
// the command already reported the problem.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// usageError marks an invalid invocation (exit code 2).
func usageError(format string, args ...any) error {
	return &exitError{code: 2, err: fmt.Errorf(format, args...)}
}

// app holds the global flags and output streams shared by every subcommand.
type app struct {
	projectRoot string
	verbose     bool

	out    io.Writer
	errOut io.Writer
	logger *slog.Logger
}

func newApp(out, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut, logger: slog.New(slog.DiscardHandler)}
}

// project loads .ldf/config.yaml and .ldf/guardrails.yaml under the project
// root and logs guardrail references that matched nothing.
func (a *app) project() (*config.Project, error) {
	p, err := config.LoadProject(a.projectRoot)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	for _, ref := range p.Guardrails.Unmatched {
		a.logger.Warn("guardrail reference matched nothing", "ref", ref)
	}
	a.logger.Debug("project loaded", "specs_dir", p.Config.SpecsDir,
		"guardrails", len(p.Lint.Guardrails), "strict", p.Lint.Strict)
	return p, nil
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := newApp(out, errOut)

	root := &cobra.Command{
		Use:   "ldf",
		Short: "Lint and inspect spec documents",
		Long: `ldf validates the requirements, design and tasks documents of each spec
under .ldf/specs: required sections, unfilled template markers, guardrail
coverage, task ids and task dependency cycles.

Examples:
  ldf lint                      # lint every spec
  ldf lint user-auth --strict   # warnings fail the lint too
  ldf lint --format sarif > ldf.sarif
  ldf status
  ldf tasks user-auth --format mermaid`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVarP(&a.projectRoot, "project-root", "C", ".", "path to the project containing .ldf/")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging on stderr")

	root.AddCommand(
		newLintCmd(a),
		newStatusCmd(a),
		newTasksCmd(a),
		newDepsCmd(a),
		newCoverageCmd(a),
		newGuardrailsCmd(a),
		newExportCmd(a),
		newServeMCPCmd(a),
		newVersionCmd(a),
	)
	return root
}

// exitCode maps an error returned by the root command to a process exit code.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}

func main() {
	cmd := newRootCmd(os.Stdout, os.Stderr)
	err := cmd.Execute()
	if err != nil {
		var ee *exitError
		if !errors.As(err, &ee) || ee.err != nil {
			fmt.Fprintln(os.Stderr, failStyle.Render("Error: "+err.Error()))
		}
	}
	os.Exit(exitCode(err))
}
