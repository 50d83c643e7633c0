package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/ldf/internal/config"
	"github.com/dusk-indust/ldf/internal/lint"
	"github.com/dusk-indust/ldf/internal/report"
	"github.com/dusk-indust/ldf/internal/spec"
)

type lintFlags struct {
	all         bool
	format      string
	strict      bool
	only        []string
	ignore      []string
	watch       bool
	concurrency int
}

func newLintCmd(a *app) *cobra.Command {
	var f lintFlags
	cmd := &cobra.Command{
		Use:   "lint [spec...]",
		Short: "Validate spec documents",
		Long: `Lint one or more specs. With no spec names (or --all) every spec under the
specs directory is linted.

Exit status is 0 when the lint passes, 1 when it fails and 2 on invalid usage.
With --strict, warnings fail the lint as well as errors.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd.Context(), a, f, args)
		},
	}
	cmd.Flags().BoolVar(&f.all, "all", false, "lint every spec (default when no spec is named)")
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "output format: text, ci, json, sarif, markdown, html")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "treat warnings as failures")
	cmd.Flags().StringSliceVar(&f.only, "only", nil, "run only these rules: sections, markers, markdown, stories, guardrails, tasks, references")
	cmd.Flags().StringSliceVar(&f.ignore, "ignore", nil, "glob patterns of finding kinds, rules, specs or <spec>/<doc>.md to ignore")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "re-lint whenever a spec document changes")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "specs linted at once (default: config lint.concurrency or GOMAXPROCS)")
	return cmd
}

func runLint(ctx context.Context, a *app, f lintFlags, args []string) error {
	format, err := report.ParseFormat(f.format)
	if err != nil {
		return &exitError{code: 2, err: err}
	}
	if f.all && len(args) > 0 {
		return usageError("--all cannot be combined with spec names")
	}
	for _, name := range args {
		if err := spec.ValidateName(name); err != nil {
			return &exitError{code: 2, err: err}
		}
	}

	p, err := a.project()
	if err != nil {
		return err
	}
	cfg := p.Lint
	cfg.Strict = cfg.Strict || f.strict
	if len(f.only) > 0 {
		cfg.Rules = f.only
	}
	cfg.IgnorePatterns = append(append([]string(nil), cfg.IgnorePatterns...), f.ignore...)
	if _, err := lint.Select(cfg.Rules); err != nil {
		return &exitError{code: 2, err: err}
	}
	concurrency := f.concurrency
	if concurrency <= 0 {
		concurrency = p.Config.Concurrency
	}

	run := func(ctx context.Context) (bool, error) {
		return lintOnce(ctx, a, p.Config, cfg, format, concurrency, args)
	}

	if !f.watch {
		passed, err := run(ctx)
		if err != nil {
			return err
		}
		if !passed {
			return &exitError{code: 1}
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Fprintln(a.errOut, mutedStyle.Render("Watching "+p.Config.SpecsDir+" for changes... (Press Ctrl+C to exit)"))
	return watchSpecs(ctx, p.Config.SpecsDir, a.logger, func() {
		if _, err := run(ctx); err != nil {
			fmt.Fprintln(a.errOut, failStyle.Render("Error: "+err.Error()))
		}
	})
}

// lintOnce loads the named specs (all when none) and writes one report.
func lintOnce(ctx context.Context, a *app, pc *config.ProjectConfig, cfg spec.LintConfig,
	format report.Format, concurrency int, names []string) (bool, error) {
	var sources []spec.Source
	if len(names) == 0 {
		all, err := spec.LoadAll(pc.SpecsDir)
		if err != nil {
			return false, fmt.Errorf("load specs: %w", err)
		}
		sources = all
	} else {
		for _, name := range names {
			src, err := spec.Load(pc.SpecsDir, name)
			if err != nil {
				return false, err
			}
			sources = append(sources, src)
		}
	}
	if len(sources) == 0 {
		fmt.Fprintf(a.errOut, "No specs found in %s\n", pc.SpecsDir)
		return true, nil
	}

	var mu sync.Mutex
	opts := lint.ProjectOptions{Concurrency: concurrency, Logger: a.logger}
	if a.verbose {
		opts.OnProgress = func(ev lint.ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintln(a.errOut, lint.FormatProgress(ev))
		}
	}

	pr, err := lint.LintProject(ctx, sources, cfg, opts)
	if err != nil {
		if errors.Is(err, lint.ErrUnknownRule) {
			return false, &exitError{code: 2, err: err}
		}
		return false, err
	}

	linted := make([]string, 0, len(pr.Specs))
	for _, r := range pr.Specs {
		linted = append(linted, r.Spec)
	}
	res := report.NewResult(pr.Report, cfg.Strict, linted...)
	if err := report.Write(a.out, format, res, report.Options{SpecsDir: relSpecsDir(pc), Version: version}); err != nil {
		return false, fmt.Errorf("write report: %w", err)
	}
	return pr.Report.Passed, nil
}

// relSpecsDir is the specs directory relative to the project root, with
// forward slashes, for use in report locations.
func relSpecsDir(pc *config.ProjectConfig) string {
	rel, err := filepath.Rel(pc.Root, pc.SpecsDir)
	if err != nil {
		return filepath.ToSlash(pc.SpecsDir)
	}
	return filepath.ToSlash(rel)
}
