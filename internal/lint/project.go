package lint

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/ldf/internal/spec"
)

// ProgressStatus is the state of one spec in a project lint.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressSkipped  ProgressStatus = "skipped"
	ProgressFailed   ProgressStatus = "failed"
)

// ProgressEvent reports a spec moving through a project lint.
type ProgressEvent struct {
	Spec    string
	Status  ProgressStatus
	Errors  int
	Message string
}

// FormatProgress renders an event as a one-line status.
func FormatProgress(ev ProgressEvent) string {
	switch ev.Status {
	case ProgressPending:
		return fmt.Sprintf("  ○ %s (pending)", ev.Spec)
	case ProgressWorking:
		return fmt.Sprintf("  ● %s...", ev.Spec)
	case ProgressComplete:
		return fmt.Sprintf("  ✓ %s (%d errors)", ev.Spec, ev.Errors)
	case ProgressSkipped:
		return fmt.Sprintf("  - %s skipped", ev.Spec)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", ev.Spec, ev.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", ev.Spec)
	}
}

// ProjectOptions tunes LintProject.
type ProjectOptions struct {
	// Concurrency bounds the number of specs linted at once. Zero means
	// GOMAXPROCS.
	Concurrency int
	// OnProgress is called from worker goroutines; it must be safe for
	// concurrent use. It may be nil.
	OnProgress func(ProgressEvent)
	Logger     *slog.Logger
}

// SpecResult is the report of one spec within a project lint.
type SpecResult struct {
	Spec   string
	Report *spec.LintReport
}

// ProjectReport is the outcome of LintProject.
type ProjectReport struct {
	// Specs holds one result per linted spec, sorted by name.
	Specs []SpecResult
	// Report concatenates every spec's findings.
	Report *spec.LintReport
}

// LintProject lints every source concurrently and merges the results. The
// merged report is ordered by spec name regardless of completion order.
// Specs whose name matches an ignore pattern are skipped.
func LintProject(ctx context.Context, sources []spec.Source, cfg spec.LintConfig, opts ProjectOptions) (*ProjectReport, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	emit := func(ev ProgressEvent) {
		if opts.OnProgress != nil {
			opts.OnProgress(ev)
		}
	}

	if _, err := Select(cfg.Rules); err != nil {
		return nil, err
	}

	results := make([]*SpecResult, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, src := range sources {
		if SpecIgnored(src.Name, cfg.IgnorePatterns) {
			logger.Debug("spec ignored", "spec", src.Name)
			emit(ProgressEvent{Spec: src.Name, Status: ProgressSkipped})
			continue
		}
		emit(ProgressEvent{Spec: src.Name, Status: ProgressPending})

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			emit(ProgressEvent{Spec: src.Name, Status: ProgressWorking})

			report, err := lintSource(src, cfg)
			if err != nil {
				emit(ProgressEvent{Spec: src.Name, Status: ProgressFailed, Message: err.Error()})
				return fmt.Errorf("lint %s: %w", src.Name, err)
			}
			results[i] = &SpecResult{Spec: src.Name, Report: report}
			logger.Debug("spec linted", "spec", src.Name,
				"errors", report.ErrorCount, "warnings", report.WarningCount, "passed", report.Passed)
			emit(ProgressEvent{Spec: src.Name, Status: ProgressComplete, Errors: report.ErrorCount})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &ProjectReport{}
	var all []spec.Finding
	for _, r := range results {
		if r == nil {
			continue
		}
		out.Specs = append(out.Specs, *r)
	}
	sort.SliceStable(out.Specs, func(i, j int) bool { return out.Specs[i].Spec < out.Specs[j].Spec })
	for _, r := range out.Specs {
		all = append(all, r.Report.Findings...)
	}
	out.Report = spec.NewReport(all, cfg.Strict)
	return out, nil
}

// lintSource lints one loaded spec. A directory whose name is not a valid
// spec name is reported as a finding and its documents are still linted. A
// spec directory with no documents at all is reported as three missing
// documents rather than rejected.
func lintSource(src spec.Source, cfg spec.LintConfig) (*spec.LintReport, error) {
	nameErr := spec.ValidateName(src.Name)
	if nameErr == nil && len(src.Docs) > 0 {
		return LintSpec(src.Name, src.Docs, cfg)
	}

	var findings []spec.Finding
	keep := func(f spec.Finding) {
		f.Rule = RuleSections
		f.Spec = src.Name
		if !Ignored(f, cfg.IgnorePatterns) {
			findings = append(findings, f)
		}
	}
	if ruleEnabled(cfg.Rules, RuleSections) {
		if nameErr != nil {
			keep(finding("", spec.KindInvalidSpecName, spec.SeverityError, 0, "",
				fmt.Sprintf("spec directory %q is not a valid spec name (use lowercase letters, digits and hyphens)", src.Name)))
		}
		if len(src.Docs) == 0 {
			for _, t := range spec.DocTypes {
				keep(finding(t, spec.KindMissingDocument, spec.SeverityError, 0, "", fmt.Sprintf("%s is missing", t.FileName())))
			}
		}
	}
	if len(src.Docs) == 0 {
		return spec.NewReport(findings, cfg.Strict), nil
	}

	a, err := Analyze(src.Name, src.Docs, cfg.Guardrails)
	if err != nil {
		return nil, err
	}
	a.Whole = true
	r, err := Run(a, cfg)
	if err != nil {
		return nil, err
	}
	return spec.NewReport(append(findings, r.Findings...), cfg.Strict), nil
}

func ruleEnabled(ids []string, id string) bool {
	if len(ids) == 0 {
		return true
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
