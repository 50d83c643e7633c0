// Package lint runs validation rules over parsed spec documents and produces
// a LintReport. Every entry point is a pure function of its inputs.
package lint

import (
	"errors"
	"fmt"
	"path"

	"github.com/dusk-indust/ldf/internal/coverage"
	"github.com/dusk-indust/ldf/internal/extract"
	"github.com/dusk-indust/ldf/internal/markdown"
	"github.com/dusk-indust/ldf/internal/spec"
	"github.com/dusk-indust/ldf/internal/taskgraph"
)

var (
	ErrNoDocuments    = errors.New("lint: no documents given")
	ErrUnknownDocType = errors.New("lint: unknown document type")
	ErrUnknownRule    = errors.New("lint: unknown rule")
)

// Document is one scanned and extracted document.
type Document struct {
	Type  spec.DocType
	Scan  *markdown.Document
	Model extract.Model
}

// Analysis is the parsed form of a spec: every present document plus the
// derived task graph and guardrail coverage.
type Analysis struct {
	Spec string
	Docs map[spec.DocType]*Document
	// Graph is built from tasks.md, nil when the document is absent.
	Graph *taskgraph.Graph
	// Coverage is computed from requirements.md when it has a coverage
	// matrix, nil otherwise.
	Coverage   *coverage.Report
	Guardrails []spec.GuardrailDefinition
	// Whole is set when the analysis covers a full spec, enabling
	// missing-document and cross-document checks.
	Whole bool
}

// Doc returns the document of the given type, or nil.
func (a *Analysis) Doc(t spec.DocType) *Document {
	return a.Docs[t]
}

// Analyze scans and extracts each document and derives the task graph and
// coverage report.
func Analyze(name string, docs map[spec.DocType]string, guardrails []spec.GuardrailDefinition) (*Analysis, error) {
	a := &Analysis{
		Spec:       name,
		Docs:       make(map[spec.DocType]*Document, len(docs)),
		Guardrails: guardrails,
	}
	for _, t := range sortedTypes(docs) {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrUnknownDocType, t)
		}
		scan := markdown.Scan(docs[t])
		a.Docs[t] = &Document{Type: t, Scan: scan, Model: extract.Extract(scan)}
	}

	if d := a.Docs[spec.DocTasks]; d != nil {
		a.Graph = taskgraph.Build(d.Model.Tasks)
	}
	if d := a.Docs[spec.DocRequirements]; d != nil && d.Model.Matrix != nil {
		a.Coverage = coverage.Analyze(d.Model.Rows, guardrails)
	}
	return a, nil
}

// sortedTypes returns the keys of docs, known types first in canonical order.
func sortedTypes(docs map[spec.DocType]string) []spec.DocType {
	out := make([]spec.DocType, 0, len(docs))
	for _, t := range spec.DocTypes {
		if _, ok := docs[t]; ok {
			out = append(out, t)
		}
	}
	for t := range docs {
		if !t.Valid() {
			out = append(out, t)
		}
	}
	return out
}

// LintDocument lints a single document on its own. Cross-document checks and
// missing-document findings are not produced.
func LintDocument(docType spec.DocType, text string, cfg spec.LintConfig) (*spec.LintReport, error) {
	if !docType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDocType, docType)
	}
	a, err := Analyze("", map[spec.DocType]string{docType: text}, cfg.Guardrails)
	if err != nil {
		return nil, err
	}
	return Run(a, cfg)
}

// LintSpec lints the documents of one spec together. A document absent from
// docs is reported as missing; an empty docs map is a caller error.
func LintSpec(name string, docs map[spec.DocType]string, cfg spec.LintConfig) (*spec.LintReport, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w for spec %q", ErrNoDocuments, name)
	}
	if name != "" {
		if err := spec.ValidateName(name); err != nil {
			return nil, err
		}
	}
	a, err := Analyze(name, docs, cfg.Guardrails)
	if err != nil {
		return nil, err
	}
	a.Whole = true
	return Run(a, cfg)
}

// Run applies the configured rules to an analysis and builds the report.
func Run(a *Analysis, cfg spec.LintConfig) (*spec.LintReport, error) {
	rules, err := Select(cfg.Rules)
	if err != nil {
		return nil, err
	}

	var findings []spec.Finding
	for _, r := range rules {
		if !r.Applies(a) {
			continue
		}
		for _, f := range r.Run(a) {
			f.Rule = r.ID()
			f.Spec = a.Spec
			if Ignored(f, cfg.IgnorePatterns) {
				continue
			}
			findings = append(findings, f)
		}
	}
	return spec.NewReport(findings, cfg.Strict), nil
}

// Ignored reports whether any pattern matches the finding's kind, rule, spec
// name or "<spec>/<doc>.md" path. Patterns use path.Match syntax; an invalid
// pattern matches nothing.
func Ignored(f spec.Finding, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	candidates := []string{string(f.Kind), f.Rule}
	if f.Spec != "" {
		candidates = append(candidates, f.Spec)
	}
	if f.Location.Doc != "" {
		file := f.Location.Doc.FileName()
		candidates = append(candidates, file)
		if f.Spec != "" {
			candidates = append(candidates, f.Spec+"/"+file)
		}
	}
	for _, p := range patterns {
		for _, c := range candidates {
			if ok, err := path.Match(p, c); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// SpecIgnored reports whether a pattern excludes the whole spec.
func SpecIgnored(name string, patterns []string) bool {
	for _, p := range patterns {
		if ok, err := path.Match(p, name); err == nil && ok {
			return true
		}
	}
	return false
}
