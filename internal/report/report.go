// Package report renders lint reports for terminals, CI logs and machines.
package report

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dusk-indust/ldf/internal/spec"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatCI       Format = "ci"
	FormatJSON     Format = "json"
	FormatSARIF    Format = "sarif"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists every supported format.
var Formats = []Format{FormatText, FormatCI, FormatJSON, FormatSARIF, FormatMarkdown, FormatHTML}

var ErrUnknownFormat = errors.New("unknown report format")

// ParseFormat resolves a format name. An empty name means text.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatText, nil
	}
	for _, f := range Formats {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return "", fmt.Errorf("%w %q (choose %s)", ErrUnknownFormat, s, strings.Join(names, ", "))
}

// Result is what every formatter renders: the merged report plus the names of
// every linted spec, including those with no findings.
type Result struct {
	Specs  []string
	Report *spec.LintReport
	Strict bool
}

// NewResult builds a Result and fills in spec names that only appear in
// findings.
func NewResult(r *spec.LintReport, strict bool, specs ...string) Result {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, s := range specs {
		add(s)
	}
	for _, f := range r.Findings {
		add(f.Spec)
	}
	sort.Strings(names)
	return Result{Specs: names, Report: r, Strict: strict}
}

// Options carries settings shared by the formatters.
type Options struct {
	// SpecsDir prefixes document paths in SARIF output.
	SpecsDir string
	// Version is reported as the tool version in SARIF output.
	Version string
}

// Write renders res in the given format.
func Write(w io.Writer, format Format, res Result, opts Options) error {
	switch format {
	case FormatText, "":
		return WriteText(w, res)
	case FormatCI:
		return WriteCI(w, res)
	case FormatJSON:
		return WriteJSON(w, res.Report)
	case FormatSARIF:
		return WriteSARIF(w, res, opts)
	case FormatMarkdown:
		return WriteMarkdown(w, res)
	case FormatHTML:
		return WriteHTML(w, res)
	default:
		return fmt.Errorf("%w %q", ErrUnknownFormat, format)
	}
}

// specSummary is the per-spec tally used by the human-readable formats.
type specSummary struct {
	Name     string
	Findings []spec.Finding
	Errors   int
	Warnings int
	Infos    int
}

func (s specSummary) passed(strict bool) bool {
	if strict {
		return len(s.Findings) == 0
	}
	return s.Errors == 0
}

func summarize(res Result) []specSummary {
	index := make(map[string]int, len(res.Specs))
	out := make([]specSummary, 0, len(res.Specs))
	for _, name := range res.Specs {
		index[name] = len(out)
		out = append(out, specSummary{Name: name})
	}
	for _, f := range res.Report.Findings {
		i, ok := index[f.Spec]
		if !ok {
			index[f.Spec] = len(out)
			i = len(out)
			out = append(out, specSummary{Name: f.Spec})
		}
		s := &out[i]
		s.Findings = append(s.Findings, f)
		switch f.Severity {
		case spec.SeverityError:
			s.Errors++
		case spec.SeverityWarning:
			s.Warnings++
		default:
			s.Infos++
		}
	}
	return out
}

// location renders "requirements.md:12", "requirements.md" or "" for a finding.
func location(f spec.Finding) string {
	if f.Location.Doc == "" {
		return ""
	}
	if f.Location.Line > 0 {
		return fmt.Sprintf("%s:%d", f.Location.Doc.FileName(), f.Location.Line)
	}
	return f.Location.Doc.FileName()
}

func plural(n int, word string) string {
	if n == 1 || word == "info" {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
