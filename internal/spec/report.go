package spec

import "sort"

// NewReport counts findings by severity and computes the overall result.
// A report passes when it has no error findings, or no findings at all when
// strict is set. The findings slice is sorted in place.
func NewReport(findings []Finding, strict bool) *LintReport {
	if findings == nil {
		findings = []Finding{}
	}
	SortFindings(findings)

	r := &LintReport{Findings: findings}
	for _, f := range findings {
		switch f.Severity {
		case SeverityError:
			r.ErrorCount++
		case SeverityWarning:
			r.WarningCount++
		default:
			r.InfoCount++
		}
	}
	if strict {
		r.Passed = len(findings) == 0
	} else {
		r.Passed = r.ErrorCount == 0
	}
	return r
}

// SortFindings orders findings by spec name, document, then line. The sort is
// stable so findings on the same line keep the order their rules emitted them.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Spec != b.Spec {
			return a.Spec < b.Spec
		}
		if oa, ob := a.Location.Doc.order(), b.Location.Doc.order(); oa != ob {
			return oa < ob
		}
		return a.Location.Line < b.Location.Line
	})
}

// BySeverity returns the findings with the given severity, in report order.
func (r *LintReport) BySeverity(sev Severity) []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == sev {
			out = append(out, f)
		}
	}
	return out
}

// Has reports whether the report contains at least one finding of kind.
func (r *LintReport) Has(kind FindingKind) bool {
	return r.Count(kind) > 0
}

// Count returns the number of findings of the given kind.
func (r *LintReport) Count(kind FindingKind) int {
	n := 0
	for _, f := range r.Findings {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

// ExitCode maps the report to the CLI convention: 0 when passed, 1 otherwise.
func (r *LintReport) ExitCode() int {
	if r.Passed {
		return 0
	}
	return 1
}
