// Package coverage cross-references guardrail coverage matrix rows against the
// active guardrail set.
package coverage

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/dusk-indust/ldf/internal/extract"
	"github.com/dusk-indust/ldf/internal/spec"
)

// Outcome is the coverage verdict for one guardrail.
type Outcome string

const (
	Covered       Outcome = "covered"
	NotCovered    Outcome = "not_covered"
	NotApplicable Outcome = "not_applicable"
)

// Reason explains a not_covered outcome.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonMissingRow      Reason = "missing_row"
	ReasonPlaceholder     Reason = "placeholder_references"
	ReasonStatusTODO      Reason = "status_todo"
	ReasonStatusUnknown   Reason = "status_unknown"
	ReasonNAWithoutReason Reason = "na_without_reason"
)

// Result is the verdict for one enabled guardrail.
type Result struct {
	Guardrail spec.GuardrailDefinition `json:"guardrail"`
	Outcome   Outcome                  `json:"outcome"`
	Reason    Reason                   `json:"reason,omitempty"`
	Row       *spec.CoverageRow        `json:"row,omitempty"`
}

// Report is the outcome of Analyze.
type Report struct {
	Results  []Result       `json:"results"`
	Findings []spec.Finding `json:"-"`
	// Skipped is set when there was no guardrail to check against.
	Skipped bool `json:"skipped,omitempty"`
}

// Analyze matches rows to the enabled guardrails by id, or by exact name when
// a row carries no id, and classifies each guardrail. Results are ordered by
// guardrail id. Row findings point at requirements.md.
func Analyze(rows []spec.CoverageRow, guardrails []spec.GuardrailDefinition) *Report {
	r := &Report{}

	active := make([]spec.GuardrailDefinition, 0, len(guardrails))
	for _, g := range guardrails {
		if g.Enabled {
			active = append(active, g)
		}
	}
	if len(active) == 0 {
		r.Skipped = true
		r.addFinding(spec.KindRuleSkipped, spec.SeverityInfo, 0,
			"guardrail coverage not checked: the active guardrail set is empty")
		return r
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].ID < active[j].ID })

	byID := make(map[int]int, len(active))
	byName := make(map[string]int, len(active))
	for i, g := range active {
		byID[g.ID] = i
		byName[strings.ToLower(strings.TrimSpace(g.Name))] = i
	}

	matched := make(map[int]*spec.CoverageRow, len(active))
	for i := range rows {
		row := &rows[i]
		idx, ok := matchRow(row, byID, byName)
		if !ok {
			r.addFinding(spec.KindUnknownGuardrail, spec.SeverityInfo, row.Line,
				fmt.Sprintf("coverage row %q does not match an active guardrail", rowLabel(row)))
			continue
		}
		g := active[idx]
		if prev, dup := matched[idx]; dup {
			r.addFinding(spec.KindDuplicateID, spec.SeverityWarning, row.Line,
				fmt.Sprintf("guardrail %d (%s) already has a coverage row on line %d", g.ID, g.Name, prev.Line))
			continue
		}
		matched[idx] = row
		if row.GuardrailID != 0 && !namesAgree(row.GuardrailName, g.Name) {
			r.addFinding(spec.KindGuardrailNameMismatch, spec.SeverityWarning, row.Line,
				fmt.Sprintf("row names guardrail %d %q but guardrail %d is %q", row.GuardrailID, row.GuardrailName, g.ID, g.Name))
		}
	}

	for i, g := range active {
		res := classify(g, matched[i])
		r.Results = append(r.Results, res)
		r.reportResult(res)
	}
	sort.SliceStable(r.Findings, func(i, j int) bool { return r.Findings[i].Location.Line < r.Findings[j].Location.Line })
	return r
}

func matchRow(row *spec.CoverageRow, byID map[int]int, byName map[string]int) (int, bool) {
	if row.GuardrailID != 0 {
		idx, ok := byID[row.GuardrailID]
		return idx, ok
	}
	idx, ok := byName[strings.ToLower(strings.TrimSpace(row.GuardrailName))]
	return idx, ok
}

func classify(g spec.GuardrailDefinition, row *spec.CoverageRow) Result {
	res := Result{Guardrail: g, Row: row, Outcome: NotCovered}
	if row == nil {
		res.Reason = ReasonMissingRow
		return res
	}
	switch row.Status {
	case spec.CoverageNA:
		if strings.TrimSpace(row.Justification) == "" {
			res.Reason = ReasonNAWithoutReason
			return res
		}
		res.Outcome = NotApplicable
	case spec.CoverageDone, spec.CoverageInProgress:
		if extract.IsPlaceholder(row.Requirements) {
			res.Reason = ReasonPlaceholder
			return res
		}
		res.Outcome = Covered
	case spec.CoverageTODO:
		res.Reason = ReasonStatusTODO
	default:
		res.Reason = ReasonStatusUnknown
	}
	return res
}

func (r *Report) reportResult(res Result) {
	g := res.Guardrail
	label := fmt.Sprintf("guardrail %d (%s)", g.ID, g.Name)
	line := 0
	if res.Row != nil {
		line = res.Row.Line
	}

	switch res.Reason {
	case ReasonMissingRow:
		r.addFinding(spec.KindGuardrailNotCovered, spec.SeverityError, 0,
			label+" has no row in the coverage matrix")
	case ReasonNAWithoutReason:
		r.addFinding(spec.KindGuardrailNAWithoutReason, spec.SeverityWarning, line,
			label+" is marked N/A without a justification")
	case ReasonPlaceholder:
		r.addFinding(spec.KindGuardrailNotCovered, spec.SeverityWarning, line,
			fmt.Sprintf("%s is %s but its requirements reference is a placeholder", label, res.Row.Status))
	case ReasonStatusUnknown:
		r.addFinding(spec.KindGuardrailNotCovered, spec.SeverityWarning, line,
			fmt.Sprintf("%s has unrecognized status %q", label, res.Row.RawStatus))
	case ReasonStatusTODO:
		r.addFinding(spec.KindGuardrailNotCovered, spec.SeverityInfo, line,
			label+" is still TODO")
	}

	if res.Row != nil && res.Row.Status != spec.CoverageNA && extract.IsPlaceholder(res.Row.Owner) {
		r.addFinding(spec.KindMissingOwner, spec.SeverityWarning, line, label+" has no owner")
	}
}

func (r *Report) addFinding(kind spec.FindingKind, sev spec.Severity, line int, msg string) {
	r.Findings = append(r.Findings, spec.Finding{
		Kind:     kind,
		Severity: sev,
		Location: spec.Location{Doc: spec.DocRequirements, Line: line, Section: extract.MatrixHeading},
		Message:  msg,
	})
}

// Result returns the verdict for a guardrail id.
func (r *Report) Result(id int) (Result, bool) {
	for _, res := range r.Results {
		if res.Guardrail.ID == id {
			return res, true
		}
	}
	return Result{}, false
}

// Missing returns the guardrails whose outcome is not_covered.
func (r *Report) Missing() []spec.GuardrailDefinition {
	var out []spec.GuardrailDefinition
	for _, res := range r.Results {
		if res.Outcome == NotCovered {
			out = append(out, res.Guardrail)
		}
	}
	return out
}

// Counts returns how many guardrails fall in each outcome.
func (r *Report) Counts() map[Outcome]int {
	out := map[Outcome]int{Covered: 0, NotCovered: 0, NotApplicable: 0}
	for _, res := range r.Results {
		out[res.Outcome]++
	}
	return out
}

func rowLabel(row *spec.CoverageRow) string {
	if row.GuardrailID != 0 {
		return fmt.Sprintf("%d. %s", row.GuardrailID, row.GuardrailName)
	}
	return row.GuardrailName
}

// namesAgree accepts abbreviated row names such as "Testing" for
// "Testing Coverage".
func namesAgree(rowName, name string) bool {
	a, b := squash(rowName), squash(name)
	if a == "" {
		return true
	}
	return strings.Contains(b, a) || strings.Contains(a, b)
}

func squash(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
