package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dusk-indust/ldf/internal/markdown"
	"github.com/dusk-indust/ldf/internal/spec"
)

// MatrixHeading is the heading text that introduces the coverage matrix.
const MatrixHeading = "Guardrail Coverage Matrix"

var (
	separatorRowRe = regexp.MustCompile(`^\|?[ \t]*:?-+:?[ \t]*(?:\|[ \t]*:?-+:?[ \t]*)*\|?$`)
	firstCellRe    = regexp.MustCompile(`^(\d+)(?:\.[ \t]*|[ \t]+)(.+)$`)
	naPrefixRe     = regexp.MustCompile(`(?i)^N/?A\b`)
	statusTokens   = map[string]spec.CoverageStatus{
		"DONE":        spec.CoverageDone,
		"TODO":        spec.CoverageTODO,
		"IN_PROGRESS": spec.CoverageInProgress,
		"N/A":         spec.CoverageNA,
	}
)

// MatrixRecognizer reads the pipe table under the "Guardrail Coverage Matrix"
// heading. Rows with fewer than six cells are skipped.
type MatrixRecognizer struct{}

func (MatrixRecognizer) Name() string { return "matrix" }

func (MatrixRecognizer) Recognize(doc *markdown.Document) Model {
	var m Model
	sec, ok := doc.FindHeading(func(text string) bool {
		return strings.Contains(strings.ToLower(text), strings.ToLower(MatrixHeading))
	})
	if !ok {
		return m
	}
	m.Matrix = &sec

	var table []int
	sepAt := -1
	for n := sec.Start; n <= sec.End; n++ {
		if doc.InCode(n) {
			continue
		}
		line := strings.TrimSpace(doc.Line(n))
		if !strings.HasPrefix(line, "|") {
			continue
		}
		if separatorRowRe.MatchString(line) {
			if sepAt < 0 {
				sepAt = len(table)
			}
			continue
		}
		table = append(table, n)
	}

	for i, n := range table {
		cells := splitRow(doc.Line(n))
		if sepAt > 0 && i < sepAt {
			continue // header rows
		}
		if sepAt < 0 && i == 0 && len(cells) > 0 && strings.Contains(strings.ToLower(cells[0]), "guardrail") {
			continue
		}
		if len(cells) < 6 {
			continue
		}
		m.Rows = append(m.Rows, parseRow(cells, n))
	}
	return m
}

// splitRow returns the trimmed, bold-stripped cells of a pipe table row.
func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = stripEmphasis(p)
	}
	return cells
}

func parseRow(cells []string, line int) spec.CoverageRow {
	row := spec.CoverageRow{
		GuardrailName: cells[0],
		Requirements:  cells[1],
		Design:        cells[2],
		Tasks:         cells[3],
		Owner:         cells[4],
		RawStatus:     cells[5],
		Line:          line,
	}
	if fm := firstCellRe.FindStringSubmatch(cells[0]); fm != nil {
		if id, err := strconv.Atoi(fm[1]); err == nil {
			row.GuardrailID = id
			row.GuardrailName = strings.TrimSpace(fm[2])
		}
	}

	status, rest := ParseStatus(cells[5])
	row.Status = status
	if status == spec.CoverageNA {
		row.Justification = rest
		if row.Justification == "" {
			row.Justification = fallbackJustification(row)
		}
	}
	return row
}

// ParseStatus matches the leading status token of a status cell, ignoring
// case and accepting spaces or hyphens for the underscore. For N/A it also
// returns the reason text attached to the marker.
func ParseStatus(cell string) (spec.CoverageStatus, string) {
	s := strings.TrimSpace(cell)
	if loc := naPrefixRe.FindStringIndex(s); loc != nil {
		return spec.CoverageNA, trimReason(s[loc[1]:])
	}
	word := strings.ToUpper(s)
	word = strings.NewReplacer(" ", "_", "-", "_").Replace(word)
	for token, status := range statusTokens {
		if word == token || strings.HasPrefix(word, token+"_") {
			return status, ""
		}
	}
	return spec.CoverageUnknown, ""
}

// trimReason strips separators between an N/A marker and its reason:
// "N/A - no API", "N/A: none", "N/A (internal only)".
func trimReason(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "-–—:")
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}

// fallbackJustification looks for a reason written in a reference cell when
// the status cell carries a bare N/A.
func fallbackJustification(row spec.CoverageRow) string {
	for _, cell := range []string{row.Requirements, row.Design, row.Tasks} {
		reason := cell
		if loc := naPrefixRe.FindStringIndex(reason); loc != nil {
			reason = trimReason(reason[loc[1]:])
		}
		if !IsPlaceholder(reason) {
			return reason
		}
	}
	return ""
}

// IsPlaceholder reports whether a reference cell carries no information.
func IsPlaceholder(cell string) bool {
	switch strings.ToUpper(strings.Trim(strings.TrimSpace(cell), "[]")) {
	case "", "TBD", "TODO", "-", "—", "N/A", "NA":
		return true
	}
	return false
}
