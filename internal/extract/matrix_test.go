package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/ldf/internal/markdown"
	"github.com/dusk-indust/ldf/internal/spec"
)

func TestMatrix_Rows(t *testing.T) {
	doc := strings.Join([]string{
		"## Guardrail Coverage Matrix",
		"",
		"| Guardrail | Requirements | Design | Tasks/Tests | Owner | Status |",
		"|-----------|:------------:|--------|-------------|-------|--------|",
		"| **1. Testing Coverage** | [US-1] | [S1] | [T-1.1] | Dev | **DONE** |",
		"|2.Security Basics|US-2|S2|T-2.1|Sec|in progress|",
		"| 6. Data Validation | N/A | N/A | N/A | - | N/A - No input parameters |",
		"| Documentation | README | - | - | Docs | todo |",
		"| 7. Short | row |",
		"",
		"## Next",
		"| 9. Outside | a | b | c | d | DONE |",
	}, "\n")

	m := Extract(markdown.Scan(doc))
	require.NotNil(t, m.Matrix)
	assert.Equal(t, 1, m.Matrix.Line)
	require.Len(t, m.Rows, 4)

	assert.Equal(t, spec.CoverageRow{
		GuardrailID:   1,
		GuardrailName: "Testing Coverage",
		Requirements:  "[US-1]",
		Design:        "[S1]",
		Tasks:         "[T-1.1]",
		Owner:         "Dev",
		Status:        spec.CoverageDone,
		RawStatus:     "DONE",
		Line:          5,
	}, m.Rows[0])

	assert.Equal(t, 2, m.Rows[1].GuardrailID)
	assert.Equal(t, "Security Basics", m.Rows[1].GuardrailName)
	assert.Equal(t, spec.CoverageInProgress, m.Rows[1].Status)

	assert.Equal(t, spec.CoverageNA, m.Rows[2].Status)
	assert.Equal(t, "No input parameters", m.Rows[2].Justification)

	assert.Equal(t, 0, m.Rows[3].GuardrailID)
	assert.Equal(t, "Documentation", m.Rows[3].GuardrailName)
	assert.Equal(t, spec.CoverageTODO, m.Rows[3].Status)
}

func TestMatrix_Absent(t *testing.T) {
	m := Extract(markdown.Scan("# Requirements\n\n## Overview\n"))
	assert.Nil(t, m.Matrix)
	assert.Empty(t, m.Rows)
}

func TestMatrix_HeaderOnly(t *testing.T) {
	m := Extract(markdown.Scan("## Guardrail Coverage Matrix\n\n| Guardrail | R | D | T | O | S |\n|---|---|---|---|---|---|\n\nNo rows.\n"))
	require.NotNil(t, m.Matrix)
	assert.Empty(t, m.Rows)
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		cell   string
		status spec.CoverageStatus
		reason string
	}{
		{"DONE", spec.CoverageDone, ""},
		{"done", spec.CoverageDone, ""},
		{"IN_PROGRESS", spec.CoverageInProgress, ""},
		{"In-Progress", spec.CoverageInProgress, ""},
		{"TODO", spec.CoverageTODO, ""},
		{"N/A", spec.CoverageNA, ""},
		{"N/A - internal only", spec.CoverageNA, "internal only"},
		{"N/A: no database", spec.CoverageNA, "no database"},
		{"n/a (batch job)", spec.CoverageNA, "batch job"},
		{"blocked", spec.CoverageUnknown, ""},
		{"", spec.CoverageUnknown, ""},
	}
	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			status, reason := ParseStatus(tt.cell)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.reason, reason)
		})
	}
}

func TestMatrix_NAJustificationFromReferenceCell(t *testing.T) {
	doc := "## Guardrail Coverage Matrix\n| Guardrail | R | D | T | O | S |\n|---|---|---|---|---|---|\n" +
		"| 7. Database Migrations | N/A - no persistent storage | - | - | Dev | N/A |\n" +
		"| 6. Data Validation | | | | Dev | N/A |\n"
	m := Extract(markdown.Scan(doc))
	require.Len(t, m.Rows, 2)
	assert.Equal(t, "no persistent storage", m.Rows[0].Justification)
	assert.Empty(t, m.Rows[1].Justification)
}

func TestIsPlaceholder(t *testing.T) {
	for _, cell := range []string{"", "  ", "TBD", "tbd", "[TODO]", "-", "N/A"} {
		assert.True(t, IsPlaceholder(cell), cell)
	}
	for _, cell := range []string{"US-1", "[S1]", "Section 3.2"} {
		assert.False(t, IsPlaceholder(cell), cell)
	}
}
