package export

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/ldf/internal/coverage"
	"github.com/dusk-indust/ldf/internal/graph"
	"github.com/dusk-indust/ldf/internal/spec"
	"github.com/dusk-indust/ldf/internal/status"
)

const billingTasks = `# Tasks

## Phase 1

### Task 1.1: Schema
- [x] migration

### Task 1.2: "Repo" layer
**Dependencies:** Task 1.1, Task 9.9
- [x] queries
- [ ] tests
`

const billingRequirements = `# Requirements

**Status:** Approved

## User Stories

### US-1: Pay invoice
- [ ] AC-1.1: Card is charged

## Guardrail Coverage Matrix

| Guardrail | Requirements | Design | Tasks/Tests | Owner | Status |
|---|---|---|---|---|---|
| 1. Testing Coverage | US-1 | Design | 1.1 | Dev | DONE |
`

var testGuardrails = []spec.GuardrailDefinition{
	{ID: 1, Name: "Testing Coverage", Enabled: true},
	{ID: 2, Name: "Security Basics", Enabled: true},
}

func TestExportSpec(t *testing.T) {
	src := spec.Source{Name: "billing", Docs: map[spec.DocType]string{
		spec.DocRequirements: billingRequirements,
		spec.DocTasks:        billingTasks,
	}}

	exp, err := ExportSpec(src, testGuardrails)
	require.NoError(t, err)

	assert.Equal(t, "billing", exp.Name)
	assert.NotEmpty(t, exp.ExportedAt)
	assert.Equal(t, status.RequirementsApproved, exp.Stage, "design.md is absent")
	require.Len(t, exp.Documents, 3)
	assert.True(t, exp.Documents[0].Approved)

	require.Len(t, exp.Stories, 1)
	assert.Equal(t, "US-1", exp.Stories[0].ID)

	require.Len(t, exp.Coverage, 2)
	assert.Equal(t, coverage.Covered, exp.Coverage[0].Outcome)
	assert.Equal(t, "DONE", exp.Coverage[0].RowStatus)
	assert.Equal(t, coverage.NotCovered, exp.Coverage[1].Outcome)
	assert.Equal(t, coverage.ReasonMissingRow, exp.Coverage[1].Reason)
	assert.Zero(t, exp.Coverage[1].Line)

	require.Len(t, exp.Tasks, 2)
	assert.Equal(t, TaskExport{
		ID: "1.2", Phase: "Phase 1", Title: `"Repo" layer`, Status: spec.TaskInProgress,
		Dependencies: []string{"1.1"}, Items: 2, ItemsDone: 1, Line: exp.Tasks[1].Line,
	}, exp.Tasks[1])
	assert.Equal(t, spec.TaskComplete, exp.Tasks[0].Status)
	assert.Equal(t, []string{"1.1", "1.2"}, exp.Order)
	assert.Empty(t, exp.Cycles)
}

func TestExportSpec_UnknownDocType(t *testing.T) {
	_, err := ExportSpec(spec.Source{Name: "x", Docs: map[spec.DocType]string{"notes": "# Notes"}}, nil)
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	exp, err := ExportSpec(spec.Source{Name: "billing", Docs: map[spec.DocType]string{spec.DocTasks: billingTasks}}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, exp))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "billing", decoded["name"])
	assert.Equal(t, "not_started", decoded["stage"])
	assert.NotContains(t, decoded, "coverage")
	assert.Contains(t, buf.String(), "\n  \"name\"")
}

func indexed(t *testing.T, sources ...spec.Source) graph.Store {
	t.Helper()
	s := graph.NewMemStore()
	t.Cleanup(func() { _ = s.Close() })
	_, err := graph.IndexSources(context.Background(), s, sources)
	require.NoError(t, err)
	return s
}

func TestGenerateMermaid_SingleSpec(t *testing.T) {
	s := indexed(t, spec.Source{Name: "billing", Docs: map[spec.DocType]string{spec.DocTasks: billingTasks}})

	out, err := GenerateMermaid(context.Background(), s, "billing")
	require.NoError(t, err)

	want := "graph TD\n" +
		"  subgraph G0[\"Phase 1\"]\n" +
		"    N0[\"1.1 Schema\"]:::complete\n" +
		"    N1[\"1.2 #quot;Repo#quot; layer\"]:::in_progress\n" +
		"  end\n" +
		"  N0 --> N1\n" +
		"  classDef complete fill:#d4edda,stroke:#28a745\n" +
		"  classDef in_progress fill:#fff3cd,stroke:#ffc107\n" +
		"  classDef pending fill:#f8f9fa,stroke:#6c757d\n"
	assert.Equal(t, want, out)
}

func TestGenerateMermaid_AllSpecs(t *testing.T) {
	s := indexed(t,
		spec.Source{Name: "billing", Docs: map[spec.DocType]string{spec.DocTasks: billingTasks}},
		spec.Source{Name: "auth", Docs: map[spec.DocType]string{spec.DocTasks: "### Task 1.1: Login\n- [ ] form\n"}},
	)

	out, err := GenerateMermaid(context.Background(), s, "")
	require.NoError(t, err)

	assert.Contains(t, out, "  subgraph G0[\"billing: Phase 1\"]\n")
	assert.Contains(t, out, "  N0[\"1.1 Login\"]:::pending\n")
	assert.Contains(t, out, "  N1 --> N2\n")
	assert.NotContains(t, out, "N0 -->")
}

func TestGenerateMermaid_Empty(t *testing.T) {
	out, err := GenerateMermaid(context.Background(), graph.NewMemStore(), "")
	require.NoError(t, err)
	assert.Equal(t, "graph TD\n", out)
}
