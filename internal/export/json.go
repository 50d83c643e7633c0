package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dusk-indust/ldf/internal/coverage"
	"github.com/dusk-indust/ldf/internal/lint"
	"github.com/dusk-indust/ldf/internal/spec"
	"github.com/dusk-indust/ldf/internal/status"
)

// SpecExport is the top-level JSON export structure.
type SpecExport struct {
	Name       string           `json:"name"`
	ExportedAt string           `json:"exportedAt"`
	Stage      status.Stage     `json:"stage"`
	Next       string           `json:"next,omitempty"`
	Documents  []status.DocInfo `json:"documents"`
	Stories    []spec.UserStory `json:"stories,omitempty"`
	Coverage   []CoverageExport `json:"coverage,omitempty"`
	Tasks      []TaskExport     `json:"tasks,omitempty"`
	// Order lists task ids with every task after its dependencies.
	Order  []string   `json:"order,omitempty"`
	Cycles [][]string `json:"cycles,omitempty"`
}

// CoverageExport is the verdict for one guardrail.
type CoverageExport struct {
	GuardrailID int              `json:"guardrailId"`
	Guardrail   string           `json:"guardrail"`
	Outcome     coverage.Outcome `json:"outcome"`
	Reason      coverage.Reason  `json:"reason,omitempty"`
	RowStatus   string           `json:"rowStatus,omitempty"`
	Line        int              `json:"line,omitempty"`
}

// TaskExport describes a single task.
type TaskExport struct {
	ID     string          `json:"id"`
	Phase  string          `json:"phase,omitempty"`
	Title  string          `json:"title"`
	Status spec.TaskStatus `json:"status"`
	// Dependencies holds the resolved ids; unresolved references are dropped.
	Dependencies []string `json:"dependencies,omitempty"`
	Items        int      `json:"items"`
	ItemsDone    int      `json:"itemsDone"`
	Line         int      `json:"line"`
}

// ExportSpec analyzes one spec and builds its export.
func ExportSpec(src spec.Source, guardrails []spec.GuardrailDefinition) (*SpecExport, error) {
	a, err := lint.Analyze(src.Name, src.Docs, guardrails)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", src.Name, err)
	}
	return ExportAnalysis(a), nil
}

// ExportAnalysis builds the export of an analyzed spec.
func ExportAnalysis(a *lint.Analysis) *SpecExport {
	st := status.Determine(a)
	out := &SpecExport{
		Name:       a.Spec,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Stage:      st.Stage,
		Next:       st.Next,
		Documents:  st.Docs,
	}

	if d := a.Doc(spec.DocRequirements); d != nil {
		out.Stories = d.Model.Stories
	}
	if a.Coverage != nil {
		for _, res := range a.Coverage.Results {
			ce := CoverageExport{
				GuardrailID: res.Guardrail.ID,
				Guardrail:   res.Guardrail.Name,
				Outcome:     res.Outcome,
				Reason:      res.Reason,
			}
			if res.Row != nil {
				ce.RowStatus = res.Row.RawStatus
				ce.Line = res.Row.Line
			}
			out.Coverage = append(out.Coverage, ce)
		}
	}
	if a.Graph != nil {
		for _, t := range a.Graph.Tasks() {
			te := TaskExport{
				ID:           t.ID,
				Phase:        t.Phase,
				Title:        t.Title,
				Status:       t.Status(),
				Dependencies: a.Graph.Dependencies(t.ID),
				Items:        len(t.Items),
				Line:         t.Line,
			}
			for _, it := range t.Items {
				if it.Checked {
					te.ItemsDone++
				}
			}
			out.Tasks = append(out.Tasks, te)
		}
		out.Order = a.Graph.TopologicalOrder()
		out.Cycles = a.Graph.Cycles
	}
	return out
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
