package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/ldf/internal/graph"
)

var statusClasses = []string{
	"  classDef complete fill:#d4edda,stroke:#28a745\n",
	"  classDef in_progress fill:#fff3cd,stroke:#ffc107\n",
	"  classDef pending fill:#f8f9fa,stroke:#6c757d\n",
}

// GenerateMermaid produces a Mermaid graph TD diagram of the indexed tasks.
// Tasks are grouped by phase; an arrow runs from a task to each task that
// depends on it. An empty specName includes every indexed spec.
func GenerateMermaid(ctx context.Context, store graph.Store, specName string) (string, error) {
	var names []string
	if specName != "" {
		names = []string{specName}
	} else {
		specs, err := store.ListSpecs(ctx)
		if err != nil {
			return "", fmt.Errorf("list specs: %w", err)
		}
		for _, s := range specs {
			names = append(names, s.Name)
		}
	}

	var tasks []graph.TaskNode
	for _, n := range names {
		ts, err := store.TasksForSpec(ctx, n)
		if err != nil {
			return "", fmt.Errorf("tasks for %s: %w", n, err)
		}
		tasks = append(tasks, ts...)
	}

	edges, err := store.GetAllEdges(ctx)
	if err != nil {
		return "", fmt.Errorf("get edges: %w", err)
	}

	// Mermaid node ids must be alphanumeric.
	nodeIDs := make(map[string]string, len(tasks))
	for i, t := range tasks {
		nodeIDs[t.ID] = fmt.Sprintf("N%d", i)
	}

	type group struct {
		label   string
		members []graph.TaskNode
	}
	var groups []*group
	byLabel := make(map[string]*group)
	var loose []graph.TaskNode
	for _, t := range tasks {
		if t.Phase == "" {
			loose = append(loose, t)
			continue
		}
		label := t.Phase
		if len(names) > 1 {
			label = t.Spec + ": " + t.Phase
		}
		g, ok := byLabel[label]
		if !ok {
			g = &group{label: label}
			byLabel[label] = g
			groups = append(groups, g)
		}
		g.members = append(g.members, t)
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")
	for i, g := range groups {
		sb.WriteString(fmt.Sprintf("  subgraph G%d[\"%.40s\"]\n", i, escapeLabel(g.label)))
		for _, t := range g.members {
			sb.WriteString("    " + nodeLine(nodeIDs[t.ID], t) + "\n")
		}
		sb.WriteString("  end\n")
	}
	for _, t := range loose {
		sb.WriteString("  " + nodeLine(nodeIDs[t.ID], t) + "\n")
	}

	for _, e := range edges {
		if e.Kind != graph.EdgeKindDependsOn {
			continue
		}
		dependent, okA := nodeIDs[e.SourceID]
		prereq, okB := nodeIDs[e.TargetID]
		if !okA || !okB {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s --> %s\n", prereq, dependent))
	}

	if len(tasks) > 0 {
		for _, c := range statusClasses {
			sb.WriteString(c)
		}
	}
	return sb.String(), nil
}

func nodeLine(id string, t graph.TaskNode) string {
	label := escapeLabel(t.TaskID + " " + t.Title)
	if t.Status == "" {
		return fmt.Sprintf("%s[\"%s\"]", id, label)
	}
	return fmt.Sprintf("%s[\"%s\"]:::%s", id, label, t.Status)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), `"`, "#quot;")
}
