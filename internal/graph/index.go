package graph

import (
	"context"
	"fmt"

	"github.com/dusk-indust/ldf/internal/lint"
	"github.com/dusk-indust/ldf/internal/spec"
	"github.com/dusk-indust/ldf/internal/status"
	"github.com/dusk-indust/ldf/internal/taskgraph"
)

// IndexSpec replaces the stored copy of one spec with its tasks and their
// dependency edges. A nil task graph indexes the spec alone.
func IndexSpec(ctx context.Context, store Store, name, stage string, g *taskgraph.Graph) error {
	if err := store.DeleteSpec(ctx, name); err != nil {
		return fmt.Errorf("clear spec %s: %w", name, err)
	}
	if err := store.AddSpec(ctx, SpecNode{Name: name, Stage: stage}); err != nil {
		return fmt.Errorf("add spec %s: %w", name, err)
	}
	if g == nil {
		return nil
	}

	for _, t := range g.Tasks() {
		node := TaskNode{
			ID:     TaskKey(name, t.ID),
			Spec:   name,
			TaskID: t.ID,
			Title:  t.Title,
			Status: string(t.Status()),
			Phase:  t.Phase,
			Line:   t.Line,
		}
		if err := store.AddTask(ctx, node); err != nil {
			return fmt.Errorf("add task %s: %w", node.ID, err)
		}
		if err := store.AddEdge(ctx, Edge{SourceID: node.ID, TargetID: name, Kind: EdgeKindBelongs}); err != nil {
			return fmt.Errorf("link task %s: %w", node.ID, err)
		}
	}
	for _, e := range g.Edges() {
		edge := Edge{SourceID: TaskKey(name, e.From), TargetID: TaskKey(name, e.To), Kind: EdgeKindDependsOn}
		if err := store.AddEdge(ctx, edge); err != nil {
			return fmt.Errorf("add dependency %s -> %s: %w", edge.SourceID, edge.TargetID, err)
		}
	}
	return nil
}

// IndexSources analyzes each spec and indexes it. It returns the store stats
// after indexing.
func IndexSources(ctx context.Context, store Store, sources []spec.Source) (*GraphStats, error) {
	if err := store.InitSchema(ctx); err != nil {
		return nil, err
	}
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a, err := lint.Analyze(src.Name, src.Docs, nil)
		if err != nil {
			return nil, fmt.Errorf("analyze %s: %w", src.Name, err)
		}
		if err := IndexSpec(ctx, store, src.Name, string(status.Determine(a).Stage), a.Graph); err != nil {
			return nil, err
		}
	}
	return store.Stats(ctx)
}
