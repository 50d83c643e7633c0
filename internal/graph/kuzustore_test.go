//go:build cgo

package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/ldf/internal/spec"
)

// newTestStore creates a fresh in-memory KuzuStore with an initialized schema.
func newTestStore(t *testing.T) *KuzuStore {
	t.Helper()
	s, err := NewKuzuStore()
	require.NoError(t, err, "NewKuzuStore should not fail")
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.InitSchema(context.Background()), "InitSchema should not fail")
	return s
}

func indexedKuzu(t *testing.T) *KuzuStore {
	t.Helper()
	s := newTestStore(t)
	_, err := IndexSources(context.Background(), s, []spec.Source{
		{Name: "billing", Docs: map[spec.DocType]string{spec.DocTasks: chainTasks}},
	})
	require.NoError(t, err)
	return s
}

func TestKuzuStore_InitSchemaIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.InitSchema(context.Background()))
}

func TestKuzuStore_SpecUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddSpec(ctx, SpecNode{Name: "auth", Stage: "requirements_draft"}))
	require.NoError(t, s.AddSpec(ctx, SpecNode{Name: "auth", Stage: "design_draft"}))

	specs, err := s.ListSpecs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []SpecNode{{Name: "auth", Stage: "design_draft"}}, specs)
}

func TestKuzuStore_Index(t *testing.T) {
	s := indexedKuzu(t)
	ctx := context.Background()

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &GraphStats{SpecCount: 1, TaskCount: 4, EdgeCount: 6}, stats)

	task, err := s.GetTask(ctx, "billing/1.1")
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, TaskNode{
		ID: "billing/1.1", Spec: "billing", TaskID: "1.1", Title: "Schema",
		Status: "complete", Phase: "Phase 1", Line: task.Line,
	}, *task)

	missing, err := s.GetTask(ctx, "billing/7.7")
	require.NoError(t, err)
	assert.Nil(t, missing)

	tasks, err := s.TasksForSpec(ctx, "billing")
	require.NoError(t, err)
	require.Len(t, tasks, 4)
	assert.Equal(t, "1.4", tasks[3].TaskID)

	edges, err := s.GetAllEdges(ctx)
	require.NoError(t, err)
	assert.Contains(t, edges, Edge{SourceID: "billing/1.3", TargetID: "billing/1.2", Kind: EdgeKindDependsOn})
	assert.Contains(t, edges, Edge{SourceID: "billing/1.4", TargetID: "billing", Kind: EdgeKindBelongs})
}

func TestKuzuStore_Dependencies(t *testing.T) {
	s := indexedKuzu(t)
	ctx := context.Background()

	up, err := s.GetDependencies(ctx, "billing/1.3", DirectionUpstream, 3)
	require.NoError(t, err)
	require.Len(t, up, 2)
	assert.Equal(t, []string{"billing/1.3", "billing/1.2", "billing/1.1"}, up[1].Nodes)

	down, err := s.GetDependencies(ctx, "billing/1.2", DirectionDownstream, 3)
	require.NoError(t, err)
	require.Len(t, down, 1)
	assert.Equal(t, 1, down[0].Depth)
}

func TestKuzuStore_AssessImpact(t *testing.T) {
	s := indexedKuzu(t)

	impact, err := s.AssessImpact(context.Background(), []string{"billing/1.1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"billing/1.2"}, impact.DirectlyAffected)
	assert.ElementsMatch(t, []string{"billing/1.2", "billing/1.3"}, impact.TransitivelyAffected)
	assert.InDelta(t, 0.5, impact.RiskScore, 1e-9)
}

func TestKuzuStore_DeleteSpec(t *testing.T) {
	s := indexedKuzu(t)
	ctx := context.Background()

	require.NoError(t, s.DeleteSpec(ctx, "billing"))
	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &GraphStats{}, stats)
}

func TestKuzuStore_UnknownEdgeKind(t *testing.T) {
	s := newTestStore(t)
	err := s.AddEdge(context.Background(), Edge{SourceID: "a", TargetID: "b", Kind: "CALLS"})
	assert.Error(t, err)
}
