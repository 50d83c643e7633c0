package graph

import (
	"context"
	"io"
)

// Store is the interface for the task index backend.
// Implementations: KuzuStore (persistent, cgo), MemStore (default and tests).
type Store interface {
	io.Closer

	// Schema setup, called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Write operations.
	AddSpec(ctx context.Context, node SpecNode) error
	AddTask(ctx context.Context, node TaskNode) error
	AddEdge(ctx context.Context, edge Edge) error
	// DeleteSpec removes a spec, its tasks and every edge touching them.
	DeleteSpec(ctx context.Context, name string) error

	// Read operations.
	GetTask(ctx context.Context, id string) (*TaskNode, error)
	ListSpecs(ctx context.Context) ([]SpecNode, error)
	TasksForSpec(ctx context.Context, spec string) ([]TaskNode, error)
	GetAllEdges(ctx context.Context) ([]Edge, error)

	// Graph traversal over DEPENDS_ON edges.
	GetDependencies(ctx context.Context, taskID string, direction Direction, maxDepth int) ([]DependencyChain, error)
	AssessImpact(ctx context.Context, changedTasks []string) (*ImpactResult, error)

	// Stats.
	Stats(ctx context.Context) (*GraphStats, error)
}

// Direction controls dependency traversal direction.
type Direction string

const (
	DirectionUpstream   Direction = "upstream"   // what does this task depend on?
	DirectionDownstream Direction = "downstream" // what depends on this task?
)
