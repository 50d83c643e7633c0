package graph

import (
	"context"
	"sort"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu    sync.RWMutex
	specs map[string]SpecNode
	tasks map[string]TaskNode
	edges []Edge
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		specs: make(map[string]SpecNode),
		tasks: make(map[string]TaskNode),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// AddSpec stores a spec node keyed by name.
func (m *MemStore) AddSpec(_ context.Context, node SpecNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.specs[node.Name] = node
	return nil
}

// AddTask stores a task node keyed by its index id.
func (m *MemStore) AddTask(_ context.Context, node TaskNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[node.ID] = node
	return nil
}

// AddEdge appends an edge to the internal slice.
func (m *MemStore) AddEdge(_ context.Context, edge Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges = append(m.edges, edge)
	return nil
}

// DeleteSpec drops a spec and everything attached to it.
func (m *MemStore) DeleteSpec(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.specs, name)
	gone := map[string]bool{name: true}
	for id, t := range m.tasks {
		if t.Spec == name {
			gone[id] = true
			delete(m.tasks, id)
		}
	}
	kept := m.edges[:0]
	for _, e := range m.edges {
		if !gone[e.SourceID] && !gone[e.TargetID] {
			kept = append(kept, e)
		}
	}
	m.edges = kept
	return nil
}

// GetTask returns the task with the given index id, or nil if not found.
func (m *MemStore) GetTask(_ context.Context, id string) (*TaskNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// ListSpecs returns every spec sorted by name.
func (m *MemStore) ListSpecs(_ context.Context) ([]SpecNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]SpecNode, 0, len(m.specs))
	for _, s := range m.specs {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// TasksForSpec returns the tasks of one spec in document order.
func (m *MemStore) TasksForSpec(_ context.Context, spec string) ([]TaskNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []TaskNode
	for _, t := range m.tasks {
		if t.Spec == spec {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetAllEdges returns a copy of all edges in insertion order.
func (m *MemStore) GetAllEdges(_ context.Context) ([]Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Edge, len(m.edges))
	copy(out, m.edges)
	return out, nil
}

// GetDependencies performs a BFS over DEPENDS_ON edges from taskID in the
// given direction, up to maxDepth hops. It returns one DependencyChain per
// reachable task.
func (m *MemStore) GetDependencies(_ context.Context, taskID string, direction Direction, maxDepth int) ([]DependencyChain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if maxDepth <= 0 {
		return nil, nil
	}

	type bfsEntry struct {
		id   string
		path []string
	}

	visited := map[string]bool{taskID: true}
	queue := []bfsEntry{{id: taskID, path: []string{taskID}}}
	var chains []DependencyChain

	for depth := 0; depth < maxDepth && len(queue) > 0; depth++ {
		var nextQueue []bfsEntry
		for _, entry := range queue {
			for _, nb := range m.neighbors(entry.id, direction) {
				if visited[nb] {
					continue
				}
				visited[nb] = true
				newPath := make([]string, len(entry.path), len(entry.path)+1)
				copy(newPath, entry.path)
				newPath = append(newPath, nb)
				chains = append(chains, DependencyChain{Nodes: newPath, Depth: len(newPath) - 1})
				nextQueue = append(nextQueue, bfsEntry{id: nb, path: newPath})
			}
		}
		queue = nextQueue
	}

	return chains, nil
}

// neighbors returns task ids one DEPENDS_ON hop from id.
func (m *MemStore) neighbors(id string, direction Direction) []string {
	var result []string
	for _, e := range m.edges {
		if e.Kind != EdgeKindDependsOn {
			continue
		}
		switch direction {
		case DirectionUpstream:
			// id depends on TargetID
			if e.SourceID == id {
				result = append(result, e.TargetID)
			}
		case DirectionDownstream:
			// SourceID depends on id
			if e.TargetID == id {
				result = append(result, e.SourceID)
			}
		}
	}
	return result
}

// AssessImpact lists the tasks that directly or transitively depend on any
// of the changed tasks.
func (m *MemStore) AssessImpact(_ context.Context, changedTasks []string) (*ImpactResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	changed := make(map[string]bool, len(changedTasks))
	for _, t := range changedTasks {
		changed[t] = true
	}

	direct := make(map[string]bool)
	for _, e := range m.edges {
		if e.Kind == EdgeKindDependsOn && changed[e.TargetID] && !changed[e.SourceID] {
			direct[e.SourceID] = true
		}
	}

	all := make(map[string]bool, len(direct))
	frontier := make(map[string]bool, len(direct))
	for k := range direct {
		all[k] = true
		frontier[k] = true
	}
	for len(frontier) > 0 {
		next := make(map[string]bool)
		for _, e := range m.edges {
			if e.Kind != EdgeKindDependsOn {
				continue
			}
			if frontier[e.TargetID] && !changed[e.SourceID] && !all[e.SourceID] {
				all[e.SourceID] = true
				next[e.SourceID] = true
			}
		}
		frontier = next
	}

	var risk float64
	if len(m.tasks) > 0 {
		risk = float64(len(all)) / float64(len(m.tasks))
	}
	return &ImpactResult{
		DirectlyAffected:     sortedKeys(direct),
		TransitivelyAffected: sortedKeys(all),
		RiskScore:            risk,
	}, nil
}

// Stats returns node and edge counts.
func (m *MemStore) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &GraphStats{
		SpecCount: len(m.specs),
		TaskCount: len(m.tasks),
		EdgeCount: len(m.edges),
	}, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}

// sortedKeys converts a string set to a sorted slice.
func sortedKeys(s map[string]bool) []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
