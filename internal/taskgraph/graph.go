// Package taskgraph builds the dependency graph of the tasks in one tasks
// document and reports duplicate ids, dangling references and cycles.
package taskgraph

import (
	"container/heap"
	"fmt"
	"regexp"
	"strings"

	"github.com/dusk-indust/ldf/internal/spec"
)

// Edge is a resolved dependency: From depends on To.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	// Cycle is set on edges that take part in a reported cycle. Such edges are
	// kept for inspection but skipped by TopologicalOrder.
	Cycle bool `json:"cycle,omitempty"`
}

// Graph is the task dependency graph. It is immutable once built.
type Graph struct {
	tasks      []spec.Task // first occurrence of every id, in document order
	index      map[string]int
	deps       [][]int // deps[i] lists the tasks i depends on, in declaration order
	cycleEdges map[[2]int]bool

	// Cycles lists each detected cycle as the ids along it, each id once.
	Cycles [][]string
	// Findings holds the problems found while building, in document order.
	Findings []spec.Finding
}

var (
	idPrefixRe   = regexp.MustCompile(`^\d+\.\d+(?:\.\d+)?`)
	taskPrefixRe = regexp.MustCompile(`(?i)^tasks?[ \t#]*`)
)

// Build indexes tasks by id, resolves their dependencies and detects cycles.
// It never fails: problems are reported as findings and the graph stays usable.
func Build(tasks []spec.Task) *Graph {
	g := &Graph{index: make(map[string]int, len(tasks)), cycleEdges: make(map[[2]int]bool)}

	for _, t := range tasks {
		if first, dup := g.index[t.ID]; dup {
			g.addFinding(spec.KindDuplicateID, spec.SeverityWarning, t.Line,
				fmt.Sprintf("duplicate task id %s (first declared on line %d)", t.ID, g.tasks[first].Line))
			continue
		}
		g.index[t.ID] = len(g.tasks)
		g.tasks = append(g.tasks, t)
	}

	g.deps = make([][]int, len(g.tasks))
	for i, t := range g.tasks {
		seen := make(map[int]bool)
		for _, ref := range t.Dependencies {
			j, ok := g.resolve(ref)
			if !ok {
				g.addFinding(spec.KindDanglingTaskDependency, spec.SeverityError, t.Line,
					fmt.Sprintf("task %s depends on %q, which is not declared", t.ID, ref))
				continue
			}
			if !seen[j] {
				seen[j] = true
				g.deps[i] = append(g.deps[i], j)
			}
		}
	}

	g.detectCycles()
	return g
}

func (g *Graph) addFinding(kind spec.FindingKind, sev spec.Severity, line int, msg string) {
	g.Findings = append(g.Findings, spec.Finding{
		Kind:     kind,
		Severity: sev,
		Location: spec.Location{Doc: spec.DocTasks, Line: line},
		Message:  msg,
	})
}

// resolve maps a raw dependency reference to a task index: exact id first,
// then the id left after stripping a "Task" prefix, emphasis and whitespace.
func (g *Graph) resolve(ref string) (int, bool) {
	if i, ok := g.index[ref]; ok {
		return i, true
	}
	id := NormalizeRef(ref)
	if id == "" {
		return 0, false
	}
	i, ok := g.index[id]
	return i, ok
}

// NormalizeRef reduces a dependency reference such as "**Task 1.2** (schema)"
// or "Tasks 1.2" to the bare id "1.2". It returns "" when no id can be found.
func NormalizeRef(ref string) string {
	s := strings.NewReplacer("**", "", "`", "", "__", "").Replace(ref)
	s = taskPrefixRe.ReplaceAllString(strings.TrimSpace(s), "")
	return idPrefixRe.FindString(s)
}

const (
	white = 0
	gray  = 1
	black = 2
)

// detectCycles runs a tri-color DFS in document order. Every back edge yields
// one cycle finding.
func (g *Graph) detectCycles() {
	color := make([]int, len(g.tasks))
	parent := make([]int, len(g.tasks))
	for i := range parent {
		parent[i] = -1
	}

	var dfs func(u int)
	dfs = func(u int) {
		color[u] = gray
		for _, v := range g.deps[u] {
			switch color[v] {
			case white:
				parent[v] = u
				dfs(v)
			case gray:
				g.recordCycle(u, v, parent)
			}
		}
		color[u] = black
	}

	for i := range g.tasks {
		if color[i] == white {
			dfs(i)
		}
	}
}

// recordCycle turns the back edge u -> v into the path v -> ... -> u.
func (g *Graph) recordCycle(u, v int, parent []int) {
	var rev []int
	for cur := u; cur != -1 && cur != v; cur = parent[cur] {
		rev = append(rev, cur)
	}
	rev = append(rev, v)

	path := make([]int, len(rev))
	for i := range rev {
		path[i] = rev[len(rev)-1-i]
	}

	ids := make([]string, len(path))
	for i, idx := range path {
		ids[i] = g.tasks[idx].ID
		next := path[(i+1)%len(path)]
		g.cycleEdges[[2]int{idx, next}] = true
	}
	g.Cycles = append(g.Cycles, ids)

	msg := fmt.Sprintf("task dependency cycle: %s", strings.Join(ids, " -> "))
	if len(ids) == 1 {
		msg = fmt.Sprintf("task %s depends on itself", ids[0])
	}
	g.addFinding(spec.KindDependencyCycle, spec.SeverityError, g.tasks[v].Line, msg)
}

// Tasks returns the indexed tasks in document order.
func (g *Graph) Tasks() []spec.Task {
	out := make([]spec.Task, len(g.tasks))
	copy(out, g.tasks)
	return out
}

// Task returns the task with the given id.
func (g *Graph) Task(id string) (spec.Task, bool) {
	i, ok := g.index[id]
	if !ok {
		return spec.Task{}, false
	}
	return g.tasks[i], true
}

// Edges returns every resolved dependency edge in document order.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for i, ds := range g.deps {
		for _, j := range ds {
			out = append(out, Edge{From: g.tasks[i].ID, To: g.tasks[j].ID, Cycle: g.cycleEdges[[2]int{i, j}]})
		}
	}
	return out
}

// Dependencies returns the ids the task depends on.
func (g *Graph) Dependencies(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(g.deps[i]))
	for _, j := range g.deps[i] {
		out = append(out, g.tasks[j].ID)
	}
	return out
}

// Dependents returns the ids of tasks that depend on the task, in document order.
func (g *Graph) Dependents(id string) []string {
	target, ok := g.index[id]
	if !ok {
		return nil
	}
	var out []string
	for i, ds := range g.deps {
		for _, j := range ds {
			if j == target {
				out = append(out, g.tasks[i].ID)
				break
			}
		}
	}
	return out
}

// Ready returns the tasks that are not complete and whose dependencies are
// all complete, in document order.
func (g *Graph) Ready() []spec.Task {
	var out []spec.Task
	for i, t := range g.tasks {
		if t.Status() == spec.TaskComplete {
			continue
		}
		ready := true
		for _, j := range g.deps[i] {
			if g.tasks[j].Status() != spec.TaskComplete {
				ready = false
				break
			}
		}
		if ready {
			out = append(out, t)
		}
	}
	return out
}

type intMinHeap []int

func (h intMinHeap) Len() int           { return len(h) }
func (h intMinHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h intMinHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *intMinHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *intMinHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// TopologicalOrder lists task ids with every task after its dependencies.
// Cycle edges are ignored, so every task appears. Ties break on document order.
func (g *Graph) TopologicalOrder() []string {
	indeg := make([]int, len(g.tasks))
	dependents := make([][]int, len(g.tasks))
	for i, ds := range g.deps {
		for _, j := range ds {
			if g.cycleEdges[[2]int{i, j}] {
				continue
			}
			indeg[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	ready := &intMinHeap{}
	heap.Init(ready)
	for i := range indeg {
		if indeg[i] == 0 {
			heap.Push(ready, i)
		}
	}

	out := make([]string, 0, len(g.tasks))
	for ready.Len() > 0 {
		n := heap.Pop(ready).(int)
		out = append(out, g.tasks[n].ID)
		for _, m := range dependents[n] {
			indeg[m]--
			if indeg[m] == 0 {
				heap.Push(ready, m)
			}
		}
	}
	return out
}
