//go:build cgo

package graph

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at
// dbPath, so the task index survives across sessions. KuzuDB creates the leaf
// directory itself.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Spec(
		name STRING,
		stage STRING,
		PRIMARY KEY(name)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Task(
		id STRING,
		spec STRING,
		task_id STRING,
		title STRING,
		status STRING,
		phase STRING,
		line INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS DEPENDS_ON(FROM Task TO Task)`,
	`CREATE REL TABLE IF NOT EXISTS BELONGS_TO(FROM Task TO Spec)`,
}

var relTables = []string{"DEPENDS_ON", "BELONGS_TO"}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// AddSpec inserts or updates a Spec node.
func (s *KuzuStore) AddSpec(_ context.Context, node SpecNode) error {
	return s.exec(
		`MERGE (s:Spec {name: $name})
		 ON CREATE SET s.stage = $stage
		 ON MATCH SET s.stage = $stage`,
		map[string]any{"name": node.Name, "stage": node.Stage},
	)
}

// AddTask inserts a Task node.
func (s *KuzuStore) AddTask(_ context.Context, node TaskNode) error {
	return s.exec(
		`CREATE (t:Task {
			id: $id,
			spec: $spec,
			task_id: $tid,
			title: $title,
			status: $status,
			phase: $phase,
			line: $line
		})`,
		map[string]any{
			"id":     node.ID,
			"spec":   node.Spec,
			"tid":    node.TaskID,
			"title":  node.Title,
			"status": node.Status,
			"phase":  node.Phase,
			"line":   int64(node.Line),
		},
	)
}

// AddEdge inserts a relationship. The Cypher statement is chosen by kind.
func (s *KuzuStore) AddEdge(_ context.Context, edge Edge) error {
	cypher, err := edgeCypher(edge.Kind)
	if err != nil {
		return err
	}
	return s.exec(cypher, map[string]any{
		"src": edge.SourceID,
		"dst": edge.TargetID,
	})
}

func edgeCypher(kind EdgeKind) (string, error) {
	switch kind {
	case EdgeKindDependsOn:
		return `MATCH (a:Task {id: $src}), (b:Task {id: $dst})
				CREATE (a)-[:DEPENDS_ON]->(b)`, nil
	case EdgeKindBelongs:
		return `MATCH (a:Task {id: $src}), (b:Spec {name: $dst})
				CREATE (a)-[:BELONGS_TO]->(b)`, nil
	default:
		return "", fmt.Errorf("kuzu: unsupported edge kind: %s", kind)
	}
}

// DeleteSpec removes a spec, its tasks and their relationships.
func (s *KuzuStore) DeleteSpec(_ context.Context, name string) error {
	if err := s.exec("MATCH (t:Task) WHERE t.spec = $name DETACH DELETE t", map[string]any{"name": name}); err != nil {
		return err
	}
	return s.exec("MATCH (s:Spec {name: $name}) DETACH DELETE s", map[string]any{"name": name})
}

// ---------- Read operations ----------

const taskColumns = "t.id, t.spec, t.task_id, t.title, t.status, t.phase, t.line"

// GetTask retrieves a Task node by index id, or nil if not found.
func (s *KuzuStore) GetTask(_ context.Context, id string) (*TaskNode, error) {
	rows, err := s.query("MATCH (t:Task {id: $id}) RETURN "+taskColumns, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	t := rowToTask(rows[0])
	return &t, nil
}

// ListSpecs returns all Spec nodes sorted by name.
func (s *KuzuStore) ListSpecs(_ context.Context) ([]SpecNode, error) {
	rows, err := s.query("MATCH (s:Spec) RETURN s.name, s.stage ORDER BY s.name", nil)
	if err != nil {
		return nil, err
	}
	out := make([]SpecNode, 0, len(rows))
	for _, r := range rows {
		out = append(out, SpecNode{Name: toString(r[0]), Stage: toString(r[1])})
	}
	return out, nil
}

// TasksForSpec returns the tasks of one spec in document order.
func (s *KuzuStore) TasksForSpec(_ context.Context, spec string) ([]TaskNode, error) {
	rows, err := s.query(
		"MATCH (t:Task) WHERE t.spec = $spec RETURN "+taskColumns+" ORDER BY t.line, t.id",
		map[string]any{"spec": spec},
	)
	if err != nil {
		return nil, err
	}
	out := make([]TaskNode, 0, len(rows))
	for _, r := range rows {
		out = append(out, rowToTask(r))
	}
	return out, nil
}

// GetAllEdges returns every relationship, DEPENDS_ON first.
func (s *KuzuStore) GetAllEdges(_ context.Context) ([]Edge, error) {
	queries := []struct {
		cypher string
		kind   EdgeKind
	}{
		{"MATCH (a:Task)-[:DEPENDS_ON]->(b:Task) RETURN a.id, b.id ORDER BY a.spec, a.line, b.id", EdgeKindDependsOn},
		{"MATCH (a:Task)-[:BELONGS_TO]->(b:Spec) RETURN a.id, b.name ORDER BY b.name, a.line", EdgeKindBelongs},
	}

	var edges []Edge
	for _, q := range queries {
		rows, err := s.query(q.cypher, nil)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			edges = append(edges, Edge{SourceID: toString(r[0]), TargetID: toString(r[1]), Kind: q.kind})
		}
	}
	return edges, nil
}

// ---------- Graph traversal ----------

// GetDependencies performs a BFS over DEPENDS_ON edges starting from taskID.
// It returns one DependencyChain per reachable task.
func (s *KuzuStore) GetDependencies(_ context.Context, taskID string, dir Direction, maxDepth int) ([]DependencyChain, error) {
	if maxDepth <= 0 {
		return nil, nil
	}

	type bfsEntry struct {
		path  []string
		depth int
	}
	visited := map[string]bool{taskID: true}
	queue := []bfsEntry{{path: []string{taskID}, depth: 0}}
	var chains []DependencyChain

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxDepth {
			continue
		}
		tip := cur.path[len(cur.path)-1]
		neighbors, err := s.taskNeighbors(tip, dir)
		if err != nil {
			return nil, err
		}
		for _, nb := range neighbors {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			newPath := make([]string, len(cur.path)+1)
			copy(newPath, cur.path)
			newPath[len(cur.path)] = nb
			chains = append(chains, DependencyChain{Nodes: newPath, Depth: cur.depth + 1})
			queue = append(queue, bfsEntry{path: newPath, depth: cur.depth + 1})
		}
	}
	return chains, nil
}

// taskNeighbors returns task ids one DEPENDS_ON hop away.
func (s *KuzuStore) taskNeighbors(id string, dir Direction) ([]string, error) {
	var cypher string
	switch dir {
	case DirectionUpstream:
		cypher = "MATCH (a:Task {id: $id})-[:DEPENDS_ON]->(b:Task) RETURN b.id ORDER BY b.line, b.id"
	case DirectionDownstream:
		cypher = "MATCH (a:Task)-[:DEPENDS_ON]->(b:Task {id: $id}) RETURN a.id ORDER BY a.line, a.id"
	default:
		return nil, fmt.Errorf("kuzu: unknown direction: %s", dir)
	}
	rows, err := s.query(cypher, map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, toString(r[0]))
	}
	return out, nil
}

// AssessImpact walks DEPENDS_ON edges downstream from each changed task.
func (s *KuzuStore) AssessImpact(ctx context.Context, changedTasks []string) (*ImpactResult, error) {
	total, err := s.countTable("Task")
	if err != nil {
		return nil, err
	}

	changed := make(map[string]bool, len(changedTasks))
	for _, t := range changedTasks {
		changed[t] = true
	}
	direct := map[string]bool{}
	transitive := map[string]bool{}

	for _, t := range changedTasks {
		chains, err := s.GetDependencies(ctx, t, DirectionDownstream, total)
		if err != nil {
			return nil, err
		}
		for _, c := range chains {
			last := c.Nodes[len(c.Nodes)-1]
			if changed[last] {
				continue
			}
			transitive[last] = true
			if c.Depth == 1 {
				direct[last] = true
			}
		}
	}

	risk := 0.0
	if total > 0 {
		risk = math.Min(1.0, float64(len(transitive))/float64(total))
	}
	return &ImpactResult{
		DirectlyAffected:     sortedKeys(direct),
		TransitivelyAffected: sortedKeys(transitive),
		RiskScore:            risk,
	}, nil
}

// ---------- Stats ----------

// Stats returns node and relationship counts.
func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	specs, err := s.countTable("Spec")
	if err != nil {
		return nil, err
	}
	tasks, err := s.countTable("Task")
	if err != nil {
		return nil, err
	}
	edges := 0
	for _, t := range relTables {
		rows, err := s.query(fmt.Sprintf("MATCH ()-[r:%s]->() RETURN count(r)", t), nil)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 && len(rows[0]) > 0 {
			edges += toInt(rows[0][0])
		}
	}
	return &GraphStats{SpecCount: specs, TaskCount: tasks, EdgeCount: edges}, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a Cypher statement and collects all result rows. Each row holds
// the values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// countTable returns the number of rows in a node table. The table name is
// an internal constant.
func (s *KuzuStore) countTable(table string) (int, error) {
	rows, err := s.query(fmt.Sprintf("MATCH (n:%s) RETURN count(n)", table), nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// rowToTask converts a taskColumns row into a TaskNode.
func rowToTask(r []any) TaskNode {
	return TaskNode{
		ID:     toString(r[0]),
		Spec:   toString(r[1]),
		TaskID: toString(r[2]),
		Title:  toString(r[3]),
		Status: toString(r[4]),
		Phase:  toString(r[5]),
		Line:   toInt(r[6]),
	}
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, string, ...).

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
