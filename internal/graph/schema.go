package graph

// --- Enums ---

// NodeKind classifies nodes in the task index.
type NodeKind string

const (
	NodeKindSpec NodeKind = "spec"
	NodeKindTask NodeKind = "task"
)

// EdgeKind classifies relationships between nodes.
type EdgeKind string

const (
	// EdgeKindDependsOn links a task to a task it depends on.
	EdgeKindDependsOn EdgeKind = "DEPENDS_ON"
	// EdgeKindBelongs links a task to its spec.
	EdgeKindBelongs EdgeKind = "BELONGS_TO"
)

// --- Models ---

// SpecNode is one spec in the index.
type SpecNode struct {
	Name  string `json:"name"`
	Stage string `json:"stage,omitempty"`
}

// TaskNode is one task. ID is "<spec>/<task id>", unique across specs.
type TaskNode struct {
	ID     string `json:"id"`
	Spec   string `json:"spec"`
	TaskID string `json:"taskId"`
	Title  string `json:"title"`
	Status string `json:"status"`
	Phase  string `json:"phase,omitempty"`
	Line   int    `json:"line"`
}

// Edge is a relationship between two nodes.
type Edge struct {
	SourceID string   `json:"sourceId"`
	TargetID string   `json:"targetId"`
	Kind     EdgeKind `json:"kind"`
}

// GraphStats summarizes the index.
type GraphStats struct {
	SpecCount int `json:"specCount"`
	TaskCount int `json:"taskCount"`
	EdgeCount int `json:"edgeCount"`
}

// DependencyChain is an ordered sequence of task ids forming a dependency path.
type DependencyChain struct {
	Nodes []string `json:"nodes"`
	Depth int      `json:"depth"`
}

// ImpactResult lists the tasks affected by a change to a set of tasks.
type ImpactResult struct {
	DirectlyAffected     []string `json:"directlyAffected"`     // tasks that depend on a changed task
	TransitivelyAffected []string `json:"transitivelyAffected"` // full dependent closure
	RiskScore            float64  `json:"riskScore"`            // share of indexed tasks affected, 0.0-1.0
}

// TaskKey builds the index id of a task.
func TaskKey(spec, taskID string) string {
	return spec + "/" + taskID
}
