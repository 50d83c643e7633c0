package mcptools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/ldf/internal/graph"
	"github.com/dusk-indust/ldf/internal/lint"
	"github.com/dusk-indust/ldf/internal/spec"
	"github.com/dusk-indust/ldf/internal/status"
)

// LintService answers MCP tool calls from the spec documents on disk. Every
// call re-reads the documents it needs, so answers track edits.
type LintService struct {
	specsDir string
	cfg      spec.LintConfig
	store    graph.Store
	logger   *slog.Logger

	// indexMu serializes re-indexing; DeleteSpec followed by inserts is not
	// atomic on either store.
	indexMu sync.Mutex
}

// NewLintService creates a LintService. A nil store means a fresh MemStore;
// a nil logger discards log output.
func NewLintService(specsDir string, cfg spec.LintConfig, store graph.Store, logger *slog.Logger) *LintService {
	if store == nil {
		store = graph.NewMemStore()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &LintService{specsDir: specsDir, cfg: cfg, store: store, logger: logger}
}

// load reads and analyzes one spec.
func (s *LintService) load(name string) (*lint.Analysis, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if err := spec.ValidateName(name); err != nil {
		return nil, err
	}
	src, err := spec.Load(s.specsDir, name)
	if err != nil {
		return nil, err
	}
	a, err := lint.Analyze(src.Name, src.Docs, s.cfg.Guardrails)
	if err != nil {
		return nil, fmt.Errorf("analyze %s: %w", name, err)
	}
	return a, nil
}

// refresh re-indexes one spec into the task store.
func (s *LintService) refresh(ctx context.Context, name string) (*lint.Analysis, error) {
	a, err := s.load(name)
	if err != nil {
		return nil, err
	}
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	if err := s.store.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	if err := graph.IndexSpec(ctx, s.store, name, string(status.Determine(a).Stage), a.Graph); err != nil {
		return nil, err
	}
	return a, nil
}

// LintSpec lints one spec, or every spec when no name is given.
func (s *LintService) LintSpec(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LintSpecInput,
) (*mcp.CallToolResult, LintSpecOutput, error) {
	cfg := s.cfg
	cfg.Strict = cfg.Strict || input.Strict
	if len(input.Rules) > 0 {
		cfg.Rules = input.Rules
	}

	var sources []spec.Source
	if input.Name == "" {
		all, err := spec.LoadAll(s.specsDir)
		if err != nil {
			return nil, LintSpecOutput{}, fmt.Errorf("load specs: %w", err)
		}
		sources = all
	} else {
		if err := spec.ValidateName(input.Name); err != nil {
			return nil, LintSpecOutput{}, err
		}
		src, err := spec.Load(s.specsDir, input.Name)
		if err != nil {
			return nil, LintSpecOutput{}, err
		}
		sources = []spec.Source{src}
	}

	pr, err := lint.LintProject(ctx, sources, cfg, lint.ProjectOptions{Logger: s.logger})
	if err != nil {
		return nil, LintSpecOutput{}, fmt.Errorf("lint: %w", err)
	}
	out := LintSpecOutput{Specs: make([]string, 0, len(pr.Specs)), Report: *pr.Report}
	for _, r := range pr.Specs {
		out.Specs = append(out.Specs, r.Spec)
	}
	s.logger.Debug("lint_spec", "specs", len(out.Specs), "errors", out.Report.ErrorCount, "warnings", out.Report.WarningCount)
	return nil, out, nil
}

// ListSpecs returns the lifecycle status of every spec.
func (s *LintService) ListSpecs(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListSpecsInput,
) (*mcp.CallToolResult, ListSpecsOutput, error) {
	all, err := status.List(s.specsDir)
	if err != nil {
		return nil, ListSpecsOutput{}, fmt.Errorf("list specs: %w", err)
	}
	if all == nil {
		all = []status.SpecStatus{}
	}
	return nil, ListSpecsOutput{Specs: all}, nil
}

// GetSpecStatus returns the lifecycle status of one spec.
func (s *LintService) GetSpecStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SpecInput,
) (*mcp.CallToolResult, GetSpecStatusOutput, error) {
	a, err := s.load(input.Name)
	if err != nil {
		return nil, GetSpecStatusOutput{}, err
	}
	return nil, GetSpecStatusOutput{Status: status.Determine(a)}, nil
}

// GetGuardrailCoverage reports the coverage verdict for every active guardrail.
func (s *LintService) GetGuardrailCoverage(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SpecInput,
) (*mcp.CallToolResult, GetGuardrailCoverageOutput, error) {
	a, err := s.load(input.Name)
	if err != nil {
		return nil, GetGuardrailCoverageOutput{}, err
	}
	out := GetGuardrailCoverageOutput{Spec: input.Name}
	if a.Coverage == nil {
		return nil, out, nil
	}
	out.HasMatrix = true
	out.Results = a.Coverage.Results
	out.Missing = a.Coverage.Missing()
	out.Counts = a.Coverage.Counts()
	return nil, out, nil
}

// ListTasks re-indexes a spec and returns its tasks in document order.
func (s *LintService) ListTasks(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListTasksInput,
) (*mcp.CallToolResult, ListTasksOutput, error) {
	a, err := s.refresh(ctx, input.Name)
	if err != nil {
		return nil, ListTasksOutput{}, err
	}
	tasks, err := s.store.TasksForSpec(ctx, input.Name)
	if err != nil {
		return nil, ListTasksOutput{}, fmt.Errorf("list tasks: %w", err)
	}

	out := ListTasksOutput{Tasks: []graph.TaskNode{}, Order: []string{}}
	ready := map[string]bool{}
	if a.Graph != nil {
		out.Order = a.Graph.TopologicalOrder()
		for _, t := range a.Graph.Ready() {
			ready[t.ID] = true
		}
	}
	want := strings.ToLower(strings.TrimSpace(input.Status))
	for _, t := range tasks {
		if want != "" && t.Status != want {
			continue
		}
		if input.Ready && !ready[t.TaskID] {
			continue
		}
		out.Tasks = append(out.Tasks, t)
	}
	out.Total = len(out.Tasks)
	return nil, out, nil
}

// GetTaskDependencies traverses the dependency graph from one task.
func (s *LintService) GetTaskDependencies(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetTaskDependenciesInput,
) (*mcp.CallToolResult, GetTaskDependenciesOutput, error) {
	if input.TaskID == "" {
		return nil, GetTaskDependenciesOutput{}, fmt.Errorf("taskId is required")
	}
	if _, err := s.refresh(ctx, input.Name); err != nil {
		return nil, GetTaskDependenciesOutput{}, err
	}

	key := graph.TaskKey(input.Name, input.TaskID)
	task, err := s.store.GetTask(ctx, key)
	if err != nil {
		return nil, GetTaskDependenciesOutput{}, fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		return nil, GetTaskDependenciesOutput{}, fmt.Errorf("task %s not found in spec %s", input.TaskID, input.Name)
	}

	direction := graph.DirectionUpstream
	if strings.EqualFold(input.Direction, "downstream") {
		direction = graph.DirectionDownstream
	}
	maxDepth := input.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 5
	}

	chains, err := s.store.GetDependencies(ctx, key, direction, maxDepth)
	if err != nil {
		return nil, GetTaskDependenciesOutput{}, fmt.Errorf("get dependencies: %w", err)
	}
	if chains == nil {
		chains = []graph.DependencyChain{}
	}
	impact, err := s.store.AssessImpact(ctx, []string{key})
	if err != nil {
		return nil, GetTaskDependenciesOutput{}, fmt.Errorf("assess impact: %w", err)
	}
	return nil, GetTaskDependenciesOutput{Task: *task, Chains: chains, Impact: *impact}, nil
}
