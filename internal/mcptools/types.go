package mcptools

import (
	"github.com/dusk-indust/ldf/internal/coverage"
	"github.com/dusk-indust/ldf/internal/graph"
	"github.com/dusk-indust/ldf/internal/spec"
	"github.com/dusk-indust/ldf/internal/status"
)

// --- MCP Tool Input Types ---
// The MCP Go SDK generates each tool's JSON schema from these struct tags.

// LintSpecInput is the input for the lint_spec MCP tool.
type LintSpecInput struct {
	Name   string   `json:"name,omitempty" jsonschema:"spec name; empty lints every spec in the project"`
	Strict bool     `json:"strict,omitempty" jsonschema:"treat warnings as failures"`
	Rules  []string `json:"rules,omitempty" jsonschema:"run only these rule ids: sections, markers, markdown, stories, guardrails, tasks, references"`
}

// LintSpecOutput is the result of the lint_spec MCP tool.
type LintSpecOutput struct {
	Specs  []string        `json:"specs"`
	Report spec.LintReport `json:"report"`
}

// ListSpecsInput is the input for the list_specs MCP tool.
type ListSpecsInput struct{}

// ListSpecsOutput is the result of the list_specs MCP tool.
type ListSpecsOutput struct {
	Specs []status.SpecStatus `json:"specs"`
}

// SpecInput names one spec.
type SpecInput struct {
	Name string `json:"name" jsonschema:"spec name (directory under the specs dir)"`
}

// GetSpecStatusOutput is the result of the get_spec_status MCP tool.
type GetSpecStatusOutput struct {
	Status status.SpecStatus `json:"status"`
}

// GetGuardrailCoverageOutput is the result of the get_guardrail_coverage MCP tool.
type GetGuardrailCoverageOutput struct {
	Spec string `json:"spec"`
	// HasMatrix is false when requirements.md is absent or has no coverage
	// matrix section; the remaining fields are then empty.
	HasMatrix bool                       `json:"hasMatrix"`
	Results   []coverage.Result          `json:"results,omitempty"`
	Missing   []spec.GuardrailDefinition `json:"missing,omitempty"`
	Counts    map[coverage.Outcome]int   `json:"counts,omitempty"`
}

// ListTasksInput is the input for the list_tasks MCP tool.
type ListTasksInput struct {
	Name   string `json:"name" jsonschema:"spec name"`
	Status string `json:"status,omitempty" jsonschema:"filter by task status: pending, in_progress, complete"`
	Ready  bool   `json:"ready,omitempty" jsonschema:"only tasks whose dependencies are all complete"`
}

// ListTasksOutput is the result of the list_tasks MCP tool.
type ListTasksOutput struct {
	Tasks []graph.TaskNode `json:"tasks"`
	// Order is the full topological order of the spec's tasks.
	Order []string `json:"order"`
	Total int      `json:"total"`
}

// GetTaskDependenciesInput is the input for the get_task_dependencies MCP tool.
type GetTaskDependenciesInput struct {
	Name      string `json:"name" jsonschema:"spec name"`
	TaskID    string `json:"taskId" jsonschema:"task id such as 1.2"`
	Direction string `json:"direction,omitempty" jsonschema:"upstream (what it depends on) or downstream (what depends on it). Default: upstream"`
	MaxDepth  int    `json:"maxDepth,omitempty" jsonschema:"maximum traversal depth (default: 5)"`
}

// GetTaskDependenciesOutput is the result of the get_task_dependencies MCP tool.
type GetTaskDependenciesOutput struct {
	Task   graph.TaskNode          `json:"task"`
	Chains []graph.DependencyChain `json:"chains"`
	// Impact lists the tasks that depend on this one.
	Impact graph.ImpactResult `json:"impact"`
}
