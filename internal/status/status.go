// Package status derives where a spec is in its lifecycle from the documents
// that exist, their approval markers and the state of their tasks.
package status

import (
	"fmt"

	"github.com/dusk-indust/ldf/internal/lint"
	"github.com/dusk-indust/ldf/internal/spec"
)

// Stage is a point in the spec lifecycle. Stages are ordered.
type Stage string

const (
	NotStarted           Stage = "not_started"
	RequirementsDraft    Stage = "requirements_draft"
	RequirementsApproved Stage = "requirements_approved"
	DesignDraft          Stage = "design_draft"
	DesignApproved       Stage = "design_approved"
	TasksDraft           Stage = "tasks_draft"
	TasksApproved        Stage = "tasks_approved"
	InProgress           Stage = "in_progress"
	Complete             Stage = "complete"
)

// Stages lists every stage in lifecycle order.
var Stages = []Stage{
	NotStarted, RequirementsDraft, RequirementsApproved, DesignDraft, DesignApproved,
	TasksDraft, TasksApproved, InProgress, Complete,
}

// Index returns the position of s in Stages, or -1.
func (s Stage) Index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

var nextActions = map[Stage]string{
	NotStarted:           "write requirements.md",
	RequirementsDraft:    "review and approve requirements.md",
	RequirementsApproved: "write design.md",
	DesignDraft:          "review and approve design.md",
	DesignApproved:       "write tasks.md",
	TasksDraft:           "review and approve tasks.md",
	TasksApproved:        "start the first ready task",
	InProgress:           "finish the remaining tasks",
	Complete:             "",
}

// Next describes what moves a spec out of stage s, or "" when complete.
func (s Stage) Next() string {
	return nextActions[s]
}

// DocInfo describes one document of a spec.
type DocInfo struct {
	Doc      spec.DocType `json:"doc"`
	Present  bool         `json:"present"`
	Approved bool         `json:"approved"`
	// Status is the raw value of the document's "Status:" line.
	Status string `json:"status,omitempty"`
}

// TaskCounts tallies tasks by derived status.
type TaskCounts struct {
	Total      int `json:"total"`
	Complete   int `json:"complete"`
	InProgress int `json:"inProgress"`
	Pending    int `json:"pending"`
}

// SpecStatus is the lifecycle view of one spec.
type SpecStatus struct {
	Name    string     `json:"name"`
	Stage   Stage      `json:"stage"`
	Docs    []DocInfo  `json:"docs"`
	Stories int        `json:"stories"`
	Tasks   TaskCounts `json:"tasks"`
	Next    string     `json:"next,omitempty"`
}

// Determine computes the status of an analyzed spec.
func Determine(a *lint.Analysis) SpecStatus {
	st := SpecStatus{Name: a.Spec}
	docs := make(map[spec.DocType]DocInfo, len(spec.DocTypes))
	for _, t := range spec.DocTypes {
		info := DocInfo{Doc: t}
		if d := a.Doc(t); d != nil {
			info.Present = true
			info.Approved = d.Model.Approved
			info.Status = d.Model.Status
		}
		docs[t] = info
		st.Docs = append(st.Docs, info)
	}
	if d := a.Doc(spec.DocRequirements); d != nil {
		st.Stories = len(d.Model.Stories)
	}
	if a.Graph != nil {
		for _, t := range a.Graph.Tasks() {
			st.Tasks.Total++
			switch t.Status() {
			case spec.TaskComplete:
				st.Tasks.Complete++
			case spec.TaskInProgress:
				st.Tasks.InProgress++
			default:
				st.Tasks.Pending++
			}
		}
	}

	st.Stage = stageOf(docs, st.Tasks)
	st.Next = st.Stage.Next()
	return st
}

func stageOf(docs map[spec.DocType]DocInfo, tasks TaskCounts) Stage {
	req, design, tk := docs[spec.DocRequirements], docs[spec.DocDesign], docs[spec.DocTasks]
	switch {
	case !req.Present:
		return NotStarted
	case !req.Approved:
		return RequirementsDraft
	case !design.Present:
		return RequirementsApproved
	case !design.Approved:
		return DesignDraft
	case !tk.Present:
		return DesignApproved
	case !tk.Approved:
		return TasksDraft
	case tasks.Total > 0 && tasks.Complete == tasks.Total:
		return Complete
	case tasks.Complete > 0 || tasks.InProgress > 0:
		return InProgress
	default:
		return TasksApproved
	}
}

// Get loads and analyzes one spec from specsDir and returns its status.
func Get(specsDir, name string) (SpecStatus, error) {
	src, err := spec.Load(specsDir, name)
	if err != nil {
		return SpecStatus{}, err
	}
	return FromSource(src)
}

// FromSource returns the status of an already loaded spec.
func FromSource(src spec.Source) (SpecStatus, error) {
	a, err := lint.Analyze(src.Name, src.Docs, nil)
	if err != nil {
		return SpecStatus{}, fmt.Errorf("analyze %s: %w", src.Name, err)
	}
	return Determine(a), nil
}

// List returns the status of every spec under specsDir, sorted by name.
func List(specsDir string) ([]SpecStatus, error) {
	sources, err := spec.LoadAll(specsDir)
	if err != nil {
		return nil, err
	}
	out := make([]SpecStatus, 0, len(sources))
	for _, src := range sources {
		st, err := FromSource(src)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
