package spec

// --- Enums ---

// DocType identifies one of the three documents that make up a spec.
type DocType string

const (
	DocRequirements DocType = "requirements"
	DocDesign       DocType = "design"
	DocTasks        DocType = "tasks"
)

// DocTypes lists the document types in their canonical order. Every ordered
// iteration over documents uses this slice.
var DocTypes = []DocType{DocRequirements, DocDesign, DocTasks}

// FileName returns the markdown file name for the document type.
func (d DocType) FileName() string {
	return string(d) + ".md"
}

// Valid reports whether d is one of the known document types.
func (d DocType) Valid() bool {
	return d.order() < len(DocTypes)
}

// order returns the position of d in DocTypes, or len(DocTypes) when unknown.
func (d DocType) order() int {
	for i, t := range DocTypes {
		if t == d {
			return i
		}
	}
	return len(DocTypes)
}

// Severity ranks a lint finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// FindingKind classifies lint findings.
type FindingKind string

const (
	KindMissingSection              FindingKind = "missing_section"
	KindMissingDocument             FindingKind = "missing_document"
	KindInvalidSpecName             FindingKind = "invalid_spec_name"
	KindUnfilledTemplateMarker      FindingKind = "unfilled_template_marker"
	KindMalformedMarkdown           FindingKind = "malformed_markdown"
	KindGuardrailNotCovered         FindingKind = "guardrail_not_covered"
	KindGuardrailNAWithoutReason    FindingKind = "guardrail_na_without_reason"
	KindGuardrailNameMismatch       FindingKind = "guardrail_name_mismatch"
	KindUnknownGuardrail            FindingKind = "unknown_guardrail"
	KindMissingOwner                FindingKind = "missing_owner"
	KindMissingReference            FindingKind = "missing_reference"
	KindDanglingTaskDependency      FindingKind = "dangling_task_dependency"
	KindDependencyCycle             FindingKind = "dependency_cycle"
	KindDuplicateID                 FindingKind = "duplicate_id"
	KindMalformedTaskID             FindingKind = "malformed_task_id"
	KindTaskWithoutChecklist        FindingKind = "task_without_checklist"
	KindTaskStatusMismatch          FindingKind = "task_status_mismatch"
	KindAcceptanceCriterionMismatch FindingKind = "acceptance_criterion_mismatch"
	KindStoryWithoutCriteria        FindingKind = "story_without_criteria"
	KindDanglingReference           FindingKind = "dangling_reference"
	KindRuleSkipped                 FindingKind = "rule_skipped"
)

// GuardrailSeverity ranks how important a guardrail is.
type GuardrailSeverity string

const (
	GuardrailCritical GuardrailSeverity = "critical"
	GuardrailHigh     GuardrailSeverity = "high"
	GuardrailMedium   GuardrailSeverity = "medium"
	GuardrailLow      GuardrailSeverity = "low"
)

// Valid reports whether s is a known guardrail severity.
func (s GuardrailSeverity) Valid() bool {
	switch s {
	case GuardrailCritical, GuardrailHigh, GuardrailMedium, GuardrailLow:
		return true
	}
	return false
}

// Origin records where a guardrail definition came from.
type Origin string

const (
	OriginCore   Origin = "core"
	OriginPreset Origin = "preset"
	OriginCustom Origin = "custom"
)

// CoverageStatus is the status cell of a guardrail coverage matrix row.
type CoverageStatus string

const (
	CoverageTODO       CoverageStatus = "TODO"
	CoverageInProgress CoverageStatus = "IN_PROGRESS"
	CoverageDone       CoverageStatus = "DONE"
	CoverageNA         CoverageStatus = "N/A"
	// CoverageUnknown is used when the status cell matches none of the tokens.
	CoverageUnknown CoverageStatus = ""
)

// TaskStatus is derived from a task's checklist sub-items.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskComplete   TaskStatus = "complete"
)

// TaskFormat identifies which declaration syntax introduced a task.
type TaskFormat string

const (
	TaskFormatHeading   TaskFormat = "heading"
	TaskFormatChecklist TaskFormat = "checklist"
)

// --- Models ---

// AcceptanceCriterion is one checklist item under a user story.
type AcceptanceCriterion struct {
	ID      string `json:"id"` // "AC-1.2"; empty when the item carries no id
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
	Line    int    `json:"line"`
}

// UserStory is a "US-<n>" block extracted from requirements.md.
type UserStory struct {
	ID       string                `json:"id"` // "US-1"
	Number   int                   `json:"number"`
	Title    string                `json:"title"`
	Actor    string                `json:"actor,omitempty"`
	Action   string                `json:"action,omitempty"`
	Benefit  string                `json:"benefit,omitempty"`
	Criteria []AcceptanceCriterion `json:"acceptanceCriteria,omitempty"`
	Line     int                   `json:"line"`
}

// GuardrailDefinition is one entry of the active guardrail set.
type GuardrailDefinition struct {
	ID          int               `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description"`
	Severity    GuardrailSeverity `json:"severity" yaml:"severity"`
	Enabled     bool              `json:"enabled" yaml:"enabled"`
	Origin      Origin            `json:"origin" yaml:"-"`
}

// CoverageRow is one row of the guardrail coverage matrix.
type CoverageRow struct {
	GuardrailID   int            `json:"guardrailId"` // 0 when the first cell carries no number
	GuardrailName string         `json:"guardrailName"`
	Requirements  string         `json:"requirements"`
	Design        string         `json:"design"`
	Tasks         string         `json:"tasks"`
	Owner         string         `json:"owner"`
	Status        CoverageStatus `json:"status"`
	RawStatus     string         `json:"rawStatus"`
	// Justification is the reason attached to an N/A marker.
	Justification string `json:"justification,omitempty"`
	Line          int    `json:"line"`
}

// ChecklistItem is a checkbox line inside a task section.
type ChecklistItem struct {
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
	Line    int    `json:"line"`
}

// Task is a task declaration from tasks.md together with the content of its
// own section.
type Task struct {
	ID     string     `json:"id"` // "1.1" or "1.1.1"
	Title  string     `json:"title"`
	Format TaskFormat `json:"format"`
	// Checked is the state of the declaring checkbox for checklist-format tasks.
	Checked      bool            `json:"checked,omitempty"`
	Items        []ChecklistItem `json:"items,omitempty"`
	Dependencies []string        `json:"dependencies,omitempty"` // raw references as written
	Phase        string          `json:"phase,omitempty"`
	Line         int             `json:"line"`
	EndLine      int             `json:"endLine"`
}

// Status derives the task status from its sub-items: complete when every item
// is checked and there is at least one, pending when none exist or none are
// checked, in_progress otherwise.
func (t Task) Status() TaskStatus {
	if len(t.Items) == 0 {
		return TaskPending
	}
	checked := 0
	for _, it := range t.Items {
		if it.Checked {
			checked++
		}
	}
	switch checked {
	case 0:
		return TaskPending
	case len(t.Items):
		return TaskComplete
	default:
		return TaskInProgress
	}
}

// Location points at the place a finding was raised.
type Location struct {
	Doc     DocType `json:"doc,omitempty"`
	Line    int     `json:"line,omitempty"`
	Section string  `json:"section,omitempty"`
}

// Finding is a single validation outcome.
type Finding struct {
	Spec     string      `json:"spec,omitempty"`
	Rule     string      `json:"rule"`
	Kind     FindingKind `json:"kind"`
	Severity Severity    `json:"severity"`
	Location Location    `json:"location"`
	Message  string      `json:"message"`
}

// LintConfig is the resolved configuration handed to every lint entry point.
type LintConfig struct {
	Guardrails     []GuardrailDefinition `json:"guardrails"`
	Strict         bool                  `json:"strict"`
	IgnorePatterns []string              `json:"ignorePatterns,omitempty"`
	// Rules restricts linting to the named rule ids. Empty runs every rule.
	Rules []string `json:"rules,omitempty"`
}

// LintReport aggregates the findings for one spec or a whole project.
type LintReport struct {
	Findings     []Finding `json:"findings"`
	ErrorCount   int       `json:"errorCount"`
	WarningCount int       `json:"warningCount"`
	InfoCount    int       `json:"infoCount"`
	Passed       bool      `json:"passed"`
}
