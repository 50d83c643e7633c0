// Package extract pulls structured entities out of scanned markdown: user
// stories, guardrail coverage matrix rows and task declarations.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dusk-indust/ldf/internal/markdown"
	"github.com/dusk-indust/ldf/internal/spec"
)

// MalformedTask is a line that declares a task with an id that is not two or
// three dot-separated numbers.
type MalformedTask struct {
	Token string
	Line  int
}

// Model is the entity model of one document.
type Model struct {
	Stories        []spec.UserStory
	Rows           []spec.CoverageRow
	Tasks          []spec.Task
	MalformedTasks []MalformedTask

	// Matrix is the guardrail coverage matrix section, nil when absent.
	Matrix *markdown.Section
	// Status is the value of the document's "Status:" line, empty when absent.
	Status string
	// Approved is set when the document is marked approved or done.
	Approved bool
}

// Recognizer extracts one kind of entity. Recognizers read the document and
// return a partial model; they never see each other's output.
type Recognizer interface {
	Name() string
	Recognize(doc *markdown.Document) Model
}

// DefaultRecognizers returns the built-in recognizers.
func DefaultRecognizers() []Recognizer {
	return []Recognizer{
		StoryRecognizer{},
		MatrixRecognizer{},
		NewTaskExtractor(),
		StatusRecognizer{},
	}
}

// Extract runs the default recognizers over doc.
func Extract(doc *markdown.Document) Model {
	return ExtractWith(doc, DefaultRecognizers()...)
}

// ExtractWith runs the given recognizers and merges their results. The merged
// model is sorted by line so the recognizer order does not matter.
func ExtractWith(doc *markdown.Document, recognizers ...Recognizer) Model {
	var m Model
	for _, r := range recognizers {
		m.merge(r.Recognize(doc))
	}
	sort.SliceStable(m.Stories, func(i, j int) bool { return m.Stories[i].Line < m.Stories[j].Line })
	sort.SliceStable(m.Rows, func(i, j int) bool { return m.Rows[i].Line < m.Rows[j].Line })
	sort.SliceStable(m.Tasks, func(i, j int) bool { return m.Tasks[i].Line < m.Tasks[j].Line })
	sort.SliceStable(m.MalformedTasks, func(i, j int) bool { return m.MalformedTasks[i].Line < m.MalformedTasks[j].Line })
	return m
}

func (m *Model) merge(o Model) {
	m.Stories = append(m.Stories, o.Stories...)
	m.Rows = append(m.Rows, o.Rows...)
	m.Tasks = append(m.Tasks, o.Tasks...)
	m.MalformedTasks = append(m.MalformedTasks, o.MalformedTasks...)
	if o.Matrix != nil && m.Matrix == nil {
		m.Matrix = o.Matrix
	}
	if o.Status != "" && m.Status == "" {
		m.Status = o.Status
	}
	m.Approved = m.Approved || o.Approved
}

var (
	statusLineRe   = regexp.MustCompile(`(?i)^[ \t]*(?:[-*][ \t]+)?\*{0,2}Status\*{0,2}[ \t]*:[ \t]*\*{0,2}[ \t]*([A-Za-z][A-Za-z _-]*)`)
	approvedBoxRe  = regexp.MustCompile(`(?i)\[x\][ \t]*(?:Requirements|Design|Tasks)[ \t]+approved`)
	approvedValues = map[string]bool{"approved": true, "done": true, "complete": true, "completed": true}
)

// StatusRecognizer reads the document-level "Status:" line and approval
// checkboxes. The status line must sit in the header block, before the first
// level-2 or deeper heading; per-task status lines further down are ignored.
type StatusRecognizer struct{}

func (StatusRecognizer) Name() string { return "status" }

func (StatusRecognizer) Recognize(doc *markdown.Document) Model {
	var m Model
	headerEnd := headerBlockEnd(doc)
	for n := 1; n <= doc.LineCount(); n++ {
		if doc.InCode(n) {
			continue
		}
		line := doc.Line(n)
		if m.Status == "" && n < headerEnd {
			if sm := statusLineRe.FindStringSubmatch(line); sm != nil {
				m.Status = strings.TrimSpace(sm[1])
				if approvedValues[strings.ToLower(m.Status)] {
					m.Approved = true
				}
			}
		}
		if approvedBoxRe.MatchString(line) {
			m.Approved = true
		}
	}
	return m
}

// headerBlockEnd returns the line of the first heading below the title, or
// one past the last line when there is none.
func headerBlockEnd(doc *markdown.Document) int {
	for _, sec := range doc.Sections() {
		if sec.Level >= 2 {
			return sec.Line
		}
	}
	return doc.LineCount() + 1
}

// stripEmphasis removes bold markers and backticks around a cell or token.
func stripEmphasis(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.Trim(s, "`")
	return strings.TrimSpace(s)
}
