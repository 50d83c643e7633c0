package extract

import (
	"regexp"
	"strings"

	"github.com/dusk-indust/ldf/internal/markdown"
	"github.com/dusk-indust/ldf/internal/spec"
)

// Declaration is a recognized task declaration line.
type Declaration struct {
	ID      string
	Title   string
	Format  spec.TaskFormat
	Checked bool
	Line    int
}

// TaskRecognizer is one task declaration syntax. Each strategy decides for
// itself whether a line declares a task and how far that task's section runs.
type TaskRecognizer interface {
	Format() spec.TaskFormat
	// Match parses line n as a declaration in this syntax.
	Match(doc *markdown.Document, n int) (Declaration, bool)
	// Malformed reports a line written in this syntax whose id is not valid.
	Malformed(doc *markdown.Document, n int) (string, bool)
	// Section returns the scanner bounds of the declaration on line n.
	Section(doc *markdown.Document, n int) markdown.Section
}

var (
	headingTaskRe     = regexp.MustCompile(`^ {0,3}#{1,3}[ \t]+\*{0,2}(?:[Tt]ask[ \t]+)?(\d+\.\d+(?:\.\d+)?)\*{0,2}:\*{0,2}[ \t]*(.*?)[ \t]*$`)
	headingBadTaskRe  = regexp.MustCompile(`^ {0,3}#{1,3}[ \t]+\*{0,2}[Tt]ask[ \t]+([^\s:*]+)\*{0,2}:`)
	checklistTaskRe   = regexp.MustCompile(`^[ \t]*[-*+][ \t]+\[([ xX])\][ \t]+\*{0,2}[Tt]ask[ \t]+(\d+\.\d+(?:\.\d+)?)\*{0,2}:\*{0,2}[ \t]*(.*?)[ \t]*$`)
	checklistBadRe    = regexp.MustCompile(`^[ \t]*[-*+][ \t]+\[[ xX]\][ \t]+\*{0,2}[Tt]ask[ \t]+([^\s:*]+)\*{0,2}:`)
	dependenciesRe    = regexp.MustCompile(`(?i)^[ \t]*(?:[-*+][ \t]+)?\*{0,2}(?:dependencies\*{0,2}[ \t]*:|depends on\*{0,2}[ \t]*:?)\*{0,2}[ \t]*(.*)$`)
	dependencySplitRe = regexp.MustCompile(`(?i)[ \t]*(?:,|;|&|\band\b)[ \t]*`)
)

// HeadingTasks recognizes "### Task 1.1: Title" and "### 1.1: Title".
type HeadingTasks struct{}

func (HeadingTasks) Format() spec.TaskFormat { return spec.TaskFormatHeading }

func (HeadingTasks) Match(doc *markdown.Document, n int) (Declaration, bool) {
	if _, ok := doc.HeadingAt(n); !ok {
		return Declaration{}, false
	}
	m := headingTaskRe.FindStringSubmatch(doc.Line(n))
	if m == nil {
		return Declaration{}, false
	}
	return Declaration{ID: m[1], Title: stripEmphasis(m[2]), Format: spec.TaskFormatHeading, Line: n}, true
}

func (HeadingTasks) Malformed(doc *markdown.Document, n int) (string, bool) {
	if _, ok := doc.HeadingAt(n); !ok {
		return "", false
	}
	m := headingBadTaskRe.FindStringSubmatch(doc.Line(n))
	if m == nil {
		return "", false
	}
	return m[1], true
}

func (HeadingTasks) Section(doc *markdown.Document, n int) markdown.Section {
	sec, _ := doc.HeadingAt(n)
	return sec
}

// ChecklistTasks recognizes "- [ ] Task 1.1: Title" and its bold variants.
// The "Task" keyword is required so ordinary checklist items never match.
type ChecklistTasks struct{}

func (ChecklistTasks) Format() spec.TaskFormat { return spec.TaskFormatChecklist }

func (ChecklistTasks) Match(doc *markdown.Document, n int) (Declaration, bool) {
	if doc.InCode(n) {
		return Declaration{}, false
	}
	m := checklistTaskRe.FindStringSubmatch(doc.Line(n))
	if m == nil {
		return Declaration{}, false
	}
	return Declaration{
		ID:      m[2],
		Title:   stripEmphasis(m[3]),
		Format:  spec.TaskFormatChecklist,
		Checked: m[1] != " ",
		Line:    n,
	}, true
}

func (ChecklistTasks) Malformed(doc *markdown.Document, n int) (string, bool) {
	if doc.InCode(n) {
		return "", false
	}
	m := checklistBadRe.FindStringSubmatch(doc.Line(n))
	if m == nil {
		return "", false
	}
	return m[1], true
}

func (ChecklistTasks) Section(doc *markdown.Document, n int) markdown.Section {
	sec, _ := doc.ListItem(n)
	return sec
}

// TaskExtractor finds task declarations with a set of strategies, selected per
// line by whichever pattern matches, and fills in each task's own section.
type TaskExtractor struct {
	Strategies []TaskRecognizer
}

// NewTaskExtractor returns an extractor for both supported syntaxes.
func NewTaskExtractor() TaskExtractor {
	return TaskExtractor{Strategies: []TaskRecognizer{HeadingTasks{}, ChecklistTasks{}}}
}

func (TaskExtractor) Name() string { return "tasks" }

type declared struct {
	decl  Declaration
	start int
	end   int
}

func (e TaskExtractor) Recognize(doc *markdown.Document) Model {
	var m Model
	var decls []declared
	for n := 1; n <= doc.LineCount(); n++ {
		if doc.InCode(n) {
			continue
		}
		matched := false
		for _, s := range e.Strategies {
			if d, ok := s.Match(doc, n); ok {
				sec := s.Section(doc, n)
				decls = append(decls, declared{decl: d, start: n, end: max(sec.End, n)})
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		for _, s := range e.Strategies {
			if tok, ok := s.Malformed(doc, n); ok {
				m.MalformedTasks = append(m.MalformedTasks, MalformedTask{Token: tok, Line: n})
				break
			}
		}
	}

	// A section stops at the next declaration that is not one of its subtasks.
	for i := range decls {
		for j := i + 1; j < len(decls) && decls[j].start <= decls[i].end; j++ {
			if !isSubtask(decls[j].decl.ID, decls[i].decl.ID) {
				decls[i].end = decls[j].start - 1
				break
			}
		}
	}

	for i, d := range decls {
		task := spec.Task{
			ID:      d.decl.ID,
			Title:   d.decl.Title,
			Format:  d.decl.Format,
			Checked: d.decl.Checked,
			Phase:   phaseOf(doc, d.start, e.Strategies),
			Line:    d.start,
			EndLine: d.end,
		}
		for n := d.start + 1; n <= d.end; n++ {
			if doc.InCode(n) {
				continue
			}
			if skip := nestedEnd(decls, i, n); skip > 0 {
				n = skip
				continue
			}
			line := doc.Line(n)
			if cb := checkboxRe.FindStringSubmatch(line); cb != nil {
				task.Items = append(task.Items, spec.ChecklistItem{
					Text:    stripEmphasis(cb[2]),
					Checked: cb[1] != " ",
					Line:    n,
				})
				continue
			}
			if dm := dependenciesRe.FindStringSubmatch(line); dm != nil {
				task.Dependencies = append(task.Dependencies, SplitDependencies(dm[1])...)
			}
		}
		m.Tasks = append(m.Tasks, task)
	}
	return m
}

// nestedEnd returns the last line of a subtask of decls[i] declared on line n,
// or 0 when no subtask starts there.
func nestedEnd(decls []declared, i, n int) int {
	for j := i + 1; j < len(decls); j++ {
		if decls[j].start == n {
			return decls[j].end
		}
		if decls[j].start > n {
			break
		}
	}
	return 0
}

func isSubtask(child, parent string) bool {
	return strings.HasPrefix(child, parent+".")
}

// phaseOf returns the nearest enclosing heading that is not itself a task.
func phaseOf(doc *markdown.Document, n int, strategies []TaskRecognizer) string {
	for {
		enc, ok := doc.Enclosing(n)
		if !ok {
			return ""
		}
		isTask := false
		for _, s := range strategies {
			if _, ok := s.Match(doc, enc.Line); ok {
				isTask = true
				break
			}
		}
		if !isTask {
			return enc.Heading
		}
		n = enc.Line
	}
}

// SplitDependencies breaks a dependency list into raw references. "None",
// "N/A" and dashes mean no dependencies. Separators inside parentheses, as in
// "Task 1.1 (setup, config)", do not split.
func SplitDependencies(s string) []string {
	masked := []byte(s)
	depth := 0
	for i, c := range masked {
		switch {
		case c == '(':
			depth++
		case c == ')' && depth > 0:
			depth--
		case depth > 0:
			masked[i] = '_'
		}
	}

	var parts []string
	start := 0
	for _, loc := range dependencySplitRe.FindAllStringIndex(string(masked), -1) {
		parts = append(parts, s[start:loc[0]])
		start = loc[1]
	}
	parts = append(parts, s[start:])

	var out []string
	for _, part := range parts {
		ref := strings.TrimRight(stripEmphasis(part), ".")
		ref = strings.TrimSpace(ref)
		switch strings.ToLower(ref) {
		case "", "none", "n/a", "-", "—":
			continue
		}
		out = append(out, ref)
	}
	return out
}
