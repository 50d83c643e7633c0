package lint

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dusk-indust/ldf/internal/coverage"
	"github.com/dusk-indust/ldf/internal/extract"
	"github.com/dusk-indust/ldf/internal/spec"
)

// Rule is one validation check. Rules read the analysis and never modify it,
// so any subset can run in any order.
type Rule interface {
	ID() string
	Applies(a *Analysis) bool
	Run(a *Analysis) []spec.Finding
}

// Rule ids.
const (
	RuleSections   = "sections"
	RuleMarkers    = "markers"
	RuleMarkdown   = "markdown"
	RuleStories    = "stories"
	RuleGuardrails = "guardrails"
	RuleTasks      = "tasks"
	RuleReferences = "references"
)

// Rules returns the built-in rules in their reporting order.
func Rules() []Rule {
	return []Rule{
		sectionsRule{},
		markersRule{},
		markdownRule{},
		storiesRule{},
		guardrailsRule{},
		tasksRule{},
		referencesRule{},
	}
}

// RuleIDs lists the ids of the built-in rules.
func RuleIDs() []string {
	var ids []string
	for _, r := range Rules() {
		ids = append(ids, r.ID())
	}
	return ids
}

// Select returns the built-in rules named by ids, or all of them when ids is
// empty.
func Select(ids []string) ([]Rule, error) {
	all := Rules()
	if len(ids) == 0 {
		return all, nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[strings.TrimSpace(id)] = true
	}
	var out []Rule
	for _, r := range all {
		if want[r.ID()] {
			out = append(out, r)
			delete(want, r.ID())
		}
	}
	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for id := range want {
			unknown = append(unknown, id)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s (known: %s)", ErrUnknownRule, strings.Join(unknown, ", "), strings.Join(RuleIDs(), ", "))
	}
	return out, nil
}

func finding(doc spec.DocType, kind spec.FindingKind, sev spec.Severity, line int, section, msg string) spec.Finding {
	return spec.Finding{
		Kind:     kind,
		Severity: sev,
		Location: spec.Location{Doc: doc, Line: line, Section: section},
		Message:  msg,
	}
}

// --- sections ---

type requiredSection struct {
	name     string
	aliases  []string
	severity spec.Severity
	// satisfied, when set, can accept the document without a heading.
	satisfied func(d *Document) bool
}

var requiredSections = map[spec.DocType][]requiredSection{
	spec.DocRequirements: {
		{name: "Overview", aliases: []string{"overview"}, severity: spec.SeverityError},
		{name: "User Stories", aliases: []string{"user stories"}, severity: spec.SeverityError,
			satisfied: func(d *Document) bool { return len(d.Model.Stories) > 0 }},
		{name: "Question-Pack Answers", aliases: []string{"question-pack answers", "question pack answers"}, severity: spec.SeverityError},
		{name: extract.MatrixHeading, aliases: []string{strings.ToLower(extract.MatrixHeading)}, severity: spec.SeverityError},
	},
	spec.DocDesign: {
		{name: "Architecture", aliases: []string{"architecture", "components"}, severity: spec.SeverityError},
		{name: "Guardrail Mapping", aliases: []string{"guardrail mapping"}, severity: spec.SeverityWarning},
		{name: "API / Data Model", aliases: []string{"api", "data model", "schema", "interfaces"}, severity: spec.SeverityWarning},
	},
	spec.DocTasks: {
		{name: "Per-Task Guardrail Checklist", aliases: []string{"per-task guardrail checklist", "guardrail checklist"}, severity: spec.SeverityError},
	},
}

type sectionsRule struct{}

func (sectionsRule) ID() string             { return RuleSections }
func (sectionsRule) Applies(*Analysis) bool { return true }

func (sectionsRule) Run(a *Analysis) []spec.Finding {
	var out []spec.Finding
	for _, t := range spec.DocTypes {
		d := a.Doc(t)
		if d == nil {
			if a.Whole {
				out = append(out, finding(t, spec.KindMissingDocument, spec.SeverityError, 0, "",
					fmt.Sprintf("%s is missing", t.FileName())))
			}
			continue
		}
		for _, req := range requiredSections[t] {
			if hasSection(d, req) {
				continue
			}
			out = append(out, finding(t, spec.KindMissingSection, req.severity, 0, req.name,
				fmt.Sprintf("missing section %q", req.name)))
		}
		if t == spec.DocTasks && len(d.Model.Tasks) == 0 {
			out = append(out, finding(t, spec.KindMissingSection, spec.SeverityError, 0, "Tasks",
				"no task declarations found (expected \"### Task 1.1: Title\" or \"- [ ] Task 1.1: Title\")"))
		}
	}
	return out
}

func hasSection(d *Document, req requiredSection) bool {
	if req.satisfied != nil && req.satisfied(d) {
		return true
	}
	for _, sec := range d.Scan.Sections() {
		heading := strings.ToLower(sec.Heading)
		for _, alias := range req.aliases {
			if containsWord(heading, alias) {
				return true
			}
		}
	}
	return false
}

// containsWord matches alias in s at word boundaries, so "api" does not
// match "capital".
func containsWord(s, alias string) bool {
	for i := 0; ; {
		j := strings.Index(s[i:], alias)
		if j < 0 {
			return false
		}
		start, end := i+j, i+j+len(alias)
		if (start == 0 || !isWordByte(s[start-1])) && (end == len(s) || !isWordByte(s[end])) {
			return true
		}
		i = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// --- markers ---

var (
	markerRes = []*regexp.Regexp{
		regexp.MustCompile(`\[(?:TBD|TODO|PLACEHOLDER|FILL[ _-]?IN)(?:[:\] ][^\]]*)?\]`),
		regexp.MustCompile(`\bYOUR_[A-Z][A-Z0-9_]*\b`),
		regexp.MustCompile(`\{(?:feature-name|feature|spec-name|project-name|owner)\}`),
		regexp.MustCompile(`<(?:FEATURE|SPEC|PROJECT)[_-]NAME>`),
	}
	inlineCodeRe = regexp.MustCompile("`[^`]*`")
)

type markersRule struct{}

func (markersRule) ID() string             { return RuleMarkers }
func (markersRule) Applies(*Analysis) bool { return true }

func (markersRule) Run(a *Analysis) []spec.Finding {
	var out []spec.Finding
	for _, t := range spec.DocTypes {
		d := a.Doc(t)
		if d == nil {
			continue
		}
		sev := spec.SeverityWarning
		if d.Model.Approved {
			sev = spec.SeverityError
		}
		for n := 1; n <= d.Scan.LineCount(); n++ {
			if d.Scan.InCode(n) {
				continue
			}
			line := inlineCodeRe.ReplaceAllString(d.Scan.Line(n), "")
			for _, re := range markerRes {
				for _, m := range re.FindAllString(line, -1) {
					out = append(out, finding(t, spec.KindUnfilledTemplateMarker, sev, n, sectionAt(d, n),
						fmt.Sprintf("unfilled template marker %s", m)))
				}
			}
		}
	}
	return out
}

func sectionAt(d *Document, n int) string {
	if sec, ok := d.Scan.Enclosing(n); ok {
		return sec.Heading
	}
	return ""
}

// --- markdown ---

type markdownRule struct{}

func (markdownRule) ID() string             { return RuleMarkdown }
func (markdownRule) Applies(*Analysis) bool { return true }

func (markdownRule) Run(a *Analysis) []spec.Finding {
	var out []spec.Finding
	for _, t := range spec.DocTypes {
		d := a.Doc(t)
		if d == nil || d.Scan.UnterminatedFence == 0 {
			continue
		}
		out = append(out, finding(t, spec.KindMalformedMarkdown, spec.SeverityWarning, d.Scan.UnterminatedFence, "",
			"code fence is never closed; the rest of the document was read as plain text"))
	}
	return out
}

// --- stories ---

type storiesRule struct{}

func (storiesRule) ID() string { return RuleStories }

func (storiesRule) Applies(a *Analysis) bool { return a.Doc(spec.DocRequirements) != nil }

func (storiesRule) Run(a *Analysis) []spec.Finding {
	const doc = spec.DocRequirements
	var out []spec.Finding
	seenStory := make(map[string]int)
	seenAC := make(map[string]int)
	for _, s := range a.Doc(doc).Model.Stories {
		if first, dup := seenStory[s.ID]; dup {
			out = append(out, finding(doc, spec.KindDuplicateID, spec.SeverityWarning, s.Line, s.ID,
				fmt.Sprintf("duplicate story id %s (first declared on line %d)", s.ID, first)))
		} else {
			seenStory[s.ID] = s.Line
		}
		if len(s.Criteria) == 0 {
			out = append(out, finding(doc, spec.KindStoryWithoutCriteria, spec.SeverityWarning, s.Line, s.ID,
				fmt.Sprintf("%s has no acceptance criteria", s.ID)))
		}
		prefix := fmt.Sprintf("AC-%d.", s.Number)
		for _, ac := range s.Criteria {
			if ac.ID == "" {
				continue
			}
			if !strings.HasPrefix(ac.ID, prefix) {
				out = append(out, finding(doc, spec.KindAcceptanceCriterionMismatch, spec.SeverityWarning, ac.Line, s.ID,
					fmt.Sprintf("%s is listed under %s", ac.ID, s.ID)))
			}
			if first, dup := seenAC[ac.ID]; dup {
				out = append(out, finding(doc, spec.KindDuplicateID, spec.SeverityWarning, ac.Line, s.ID,
					fmt.Sprintf("duplicate acceptance criterion id %s (first declared on line %d)", ac.ID, first)))
			} else {
				seenAC[ac.ID] = ac.Line
			}
		}
	}
	return out
}

// --- guardrails ---

type guardrailsRule struct{}

func (guardrailsRule) ID() string { return RuleGuardrails }

func (guardrailsRule) Applies(a *Analysis) bool { return a.Doc(spec.DocRequirements) != nil }

func (guardrailsRule) Run(a *Analysis) []spec.Finding {
	const doc = spec.DocRequirements
	d := a.Doc(doc)
	if d.Model.Matrix == nil || a.Coverage == nil {
		return []spec.Finding{finding(doc, spec.KindRuleSkipped, spec.SeverityInfo, 0, extract.MatrixHeading,
			"guardrail coverage not checked: requirements.md has no coverage matrix")}
	}

	matrixLine := d.Model.Matrix.Line
	out := make([]spec.Finding, 0, len(a.Coverage.Findings))
	for _, f := range a.Coverage.Findings {
		if f.Location.Line == 0 {
			f.Location.Line = matrixLine
		}
		out = append(out, f)
	}

	if d.Model.Approved {
		for _, res := range a.Coverage.Results {
			if res.Row == nil || res.Outcome == coverage.NotApplicable || res.Row.Status == spec.CoverageNA {
				continue
			}
			for _, col := range []struct{ name, cell string }{
				{"requirements", res.Row.Requirements},
				{"design", res.Row.Design},
				{"tasks", res.Row.Tasks},
			} {
				if extract.IsPlaceholder(col.cell) {
					out = append(out, finding(doc, spec.KindMissingReference, spec.SeverityError, res.Row.Line, extract.MatrixHeading,
						fmt.Sprintf("guardrail %d (%s) has no %s reference but the document is marked %s",
							res.Guardrail.ID, res.Guardrail.Name, col.name, statusLabel(d.Model))))
				}
			}
		}
	}
	return out
}

func statusLabel(m extract.Model) string {
	if m.Status != "" {
		return m.Status
	}
	return "approved"
}

// --- tasks ---

type tasksRule struct{}

func (tasksRule) ID() string { return RuleTasks }

func (tasksRule) Applies(a *Analysis) bool { return a.Doc(spec.DocTasks) != nil }

func (tasksRule) Run(a *Analysis) []spec.Finding {
	const doc = spec.DocTasks
	d := a.Doc(doc)
	var out []spec.Finding

	for _, m := range d.Model.MalformedTasks {
		out = append(out, finding(doc, spec.KindMalformedTaskID, spec.SeverityError, m.Line, sectionAt(d, m.Line),
			fmt.Sprintf("task id %q must be two or three dot-separated numbers, like 1.2 or 1.2.3", m.Token)))
	}

	out = append(out, a.Graph.Findings...)

	hasSubtasks := make(map[string]bool)
	for _, t := range d.Model.Tasks {
		if i := strings.LastIndex(t.ID, "."); strings.Count(t.ID, ".") == 2 {
			hasSubtasks[t.ID[:i]] = true
		}
	}
	for _, t := range d.Model.Tasks {
		if len(t.Items) == 0 {
			if !hasSubtasks[t.ID] {
				out = append(out, finding(doc, spec.KindTaskWithoutChecklist, spec.SeverityWarning, t.Line, t.Phase,
					fmt.Sprintf("task %s has no checklist items", t.ID)))
			}
			continue
		}
		if t.Format != spec.TaskFormatChecklist {
			continue
		}
		status := t.Status()
		switch {
		case t.Checked && status != spec.TaskComplete:
			out = append(out, finding(doc, spec.KindTaskStatusMismatch, spec.SeverityWarning, t.Line, t.Phase,
				fmt.Sprintf("task %s is checked but its items are %s", t.ID, status)))
		case !t.Checked && status == spec.TaskComplete:
			out = append(out, finding(doc, spec.KindTaskStatusMismatch, spec.SeverityWarning, t.Line, t.Phase,
				fmt.Sprintf("task %s has every item checked but is not checked itself", t.ID)))
		}
	}
	return out
}

// --- references ---

var (
	taskRefRe  = regexp.MustCompile(`\d+(?:\.\d+)+`)
	storyRefRe = regexp.MustCompile(`\bUS-(\d+)\b`)
)

type referencesRule struct{}

func (referencesRule) ID() string { return RuleReferences }

func (referencesRule) Applies(a *Analysis) bool {
	return a.Whole && a.Doc(spec.DocRequirements) != nil
}

func (referencesRule) Run(a *Analysis) []spec.Finding {
	var out []spec.Finding
	req := a.Doc(spec.DocRequirements)

	if a.Graph != nil {
		for _, row := range req.Model.Rows {
			for _, id := range taskRefRe.FindAllString(row.Tasks, -1) {
				if strings.Count(id, ".") > 2 {
					continue
				}
				if _, ok := a.Graph.Task(id); !ok {
					out = append(out, finding(spec.DocRequirements, spec.KindDanglingReference, spec.SeverityWarning, row.Line, extract.MatrixHeading,
						fmt.Sprintf("coverage row %q references task %s, which tasks.md does not declare", row.GuardrailName, id)))
				}
			}
		}
	}

	design := a.Doc(spec.DocDesign)
	if design == nil || len(req.Model.Stories) == 0 {
		return out
	}
	stories := make(map[string]bool, len(req.Model.Stories))
	for _, s := range req.Model.Stories {
		stories[s.ID] = true
	}
	for n := 1; n <= design.Scan.LineCount(); n++ {
		if design.Scan.InCode(n) {
			continue
		}
		seen := make(map[string]bool)
		for _, m := range storyRefRe.FindAllStringSubmatch(design.Scan.Line(n), -1) {
			id := "US-" + strings.TrimLeft(m[1], "0")
			if stories[id] || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, finding(spec.DocDesign, spec.KindDanglingReference, spec.SeverityWarning, n, sectionAt(design, n),
				fmt.Sprintf("%s is not a user story in requirements.md", id)))
		}
	}
	return out
}
