package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dusk-indust/ldf/internal/markdown"
	"github.com/dusk-indust/ldf/internal/spec"
)

var (
	storyHeadingRe = regexp.MustCompile(`^\*{0,2}US-(\d+)\*{0,2}[ \t]*(?:[:.–—-][ \t]*)?(.*)$`)
	asARe          = regexp.MustCompile(`(?i)^[ \t]*(?:[-*][ \t]+)?\*{0,2}As an?\*{0,2}[ \t]+(.+)$`)
	iWantRe        = regexp.MustCompile(`(?i)^[ \t]*(?:[-*][ \t]+)?\*{0,2}I want(?: to)?\*{0,2}[ \t]+(.+)$`)
	soThatRe       = regexp.MustCompile(`(?i)^[ \t]*(?:[-*][ \t]+)?\*{0,2}So that\*{0,2}[ \t]+(.+)$`)
	checkboxRe     = regexp.MustCompile(`^[ \t]*[-*+][ \t]+\[([ xX])\][ \t]*(.*)$`)
	criterionIDRe  = regexp.MustCompile(`^\*{0,2}(AC-\d+\.\d+)\*{0,2}[ \t]*:?\*{0,2}[ \t]*(.*)$`)
)

// StoryRecognizer matches "US-<n>: <title>" headings and the role lines and
// acceptance criteria inside them. Other headings are ignored.
type StoryRecognizer struct{}

func (StoryRecognizer) Name() string { return "stories" }

func (StoryRecognizer) Recognize(doc *markdown.Document) Model {
	var m Model
	for _, sec := range doc.Sections() {
		sm := storyHeadingRe.FindStringSubmatch(sec.Heading)
		if sm == nil {
			continue
		}
		num, err := strconv.Atoi(sm[1])
		if err != nil {
			continue
		}
		story := spec.UserStory{
			ID:     fmt.Sprintf("US-%d", num),
			Number: num,
			Title:  stripEmphasis(sm[2]),
			Line:   sec.Line,
		}
		for n := sec.Start; n <= sec.End; n++ {
			if doc.InCode(n) {
				continue
			}
			line := doc.Line(n)
			if cb := checkboxRe.FindStringSubmatch(line); cb != nil {
				ac := spec.AcceptanceCriterion{
					Text:    stripEmphasis(cb[2]),
					Checked: cb[1] != " ",
					Line:    n,
				}
				if idm := criterionIDRe.FindStringSubmatch(strings.TrimSpace(cb[2])); idm != nil {
					ac.ID = idm[1]
					ac.Text = stripEmphasis(idm[2])
				}
				story.Criteria = append(story.Criteria, ac)
				continue
			}
			if v := roleValue(asARe, line); v != "" && story.Actor == "" {
				story.Actor = v
			} else if v := roleValue(iWantRe, line); v != "" && story.Action == "" {
				story.Action = v
			} else if v := roleValue(soThatRe, line); v != "" && story.Benefit == "" {
				story.Benefit = v
			}
		}
		m.Stories = append(m.Stories, story)
	}
	return m
}

func roleValue(re *regexp.Regexp, line string) string {
	sm := re.FindStringSubmatch(line)
	if sm == nil {
		return ""
	}
	return strings.TrimRight(stripEmphasis(sm[1]), ",.")
}
