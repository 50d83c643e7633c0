package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(ls ...string) string {
	return strings.Join(ls, "\n") + "\n"
}

func TestScan_HeadingSections(t *testing.T) {
	doc := Scan(lines(
		"# Spec",             // 1
		"intro",              // 2
		"## Overview",        // 3
		"text",               // 4
		"### Detail ###",     // 5
		"more",               // 6
		"## User Stories",    // 7
		"story",              // 8
	))

	secs := doc.Sections()
	require.Len(t, secs, 4)

	assert.Equal(t, Section{Level: 1, Heading: "Spec", Line: 1, Start: 2, End: 8}, secs[0])
	assert.Equal(t, Section{Level: 2, Heading: "Overview", Line: 3, Start: 4, End: 6}, secs[1])
	assert.Equal(t, Section{Level: 3, Heading: "Detail", Line: 5, Start: 6, End: 6}, secs[2])
	assert.Equal(t, Section{Level: 2, Heading: "User Stories", Line: 7, Start: 8, End: 8}, secs[3])
}

func TestScan_IgnoresHeadingsInCode(t *testing.T) {
	doc := Scan(lines(
		"## Real",
		"```md",
		"## Not a heading",
		"```",
		"~~~",
		"# also not",
		"~~~",
	))

	secs := doc.Sections()
	require.Len(t, secs, 1)
	assert.Equal(t, "Real", secs[0].Heading)
	assert.True(t, doc.InCode(3))
	assert.True(t, doc.InCode(4))
	assert.False(t, doc.InCode(1))
	assert.Zero(t, doc.UnterminatedFence)
}

func TestScan_UnterminatedFence(t *testing.T) {
	doc := Scan(lines(
		"## One",
		"```go",
		"code",
		"## Two",
	))

	assert.Equal(t, 2, doc.UnterminatedFence)
	assert.False(t, doc.InCode(3), "lines after an unclosed fence are plain text")

	secs := doc.Sections()
	require.Len(t, secs, 2)
	assert.Equal(t, "Two", secs[1].Heading)
	assert.Equal(t, 3, secs[0].End)
}

func TestScan_CRLFAndNoTrailingNewline(t *testing.T) {
	doc := Scan("# A\r\nbody\r\n# B")
	assert.Equal(t, 3, doc.LineCount())
	assert.Equal(t, "body", doc.Line(2))
	assert.Equal(t, "", doc.Line(9))
	assert.Len(t, doc.Sections(), 2)
}

func TestScan_EmptyInput(t *testing.T) {
	doc := Scan("")
	assert.Zero(t, doc.LineCount())
	assert.Empty(t, doc.Sections())
}

func TestScan_HashWithoutSpaceIsNotHeading(t *testing.T) {
	doc := Scan(lines("#hashtag", "####### seven"))
	assert.Empty(t, doc.Sections())
}

func TestDocument_Enclosing(t *testing.T) {
	doc := Scan(lines(
		"## Phase 1", // 1
		"### Task",   // 2
		"body",       // 3
		"## Phase 2", // 4
		"other",      // 5
	))

	enc, ok := doc.Enclosing(3)
	require.True(t, ok)
	assert.Equal(t, "Task", enc.Heading)

	enc, ok = doc.Enclosing(5)
	require.True(t, ok)
	assert.Equal(t, "Phase 2", enc.Heading)

	_, ok = doc.Enclosing(1)
	assert.False(t, ok, "a heading line is not inside its own body")
}

func TestDocument_HasHeading(t *testing.T) {
	doc := Scan(lines("## Guardrail Coverage Matrix", "| a |"))
	assert.True(t, doc.HasHeading("coverage matrix"))
	assert.False(t, doc.HasHeading("Overview"))
}

func TestDocument_ListItem_SiblingBoundary(t *testing.T) {
	doc := Scan(lines(
		"## Phase 2",                 // 1
		"- [ ] Task 2.1: First",      // 2
		"  - [x] sub a",              // 3
		"  - [ ] sub b",              // 4
		"- [ ] Task 2.2: Second",     // 5
		"  - [x] sub c",              // 6
		"",                           // 7
		"## Phase 3",                 // 8
	))

	first, ok := doc.ListItem(2)
	require.True(t, ok)
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, 4, first.End)
	assert.Equal(t, "[ ] Task 2.1: First", first.Heading)

	second, ok := doc.ListItem(5)
	require.True(t, ok)
	assert.Equal(t, 6, second.End, "trailing blank lines are trimmed and the phase heading ends the item")
}

func TestDocument_ListItem_NestedHeadingDoesNotEnd(t *testing.T) {
	doc := Scan(lines(
		"## Phase 1",             // 1
		"- [ ] Task 1.1: Thing",  // 2
		"#### Notes",             // 3
		"  - [ ] sub",            // 4
		"## Phase 2",             // 5
	))

	item, ok := doc.ListItem(2)
	require.True(t, ok)
	assert.Equal(t, 4, item.End)
}

func TestDocument_ListItem_UnindentedParagraphEnds(t *testing.T) {
	doc := Scan(lines(
		"- [ ] Task 1.1: Thing", // 1
		"  - [ ] sub",           // 2
		"",                      // 3
		"Closing prose.",        // 4
		"- [ ] stray",           // 5
	))

	item, ok := doc.ListItem(1)
	require.True(t, ok)
	assert.Equal(t, 2, item.End)
}

func TestDocument_ListItem_NotAListItem(t *testing.T) {
	doc := Scan(lines("plain text"))
	_, ok := doc.ListItem(1)
	assert.False(t, ok)
	assert.False(t, doc.IsListItem(1))
}
