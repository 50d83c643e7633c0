// Package markdown splits markdown text into addressable sections. It knows
// where headings, list items and fenced code blocks begin and end, and nothing
// about what they mean.
package markdown

import (
	"regexp"
	"strings"
)

// Section is a heading or list item together with the inclusive line range of
// its body. Lines are 1-based.
type Section struct {
	Level   int    // 1–6 for headings, 0 for list-item sections
	Heading string // heading text, or the list item text
	Line    int    // line of the heading or list item
	Start   int    // first body line; Start > End when the body is empty
	End     int    // last body line, inclusive
}

// Contains reports whether line falls on the section's heading or inside its body.
func (s Section) Contains(line int) bool {
	return line >= s.Line && line <= s.End
}

// Document is the scanned form of one markdown file.
type Document struct {
	lines    []string
	code     []bool
	sections []Section
	// UnterminatedFence is the line of a code fence that is never closed, or 0.
	// Lines after such a fence are scanned as plain text.
	UnterminatedFence int
}

var (
	headingRe  = regexp.MustCompile(`^ {0,3}(#{1,6})(?:[ \t]+(.*?))?[ \t]*$`)
	closingRe  = regexp.MustCompile(`[ \t]+#+$`)
	listItemRe = regexp.MustCompile(`^([ \t]*)(?:[-*+]|\d+[.)])[ \t]+(.*)$`)
	fenceRe    = regexp.MustCompile("^ {0,3}(`{3,}|~{3,})(.*)$")
)

// Scan splits text into lines and computes heading sections. It never fails:
// an unbalanced code fence is recorded and the rest of the input is treated as
// plain text.
func Scan(text string) *Document {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	d := &Document{lines: lines, code: make([]bool, len(lines))}
	d.markCode()
	d.sections = d.headingSections()
	return d
}

// markCode flags lines that belong to fenced code blocks, fences included.
func (d *Document) markCode() {
	open := -1
	var marker string
	for i, line := range d.lines {
		m := fenceRe.FindStringSubmatch(line)
		if open < 0 {
			if m == nil {
				continue
			}
			// Backtick fences may not carry backticks in their info string.
			if m[1][0] == '`' && strings.Contains(m[2], "`") {
				continue
			}
			open, marker = i, m[1]
			d.code[i] = true
			continue
		}
		d.code[i] = true
		if m != nil && m[1][0] == marker[0] && len(m[1]) >= len(marker) && strings.TrimSpace(m[2]) == "" {
			open = -1
		}
	}
	if open >= 0 {
		d.UnterminatedFence = open + 1
		for i := open; i < len(d.code); i++ {
			d.code[i] = false
		}
	}
}

func (d *Document) headingSections() []Section {
	var out []Section
	for i := range d.lines {
		level, text, ok := d.heading(i + 1)
		if !ok {
			continue
		}
		out = append(out, Section{Level: level, Heading: text, Line: i + 1, Start: i + 2})
	}
	for i := range out {
		out[i].End = len(d.lines)
		for j := i + 1; j < len(out); j++ {
			if out[j].Level <= out[i].Level {
				out[i].End = out[j].Line - 1
				break
			}
		}
	}
	return out
}

// heading parses line n as an ATX heading outside code.
func (d *Document) heading(n int) (int, string, bool) {
	if d.InCode(n) {
		return 0, "", false
	}
	m := headingRe.FindStringSubmatch(d.lines[n-1])
	if m == nil {
		return 0, "", false
	}
	text := closingRe.ReplaceAllString(m[2], "")
	if strings.Trim(text, "#") == "" {
		text = ""
	}
	return len(m[1]), strings.TrimSpace(text), true
}

// LineCount returns the number of lines in the document.
func (d *Document) LineCount() int {
	return len(d.lines)
}

// Line returns line n (1-based), or "" when out of range.
func (d *Document) Line(n int) string {
	if n < 1 || n > len(d.lines) {
		return ""
	}
	return d.lines[n-1]
}

// InCode reports whether line n lies inside a fenced code block.
func (d *Document) InCode(n int) bool {
	if n < 1 || n > len(d.code) {
		return false
	}
	return d.code[n-1]
}

// Sections returns the heading sections in document order.
func (d *Document) Sections() []Section {
	out := make([]Section, len(d.sections))
	copy(out, d.sections)
	return out
}

// HeadingAt returns the heading section declared on line n.
func (d *Document) HeadingAt(n int) (Section, bool) {
	for _, s := range d.sections {
		if s.Line == n {
			return s, true
		}
	}
	return Section{}, false
}

// Enclosing returns the deepest heading section whose body contains line n.
func (d *Document) Enclosing(n int) (Section, bool) {
	var best Section
	found := false
	for _, s := range d.sections {
		if s.Line < n && n <= s.End && (!found || s.Level > best.Level) {
			best, found = s, true
		}
	}
	return best, found
}

// FindHeading returns the first heading section whose text satisfies match.
func (d *Document) FindHeading(match func(text string) bool) (Section, bool) {
	for _, s := range d.sections {
		if match(s.Heading) {
			return s, true
		}
	}
	return Section{}, false
}

// HasHeading reports whether any heading contains substr, ignoring case.
func (d *Document) HasHeading(substr string) bool {
	substr = strings.ToLower(substr)
	_, ok := d.FindHeading(func(text string) bool {
		return strings.Contains(strings.ToLower(text), substr)
	})
	return ok
}

// ListItem returns the pseudo-section of the list item on line n. It runs from
// the item through the line before the next sibling or shallower item, the
// next heading at or above the enclosing heading level, or unindented text
// that follows a blank line.
func (d *Document) ListItem(n int) (Section, bool) {
	indent, text, ok := d.listItem(n)
	if !ok {
		return Section{}, false
	}

	phase := 6
	if enc, ok := d.Enclosing(n); ok {
		phase = enc.Level
	}

	s := Section{Level: 0, Heading: text, Line: n, Start: n + 1, End: len(d.lines)}
	blank := false
	for i := n + 1; i <= len(d.lines); i++ {
		if level, _, ok := d.heading(i); ok && level <= phase {
			s.End = i - 1
			break
		}
		if d.InCode(i) {
			blank = false
			continue
		}
		line := d.lines[i-1]
		if strings.TrimSpace(line) == "" {
			blank = true
			continue
		}
		if ind, _, ok := d.listItem(i); ok && ind <= indent {
			s.End = i - 1
			break
		}
		if blank && indentOf(line) <= indent {
			s.End = i - 1
			break
		}
		blank = false
	}
	for s.End > n && strings.TrimSpace(d.lines[s.End-1]) == "" {
		s.End--
	}
	return s, true
}

// IsListItem reports whether line n starts a list item outside code.
func (d *Document) IsListItem(n int) bool {
	_, _, ok := d.listItem(n)
	return ok
}

func (d *Document) listItem(n int) (int, string, bool) {
	if n < 1 || n > len(d.lines) || d.InCode(n) {
		return 0, "", false
	}
	m := listItemRe.FindStringSubmatch(d.lines[n-1])
	if m == nil {
		return 0, "", false
	}
	return indentOf(m[1]), strings.TrimSpace(m[2]), true
}

// indentOf measures leading whitespace, counting a tab as four columns.
func indentOf(s string) int {
	n := 0
	for _, r := range s {
		switch r {
		case ' ':
			n++
		case '\t':
			n += 4
		default:
			return n
		}
	}
	return n
}
