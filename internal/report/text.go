package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dusk-indust/ldf/internal/spec"
)

var (
	colorPass = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	colorWarn = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	colorFail = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	colorMute = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	colorInfo = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
)

const (
	iconPass = "✓"
	iconWarn = "⚠"
	iconFail = "✗"
	iconInfo = "ℹ"
)

// textStyles are bound to the renderer of one writer, so output to a pipe or
// buffer carries no escape codes.
type textStyles struct {
	pass, warn, fail, muted, info, heading lipgloss.Style
}

func newTextStyles(w io.Writer) textStyles {
	r := lipgloss.NewRenderer(w)
	return textStyles{
		pass:    r.NewStyle().Foreground(colorPass),
		warn:    r.NewStyle().Foreground(colorWarn),
		fail:    r.NewStyle().Foreground(colorFail),
		muted:   r.NewStyle().Foreground(colorMute),
		info:    r.NewStyle().Foreground(colorInfo),
		heading: r.NewStyle().Bold(true).Foreground(colorInfo),
	}
}

func (s textStyles) severity(sev spec.Severity) (string, lipgloss.Style) {
	switch sev {
	case spec.SeverityError:
		return iconFail, s.fail
	case spec.SeverityWarning:
		return iconWarn, s.warn
	default:
		return iconInfo, s.info
	}
}

// WriteText renders findings grouped by spec and document, followed by a
// per-spec verdict and a summary line.
func WriteText(w io.Writer, res Result) error {
	st := newTextStyles(w)
	var sb strings.Builder
	specs := summarize(res)

	for _, s := range specs {
		if len(s.Findings) == 0 {
			continue
		}
		if s.Name != "" {
			sb.WriteString(st.heading.Render(s.Name) + "\n")
		}
		var doc spec.DocType = "-"
		for _, f := range s.Findings {
			if f.Location.Doc != doc {
				doc = f.Location.Doc
				label := "(spec)"
				if doc != "" {
					label = doc.FileName()
				}
				sb.WriteString("  " + st.muted.Render(label) + "\n")
			}
			icon, style := st.severity(f.Severity)
			line := "-"
			if f.Location.Line > 0 {
				line = fmt.Sprintf("%d", f.Location.Line)
			}
			fmt.Fprintf(&sb, "    %s %-7s %4s  %s %s\n",
				style.Render(icon),
				style.Render(string(f.Severity)),
				line,
				f.Message,
				st.muted.Render(fmt.Sprintf("[%s/%s]", f.Rule, f.Kind)))
		}
		sb.WriteString("\n")
	}

	for _, s := range specs {
		counts := fmt.Sprintf("%s, %s, %s", plural(s.Errors, "error"), plural(s.Warnings, "warning"), plural(s.Infos, "info"))
		name := s.Name
		if name == "" {
			name = "document"
		}
		if s.passed(res.Strict) {
			fmt.Fprintf(&sb, "%s %s %s\n", st.pass.Render(iconPass), name, st.muted.Render("("+counts+")"))
		} else {
			fmt.Fprintf(&sb, "%s %s %s\n", st.fail.Render(iconFail), name, st.muted.Render("("+counts+")"))
		}
	}

	r := res.Report
	verdict := st.pass.Render("PASSED")
	if !r.Passed {
		verdict = st.fail.Render("FAILED")
	}
	fmt.Fprintf(&sb, "\n%s: %s, %s, %s, %s\n", verdict,
		plural(len(specs), "spec"), plural(r.ErrorCount, "error"), plural(r.WarningCount, "warning"), plural(r.InfoCount, "info"))

	_, err := io.WriteString(w, sb.String())
	return err
}
