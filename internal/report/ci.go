package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dusk-indust/ldf/internal/spec"
)

const ciRule = "=================================================="

// WriteCI renders one prefixed line per finding, suitable for grepping in CI
// logs, then a summary block.
//
//	✗ Error: checkout: requirements.md:14: guardrail 2 (Security Basics) has no row in the coverage matrix
//	⚠ Warning: checkout: tasks.md: missing section "Per-Task Guardrail Checklist"
//	✅ Pass: user-login
func WriteCI(w io.Writer, res Result) error {
	var sb strings.Builder
	specs := summarize(res)

	for _, s := range specs {
		for _, f := range s.Findings {
			sb.WriteString(ciPrefix(f.Severity))
			if s.Name != "" {
				sb.WriteString(s.Name + ": ")
			}
			if loc := location(f); loc != "" {
				sb.WriteString(loc + ": ")
			}
			sb.WriteString(f.Message + "\n")
		}
		if s.passed(res.Strict) && s.Errors+s.Warnings == 0 {
			fmt.Fprintf(&sb, "✅ Pass: %s\n", displayName(s.Name))
		}
	}

	sb.WriteString("\n" + ciRule + "\nLINT SUMMARY\n" + ciRule + "\n")
	for _, s := range specs {
		switch {
		case !s.passed(res.Strict):
			fmt.Fprintf(&sb, "❌ %s: %d error(s), %d warning(s)\n", displayName(s.Name), s.Errors, s.Warnings)
		case s.Warnings > 0:
			fmt.Fprintf(&sb, "⚠️  %s: %d warning(s)\n", displayName(s.Name), s.Warnings)
		default:
			fmt.Fprintf(&sb, "✅ %s: PASSED\n", displayName(s.Name))
		}
	}
	sb.WriteString(ciRule + "\n")

	r := res.Report
	switch {
	case r.ErrorCount == 0 && r.WarningCount == 0:
		sb.WriteString("✅ All specs passed validation!\n")
	default:
		if r.ErrorCount > 0 {
			fmt.Fprintf(&sb, "❌ Total errors: %d\n", r.ErrorCount)
		}
		if r.WarningCount > 0 {
			fmt.Fprintf(&sb, "⚠️  Total warnings: %d\n", r.WarningCount)
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func ciPrefix(sev spec.Severity) string {
	switch sev {
	case spec.SeverityError:
		return "✗ Error: "
	case spec.SeverityWarning:
		return "⚠ Warning: "
	default:
		return "ℹ Info: "
	}
}

func displayName(name string) string {
	if name == "" {
		return "document"
	}
	return name
}
