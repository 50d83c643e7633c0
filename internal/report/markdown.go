package report

import (
	"fmt"
	"io"
	"strings"
)

// WriteMarkdown renders the report as a markdown document with one findings
// table per spec.
func WriteMarkdown(w io.Writer, res Result) error {
	_, err := io.WriteString(w, markdownReport(res))
	return err
}

func markdownReport(res Result) string {
	var sb strings.Builder
	r := res.Report
	specs := summarize(res)

	verdict := "Passed"
	if !r.Passed {
		verdict = "Failed"
	}
	sb.WriteString("# Spec Lint Report\n\n")
	fmt.Fprintf(&sb, "**Result:** %s (%s, %s, %s)\n\n", verdict,
		plural(r.ErrorCount, "error"), plural(r.WarningCount, "warning"), plural(r.InfoCount, "info"))

	sb.WriteString("| Spec | Errors | Warnings | Info | Result |\n")
	sb.WriteString("|------|--------|----------|------|--------|\n")
	for _, s := range specs {
		result := "pass"
		if !s.passed(res.Strict) {
			result = "fail"
		}
		fmt.Fprintf(&sb, "| %s | %d | %d | %d | %s |\n", displayName(s.Name), s.Errors, s.Warnings, s.Infos, result)
	}

	for _, s := range specs {
		if len(s.Findings) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n## %s\n\n", displayName(s.Name))
		sb.WriteString("| Severity | Location | Rule | Message |\n")
		sb.WriteString("|----------|----------|------|---------|\n")
		for _, f := range s.Findings {
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n",
				f.Severity, cell(location(f)), cell(f.Rule+"/"+string(f.Kind)), cell(f.Message))
		}
	}
	return sb.String()
}

// cell escapes text for a table cell.
func cell(s string) string {
	if s == "" {
		return "-"
	}
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
