package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var htmlPage = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Spec Lint Report</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 60rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.6rem; text-align: left; }
</style>
</head>
<body>
{{.}}
</body>
</html>
`))

var md = goldmark.New(goldmark.WithExtensions(extension.Table))

// WriteHTML renders the markdown report to a standalone HTML page.
func WriteHTML(w io.Writer, res Result) error {
	var body bytes.Buffer
	if err := md.Convert([]byte(markdownReport(res)), &body); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	// goldmark omits raw HTML from the source unless WithUnsafe is set.
	return htmlPage.Execute(w, template.HTML(body.String())) //nolint:gosec
}
