//go:build e2e

package e2e

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/ldf/internal/report"
)

var update = flag.Bool("update", false, "update golden files")

// goldenDir returns the path to the testdata/golden directory.
func goldenDir() string {
	return filepath.Join("..", "..", "testdata", "golden")
}

// goldenFormats are the report formats with stable output. JSON and SARIF
// are covered by structural checks instead.
var goldenFormats = []struct {
	format report.Format
	golden string
}{
	{report.FormatText, "report.txt"},
	{report.FormatCI, "report_ci.txt"},
	{report.FormatMarkdown, "report.md"},
}

func renderForGolden(t *testing.T, format report.Format) []byte {
	t.Helper()
	p, pr := lintProject(t)
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, format, report.NewResult(pr.Report, p.Lint.Strict, "cart", "storefront"), report.Options{}))
	return buf.Bytes()
}

// TestGolden compares report output against golden files. If golden files do
// not exist, the test is skipped with a message to run with -update.
func TestGolden(t *testing.T) {
	for _, g := range goldenFormats {
		t.Run(g.golden, func(t *testing.T) {
			golden, err := os.ReadFile(filepath.Join(goldenDir(), g.golden))
			if os.IsNotExist(err) {
				t.Skipf("golden file %s not found; run with -update to generate", g.golden)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, string(golden), string(renderForGolden(t, g.format)),
				"%s output does not match golden file", g.format)
		})
	}
}

// TestUpdateGolden regenerates golden files from the current report output.
// Run with: go test -tags e2e -run TestUpdateGolden ./internal/e2e/ -update
func TestUpdateGolden(t *testing.T) {
	if !*update {
		t.Skip("skipping golden file update; run with -update flag")
	}
	require.NoError(t, os.MkdirAll(goldenDir(), 0o755))
	for _, g := range goldenFormats {
		require.NoError(t, os.WriteFile(filepath.Join(goldenDir(), g.golden), renderForGolden(t, g.format), 0o644))
		t.Logf("updated %s", g.golden)
	}
}
