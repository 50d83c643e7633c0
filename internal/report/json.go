package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dusk-indust/ldf/internal/spec"
)

// WriteJSON encodes the report in its serialized shape:
// {findings, errorCount, warningCount, infoCount, passed}.
func WriteJSON(w io.Writer, r *spec.LintReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}
