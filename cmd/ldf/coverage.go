package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/ldf/internal/coverage"
	"github.com/dusk-indust/ldf/internal/spec"
)

func newCoverageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "coverage <spec>",
		Short: "Show guardrail coverage for a spec",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			an, err := loadAnalysis(a, args[0])
			if err != nil {
				return err
			}
			if an.Coverage == nil {
				fmt.Fprintf(a.out, "%s has no guardrail coverage matrix in %s\n", args[0], spec.DocRequirements.FileName())
				return nil
			}
			if an.Coverage.Skipped {
				fmt.Fprintln(a.out, "No guardrails are active; nothing to check.")
				return nil
			}

			for _, res := range an.Coverage.Results {
				g := res.Guardrail
				label := fmt.Sprintf("%2d. %-28s", g.ID, g.Name)
				switch res.Outcome {
				case coverage.Covered:
					fmt.Fprintf(a.out, "  %s %s %s\n", passStyle.Render("✓"), label, res.Row.RawStatus)
				case coverage.NotApplicable:
					fmt.Fprintf(a.out, "  %s %s N/A: %s\n", mutedStyle.Render("-"), label, res.Row.Justification)
				default:
					fmt.Fprintf(a.out, "  %s %s %s\n", failStyle.Render("✗"), label, mutedStyle.Render(string(res.Reason)))
				}
			}
			counts := an.Coverage.Counts()
			fmt.Fprintf(a.out, "\n%d covered, %d not applicable, %d not covered\n",
				counts[coverage.Covered], counts[coverage.NotApplicable], counts[coverage.NotCovered])
			return nil
		},
	}
}
