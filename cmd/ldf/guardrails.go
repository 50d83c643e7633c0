package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/ldf/internal/guardrail"
)

func newGuardrailsCmd(a *app) *cobra.Command {
	var all, presets bool
	cmd := &cobra.Command{
		Use:   "guardrails",
		Short: "List the active guardrails",
		Long: `List the guardrails assembled from the core set, the configured preset and
custom entries in .ldf/guardrails.yaml, after disabled entries and overrides.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if presets {
				fmt.Fprintln(a.out, strings.Join(guardrail.Presets(), "\n"))
				return nil
			}
			p, err := a.project()
			if err != nil {
				return err
			}
			list := p.Guardrails.Guardrails
			if all {
				list = p.Guardrails.All
			}
			for _, g := range list {
				line := fmt.Sprintf("%2d. %-28s %-8s %s", g.ID, g.Name, g.Severity, g.Origin)
				if !g.Enabled {
					line = mutedStyle.Render(line + " (disabled)")
				}
				fmt.Fprintln(a.out, line)
			}
			for _, ref := range p.Guardrails.Unmatched {
				fmt.Fprintln(a.out, warnStyle.Render(fmt.Sprintf("⚠ %q matched no guardrail", ref)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "include disabled guardrails")
	cmd.Flags().BoolVar(&presets, "presets", false, "list the available presets")
	return cmd
}
