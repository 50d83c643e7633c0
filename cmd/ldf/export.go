package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/ldf/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <spec>",
		Short: "Export a spec's parsed stories, coverage and tasks as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			an, err := loadAnalysis(a, args[0])
			if err != nil {
				return err
			}
			if err := export.WriteJSON(a.out, export.ExportAnalysis(an)); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			return nil
		},
	}
}
