package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/ldf/internal/export"
	"github.com/dusk-indust/ldf/internal/spec"
	"github.com/dusk-indust/ldf/internal/status"
)

func newStatusCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status [spec]",
		Short: "Show where each spec is in its lifecycle",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			p, err := a.project()
			if err != nil {
				return err
			}

			var all []status.SpecStatus
			if len(args) == 1 {
				if err := spec.ValidateName(args[0]); err != nil {
					return &exitError{code: 2, err: err}
				}
				st, err := status.Get(p.Config.SpecsDir, args[0])
				if err != nil {
					return err
				}
				all = []status.SpecStatus{st}
			} else {
				all, err = status.List(p.Config.SpecsDir)
				if err != nil {
					return err
				}
			}

			if asJSON {
				if all == nil {
					all = []status.SpecStatus{}
				}
				return export.WriteJSON(a.out, all)
			}
			if len(all) == 0 {
				fmt.Fprintln(a.out, "No specs found.")
				fmt.Fprintf(a.out, "Create one under %s to get started.\n", p.Config.SpecsDir)
				return nil
			}
			for i, st := range all {
				if i > 0 {
					fmt.Fprintln(a.out)
				}
				printStatus(a, st)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func printStatus(a *app, st status.SpecStatus) {
	fmt.Fprintf(a.out, "Spec: %s  [%s]\n", boldStyle.Render(st.Name), stageLabel(st.Stage))
	for _, d := range st.Docs {
		marker, label := "  ", "missing"
		switch {
		case d.Approved:
			marker, label = passStyle.Render("✓ "), "approved"
		case d.Present:
			marker, label = warnStyle.Render("◐ "), "draft"
		}
		fmt.Fprintf(a.out, "  %s%-16s %s\n", marker, d.Doc.FileName(), label)
	}
	if st.Tasks.Total > 0 {
		fmt.Fprintf(a.out, "  Tasks: %d/%d complete, %d in progress\n", st.Tasks.Complete, st.Tasks.Total, st.Tasks.InProgress)
	}
	if st.Next != "" {
		fmt.Fprintf(a.out, "  -> %s\n", st.Next)
	}
}

func stageLabel(s status.Stage) string {
	switch s {
	case status.Complete:
		return passStyle.Render(string(s))
	case status.NotStarted:
		return mutedStyle.Render(string(s))
	default:
		return warnStyle.Render(string(s))
	}
}
