package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/ldf/internal/export"
	"github.com/dusk-indust/ldf/internal/graph"
	"github.com/dusk-indust/ldf/internal/lint"
	"github.com/dusk-indust/ldf/internal/spec"
)

// loadAnalysis reads and analyzes one spec with the project's guardrails.
func loadAnalysis(a *app, name string) (*lint.Analysis, error) {
	if err := spec.ValidateName(name); err != nil {
		return nil, &exitError{code: 2, err: err}
	}
	p, err := a.project()
	if err != nil {
		return nil, err
	}
	src, err := spec.Load(p.Config.SpecsDir, name)
	if err != nil {
		return nil, err
	}
	return lint.Analyze(src.Name, src.Docs, p.Lint.Guardrails)
}

func newTasksCmd(a *app) *cobra.Command {
	var (
		format string
		ready  bool
	)
	cmd := &cobra.Command{
		Use:   "tasks <spec>",
		Short: "List a spec's tasks with their derived status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "text", "json", "mermaid":
			default:
				return usageError("unknown format %q (choose text, json, mermaid)", format)
			}
			an, err := loadAnalysis(a, args[0])
			if err != nil {
				return err
			}
			if an.Graph == nil {
				return fmt.Errorf("spec %s has no %s", args[0], spec.DocTasks.FileName())
			}

			switch format {
			case "json":
				exp := export.ExportAnalysis(an)
				tasks := exp.Tasks
				if ready {
					tasks = filterReady(an, tasks)
				}
				return export.WriteJSON(a.out, struct {
					Tasks []export.TaskExport `json:"tasks"`
					Order []string            `json:"order"`
				}{tasks, exp.Order})
			case "mermaid":
				return printMermaid(cmd.Context(), a, an)
			}

			var show []spec.Task
			if ready {
				show = an.Graph.Ready()
			} else {
				show = an.Graph.Tasks()
			}
			printTasks(a, an, show)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, mermaid")
	cmd.Flags().BoolVar(&ready, "ready", false, "only tasks whose dependencies are all complete")
	return cmd
}

func filterReady(an *lint.Analysis, tasks []export.TaskExport) []export.TaskExport {
	ready := make(map[string]bool)
	for _, t := range an.Graph.Ready() {
		ready[t.ID] = true
	}
	out := []export.TaskExport{}
	for _, t := range tasks {
		if ready[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

func printTasks(a *app, an *lint.Analysis, tasks []spec.Task) {
	var phase string
	done := 0
	for i, t := range tasks {
		if i == 0 || t.Phase != phase {
			phase = t.Phase
			if phase != "" {
				fmt.Fprintln(a.out, boldStyle.Render(phase))
			}
		}
		line := fmt.Sprintf("  %s %s %s", taskIcon(t.Status()), t.ID, t.Title)
		if deps := an.Graph.Dependencies(t.ID); len(deps) > 0 {
			line += mutedStyle.Render(" (after " + strings.Join(deps, ", ") + ")")
		}
		fmt.Fprintln(a.out, line)
		if t.Status() == spec.TaskComplete {
			done++
		}
	}
	fmt.Fprintf(a.out, "\n%d/%d complete\n", done, len(tasks))
}

func taskIcon(s spec.TaskStatus) string {
	switch s {
	case spec.TaskComplete:
		return passStyle.Render("✓")
	case spec.TaskInProgress:
		return warnStyle.Render("◐")
	default:
		return mutedStyle.Render("○")
	}
}

func printMermaid(ctx context.Context, a *app, an *lint.Analysis) error {
	store := graph.NewMemStore()
	defer store.Close()
	if err := graph.IndexSpec(ctx, store, an.Spec, "", an.Graph); err != nil {
		return err
	}
	out, err := export.GenerateMermaid(ctx, store, an.Spec)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(a.out, out)
	return err
}
