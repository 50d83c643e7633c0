package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/ldf/internal/config"
	"github.com/dusk-indust/ldf/internal/graph"
	"github.com/dusk-indust/ldf/internal/spec"
)

// graphDir is where the persistent task index lives, relative to the project root.
const graphDir = "graph"

// openStore returns the persistent Kuzu index when useDB is set and an
// in-memory store otherwise.
func openStore(root string, useDB bool) (graph.Store, error) {
	if !useDB {
		return graph.NewMemStore(), nil
	}
	return openGraphDB(filepath.Join(root, config.Dir, graphDir))
}

func newDepsCmd(a *app) *cobra.Command {
	var (
		direction string
		depth     int
		useDB     bool
	)
	cmd := &cobra.Command{
		Use:   "deps <spec> <task>",
		Short: "Show what a task depends on, or what depends on it",
		Long: `Walk task dependencies from one task. Upstream lists the tasks it depends
on; downstream lists the tasks that depend on it. The tasks affected by a change
to the task are listed as well.

With --graph-db the index is kept in .ldf/graph (requires a cgo build).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, taskID := args[0], args[1]
			if err := spec.ValidateName(name); err != nil {
				return &exitError{code: 2, err: err}
			}
			dir := graph.DirectionUpstream
			switch strings.ToLower(direction) {
			case "upstream", "up":
			case "downstream", "down":
				dir = graph.DirectionDownstream
			default:
				return usageError("unknown direction %q (choose upstream, downstream)", direction)
			}

			p, err := a.project()
			if err != nil {
				return err
			}
			sources, err := spec.LoadAll(p.Config.SpecsDir)
			if err != nil {
				return err
			}

			store, err := openStore(p.Config.Root, useDB)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			stats, err := graph.IndexSources(ctx, store, sources)
			if err != nil {
				return fmt.Errorf("index tasks: %w", err)
			}
			a.logger.Debug("task index built", "specs", stats.SpecCount, "tasks", stats.TaskCount, "edges", stats.EdgeCount)

			key := graph.TaskKey(name, taskID)
			task, err := store.GetTask(ctx, key)
			if err != nil {
				return err
			}
			if task == nil {
				return fmt.Errorf("task %s not found in spec %s", taskID, name)
			}

			chains, err := store.GetDependencies(ctx, key, dir, depth)
			if err != nil {
				return err
			}
			impact, err := store.AssessImpact(ctx, []string{key})
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "%s %s %s\n", boldStyle.Render("Task "+task.TaskID), task.Title, mutedStyle.Render("["+task.Status+"]"))
			label := "Depends on"
			if dir == graph.DirectionDownstream {
				label = "Needed by"
			}
			if len(chains) == 0 {
				fmt.Fprintf(a.out, "%s: nothing\n", label)
			} else {
				fmt.Fprintf(a.out, "%s:\n", label)
				for _, c := range chains {
					fmt.Fprintf(a.out, "  %s\n", strings.Join(stripSpec(c.Nodes), " -> "))
				}
			}
			if len(impact.TransitivelyAffected) > 0 {
				fmt.Fprintf(a.out, "Affected by a change: %s (risk %.2f)\n",
					strings.Join(stripSpec(impact.TransitivelyAffected), ", "), impact.RiskScore)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&direction, "direction", "d", "upstream", "upstream or downstream")
	cmd.Flags().IntVar(&depth, "depth", 5, "maximum traversal depth")
	cmd.Flags().BoolVar(&useDB, "graph-db", false, "persist the task index in .ldf/graph")
	return cmd
}

// stripSpec turns index keys ("billing/1.2") back into task ids.
func stripSpec(keys []string) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		if j := strings.LastIndex(k, "/"); j >= 0 {
			k = k[j+1:]
		}
		out[i] = k
	}
	return out
}
