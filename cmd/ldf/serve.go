package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/ldf/internal/mcptools"
)

func newServeMCPCmd(a *app) *cobra.Command {
	var (
		addr  string
		useDB bool
	)
	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve spec queries as MCP tools",
		Long: `Run an MCP server exposing lint_spec, list_specs, get_spec_status,
get_guardrail_coverage, list_tasks and get_task_dependencies. The server speaks
stdio unless --http is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.project()
			if err != nil {
				return err
			}
			store, err := openStore(p.Config.Root, useDB)
			if err != nil {
				return err
			}
			defer store.Close()

			svc := mcptools.NewLintService(p.Config.SpecsDir, p.Lint, store, a.logger)
			server := mcptools.NewServer(svc)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if addr != "" {
				return mcptools.RunHTTP(ctx, server, addr, a.logger)
			}
			return mcptools.RunStdio(ctx, server)
		},
	}
	cmd.Flags().StringVar(&addr, "http", "", "serve streamable HTTP on this address (e.g. :8080) instead of stdio")
	cmd.Flags().BoolVar(&useDB, "graph-db", false, "persist the task index in .ldf/graph")
	return cmd
}
