package mcptools

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewServer creates an MCP server with the spec query tools registered.
func NewServer(svc *LintService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "ldf",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "lint_spec",
		Description: "Lint one spec, or every spec when no name is given. Returns the findings with error, warning and info counts and whether the lint passed.",
	}, svc.LintSpec)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_specs",
		Description: "List every spec in the project with its lifecycle stage, document approval state and task counts.",
	}, svc.ListSpecs)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_spec_status",
		Description: "Get the lifecycle stage of one spec and the next action to take.",
	}, svc.GetSpecStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_guardrail_coverage",
		Description: "Report which active guardrails are covered, not covered or not applicable in a spec's coverage matrix.",
	}, svc.GetGuardrailCoverage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_tasks",
		Description: "List the tasks of a spec with their derived status. Optionally filter by status or to tasks that are ready to start.",
	}, svc.ListTasks)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_task_dependencies",
		Description: "Traverse task dependencies upstream or downstream from one task and list the tasks affected if it changes.",
	}, svc.GetTaskDependencies)

	return server
}

// RunStdio runs the MCP server on stdio, blocking until stdin is closed or
// the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// NewRouter mounts the streamable HTTP handler at /mcp and a liveness probe
// at /healthz.
func NewRouter(server *mcp.Server) http.Handler {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Handle("/mcp", handler)
	r.Handle("/mcp/*", handler)
	return r
}

// RunHTTP serves the MCP tools over HTTP until the context is cancelled.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("mcp server listening", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
