package mcp

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/meltforce/gymtrack/internal/history"
	"github.com/meltforce/gymtrack/internal/planstore"
	"github.com/meltforce/gymtrack/internal/storage"
	"github.com/meltforce/gymtrack/internal/syncqueue"
)

// New creates an MCP server with all tools and resources registered.
func New(plans *planstore.Store, db *storage.DB, resolver *history.Resolver, queue *syncqueue.Queue, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("GymTrack", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("GymTrack workout log server. Query training plans, recorded sessions, best prior weights per exercise, and the offline sync queue."),
	)

	h := &handlers{plans: plans, db: db, resolver: resolver, queue: queue, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolListPlans, Handler: h.listPlans},
		server.ServerTool{Tool: toolGetSessions, Handler: h.getSessions},
		server.ServerTool{Tool: toolBestPriorWeight, Handler: h.bestPriorWeight},
		server.ServerTool{Tool: toolGetPendingSync, Handler: h.getPendingSync},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resActivePlan, Handler: h.activePlan},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	plans    *planstore.Store
	db       *storage.DB
	resolver *history.Resolver
	queue    *syncqueue.Queue
	log      *slog.Logger
}

// --- Resource definitions ---

var resActivePlan = mcp.NewResource(
	"gymtrack://active_plan",
	"Active Plan",
	mcp.WithResourceDescription("The currently active training plan, including the derived light workout"),
	mcp.WithMIMEType("application/json"),
)

func (h *handlers) activePlan(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	plan, err := h.plans.Active(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(plan)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
