package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/gymtrack/internal/models"
)

// --- Tool definitions ---

var toolListPlans = mcp.NewTool("list_plans",
	mcp.WithDescription("List all training plans with their workouts. Each plan has two editable workouts plus a derived light third workout."),
)

var toolGetSessions = mcp.NewTool("get_sessions",
	mcp.WithDescription("Retrieve recorded workout sessions, newest last. Returns per-exercise sets, total volume, and max weight."),
	mcp.WithNumber("slot", mcp.Description("Filter by workout slot (1, 2, or 3)")),
	mcp.WithNumber("limit", mcp.Description("Maximum number of sessions to return. Defaults to 50.")),
)

var toolBestPriorWeight = mcp.NewTool("best_prior_weight",
	mcp.WithDescription("Resolve the best prior weight for an exercise in a workout slot, checking the last saved session, full local history, and the remote backend in order."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise name (exact match)")),
	mcp.WithNumber("slot", mcp.Required(), mcp.Description("Workout slot (1, 2, or 3)")),
)

var toolGetPendingSync = mcp.NewTool("get_pending_sync",
	mcp.WithDescription("List sessions waiting in the sync queue and sessions parked in the dead-letter table after repeated submission failures."),
)

// --- Tool handlers ---

func (h *handlers) listPlans(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plans, err := h.plans.List(ctx)
	if err != nil {
		h.log.Error("mcp list_plans", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(plans)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slot := req.GetInt("slot", 0)
	if slot < 0 || slot > 3 {
		return mcp.NewToolResultError("slot must be 1, 2, or 3"), nil
	}
	limit := req.GetInt("limit", 50)

	sessions, err := h.db.ListSessions(ctx)
	if err != nil {
		h.log.Error("mcp get_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	if slot != 0 {
		filtered := sessions[:0]
		for _, s := range sessions {
			if s.Slot == slot {
				filtered = append(filtered, s)
			}
		}
		sessions = filtered
	}
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[len(sessions)-limit:]
	}
	if sessions == nil {
		sessions = []*models.Session{}
	}

	result, err := mcp.NewToolResultJSON(sessions)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) bestPriorWeight(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercise, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	slot, err := req.RequireInt("slot")
	if err != nil {
		return mcp.NewToolResultError("slot parameter is required"), nil
	}
	if slot < 1 || slot > 3 {
		return mcp.NewToolResultError("slot must be 1, 2, or 3"), nil
	}

	weight := h.resolver.BestPriorWeight(ctx, exercise, slot)

	result, err := mcp.NewToolResultJSON(map[string]any{
		"exercise": exercise,
		"slot":     slot,
		"weight":   weight,
		"known":    weight > 0,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPendingSync(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pending, err := h.queue.Pending(ctx)
	if err != nil {
		h.log.Error("mcp get_pending_sync", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	dead, err := h.queue.DeadLetters(ctx)
	if err != nil {
		h.log.Error("mcp get_pending_sync", "error", err)
		return mcp.NewToolResultError(fmt.Sprintf("dead letter query failed: %v", err)), nil
	}

	if pending == nil {
		pending = []models.PendingSyncItem{}
	}
	if dead == nil {
		dead = []models.PendingSyncItem{}
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"pending":      pending,
		"dead_letters": dead,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
