package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/gymtrack/internal/history"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/planstore"
	"github.com/meltforce/gymtrack/internal/storage"
	"github.com/meltforce/gymtrack/internal/syncqueue"
)

func testHandlers(t *testing.T) *handlers {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gymtrack.db")
	migrations, err := filepath.Abs("../../migrations")
	if err != nil {
		t.Fatal(err)
	}
	if err := storage.RunMigrations(path, migrations); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	db, err := storage.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &handlers{
		plans:    planstore.New(db, nil, log),
		db:       db,
		resolver: history.New(db, nil, log),
		queue:    syncqueue.New(db, nil, 0, log),
		log:      log,
	}
}

func callReq(args map[string]any) mcplib.CallToolRequest {
	req := mcplib.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func textContent(t *testing.T, res *mcplib.CallToolResult) string {
	t.Helper()
	if res.IsError {
		t.Fatalf("tool returned error result: %+v", res.Content)
	}
	if len(res.Content) == 0 {
		t.Fatal("tool returned no content")
	}
	tc, ok := res.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatalf("content[0] is %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

// TestListPlansTool verifies the tool returns the fail-safe plan as JSON
// on an empty store.
func TestListPlansTool(t *testing.T) {
	h := testHandlers(t)

	res, err := h.listPlans(context.Background(), callReq(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var plans []models.Plan
	if err := json.Unmarshal([]byte(textContent(t, res)), &plans); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(plans) != 1 || plans[0].Name != "New Plan" {
		t.Errorf("plans = %+v, want the fail-safe plan", plans)
	}
}

// TestBestPriorWeightTool verifies parameter validation and the
// no-data response shape.
func TestBestPriorWeightTool(t *testing.T) {
	h := testHandlers(t)
	ctx := context.Background()

	res, err := h.bestPriorWeight(ctx, callReq(map[string]any{"slot": 1}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsError {
		t.Error("expected error result for missing exercise")
	}

	res, err = h.bestPriorWeight(ctx, callReq(map[string]any{"exercise": "Squat", "slot": 9}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsError {
		t.Error("expected error result for slot out of range")
	}

	res, err = h.bestPriorWeight(ctx, callReq(map[string]any{"exercise": "Squat", "slot": 1}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var body struct {
		Weight float64 `json:"weight"`
		Known  bool    `json:"known"`
	}
	if err := json.Unmarshal([]byte(textContent(t, res)), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Known || body.Weight != 0 {
		t.Errorf("body = %+v, want no data", body)
	}
}

// TestGetSessionsTool verifies the slot filter and limit.
func TestGetSessionsTool(t *testing.T) {
	h := testHandlers(t)
	ctx := context.Background()

	for _, slot := range []int{1, 2, 1} {
		s := &models.Session{
			Slot: slot,
			Date: "2026-08-30",
			Exercises: map[string]*models.ExerciseResult{
				"Squat": {Name: "Squat", Sets: []models.SetEntry{{Weight: 80, Completed: true}}},
			},
		}
		if err := h.db.InsertSession(ctx, s); err != nil {
			t.Fatal(err)
		}
	}

	res, err := h.getSessions(ctx, callReq(map[string]any{"slot": 1}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sessions []models.Session
	if err := json.Unmarshal([]byte(textContent(t, res)), &sessions); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("slot-1 sessions = %d, want 2", len(sessions))
	}

	res, err = h.getSessions(ctx, callReq(map[string]any{"limit": 1}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := json.Unmarshal([]byte(textContent(t, res)), &sessions); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sessions) != 1 {
		t.Errorf("limited sessions = %d, want 1", len(sessions))
	}
}

// TestGetPendingSyncTool verifies the empty-queue response shape.
func TestGetPendingSyncTool(t *testing.T) {
	h := testHandlers(t)

	res, err := h.getPendingSync(context.Background(), callReq(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body struct {
		Pending     []models.PendingSyncItem `json:"pending"`
		DeadLetters []models.PendingSyncItem `json:"dead_letters"`
	}
	if err := json.Unmarshal([]byte(textContent(t, res)), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Pending) != 0 || len(body.DeadLetters) != 0 {
		t.Errorf("body = %+v, want empty queue", body)
	}
}

// TestActivePlanResource verifies the resource serves the active plan as JSON.
func TestActivePlanResource(t *testing.T) {
	h := testHandlers(t)

	req := mcplib.ReadResourceRequest{}
	req.Params.URI = "gymtrack://active_plan"

	contents, err := h.activePlan(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d entries, want 1", len(contents))
	}
	tc, ok := contents[0].(mcplib.TextResourceContents)
	if !ok {
		t.Fatalf("contents[0] is %T, want TextResourceContents", contents[0])
	}
	var plan models.Plan
	if err := json.Unmarshal([]byte(tc.Text), &plan); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if plan.ID != 1 {
		t.Errorf("plan id = %d, want 1 (fail-safe)", plan.ID)
	}
}
