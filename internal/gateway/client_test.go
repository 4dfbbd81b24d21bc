package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/meltforce/gymtrack/internal/models"
)

// TestPing verifies the action query parameter and success decoding.
func TestPing(t *testing.T) {
	var gotAction string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAction = r.URL.Query().Get("action")
		json.NewEncoder(w).Encode(models.RemoteResult{Success: true})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotAction != "ping" {
		t.Errorf("action = %q, want %q", gotAction, "ping")
	}
}

// TestPingServerFailure verifies success=false surfaces as *NetworkError.
func TestPingServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.RemoteResult{Success: false})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	err := c.Ping(context.Background())
	var nerr *NetworkError
	if !errors.As(err, &nerr) {
		t.Fatalf("error = %v, want *NetworkError", err)
	}
}

// TestGetHistory verifies the limit parameter and workout decoding.
func TestGetHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "10" {
			t.Errorf("limit = %q, want %q", got, "10")
		}
		if got := r.Header.Get("Cache-Control"); got != "no-store" {
			t.Errorf("Cache-Control = %q, want %q", got, "no-store")
		}
		json.NewEncoder(w).Encode(models.RemoteHistory{
			Success: true,
			Workouts: []models.RemoteWorkout{
				{SessionNumber: 1, SessionName: "First", Exercises: []models.RemoteExercise{
					{Name: "Squat", MaxWeight: 100, Sets: []float64{90, 95, 100}},
				}},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	workouts, err := c.GetHistory(context.Background(), 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(workouts) != 1 || workouts[0].Exercises[0].Name != "Squat" {
		t.Errorf("workouts = %+v, want one with Squat", workouts)
	}
}

// TestSaveSessionEnvelope verifies the POST wire format: a JSON envelope
// sent as text/plain so the hosted backend skips the CORS preflight.
func TestSaveSessionEnvelope(t *testing.T) {
	var gotContentType string
	var gotEnvelope struct {
		Action string          `json:"action"`
		Data   json.RawMessage `json:"data"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotEnvelope); err != nil {
			t.Errorf("bad envelope: %v", err)
		}
		json.NewEncoder(w).Encode(models.RemoteResult{Success: true})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	s := &models.Session{Slot: 1, Date: "2026-08-30", Exercises: map[string]*models.ExerciseResult{}}
	if err := c.SaveSession(context.Background(), s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotContentType != "text/plain" {
		t.Errorf("Content-Type = %q, want %q", gotContentType, "text/plain")
	}
	if gotEnvelope.Action != "saveWorkoutSession" {
		t.Errorf("action = %q, want %q", gotEnvelope.Action, "saveWorkoutSession")
	}

	var sent models.Session
	if err := json.Unmarshal(gotEnvelope.Data, &sent); err != nil {
		t.Fatalf("decoding data: %v", err)
	}
	if sent.Date != "2026-08-30" {
		t.Errorf("sent date = %q, want %q", sent.Date, "2026-08-30")
	}
}

// TestSaveSessionRetries verifies transient failures are retried and a
// later success wins.
func TestSaveSessionRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(models.RemoteResult{Success: true})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	if err := c.SaveSession(context.Background(), &models.Session{Slot: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

// TestSaveSessionRejection verifies a server-side rejection message is
// preserved in the error chain.
func TestSaveSessionRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.RemoteResult{Success: false, Message: "quota exceeded"})
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	err := c.SaveSession(context.Background(), &models.Session{Slot: 1})
	var nerr *NetworkError
	if !errors.As(err, &nerr) {
		t.Fatalf("error = %v, want *NetworkError", err)
	}
	if nerr.Op != "saveWorkoutSession" {
		t.Errorf("op = %q, want %q", nerr.Op, "saveWorkoutSession")
	}
}

// TestSaveActivePlanSingleAttempt verifies plan notifications are never
// retried.
func TestSaveActivePlanSingleAttempt(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, time.Second)
	if err := c.SaveActivePlan(context.Background(), &models.Plan{ID: 1}); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

// TestUnreachableBackend verifies transport errors surface as *NetworkError.
func TestUnreachableBackend(t *testing.T) {
	c := New("http://127.0.0.1:1", 200*time.Millisecond)

	var nerr *NetworkError
	if err := c.Ping(context.Background()); !errors.As(err, &nerr) {
		t.Errorf("Ping error = %v, want *NetworkError", err)
	}
	if _, err := c.GetRecords(context.Background()); !errors.As(err, &nerr) {
		t.Errorf("GetRecords error = %v, want *NetworkError", err)
	}
}
