package history

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/storage"
)

func testDB(t *testing.T) *storage.DB {
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
	return db
}

func discardLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sessionWith(slot int, date, exercise string, weights ...float64) *models.Session {
	sets := make([]models.SetEntry, len(weights))
	for i, w := range weights {
		sets[i] = models.SetEntry{Weight: w, Completed: w > 0}
	}
	s := &models.Session{
		Slot:      slot,
		Date:      date,
		Timestamp: time.Now().UTC(),
		Exercises: map[string]*models.ExerciseResult{
			exercise: {Name: exercise, Sets: sets},
		},
	}
	s.Exercises[exercise].Recompute()
	return s
}

type fakeRemote struct {
	workouts []models.RemoteWorkout
	err      error
	calls    int
}

func (f *fakeRemote) GetHistory(_ context.Context, _ int) ([]models.RemoteWorkout, error) {
	f.calls++
	return f.workouts, f.err
}

// TestLastSessionFastPath verifies the per-slot last session wins over
// the full history scan and the remote fallback.
func TestLastSessionFastPath(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.InsertSession(ctx, sessionWith(1, "2026-08-01", "Squat", 100)); err != nil {
		t.Fatal(err)
	}
	if err := db.SetLastSession(ctx, sessionWith(1, "2026-08-20", "Squat", 80, 85, 0)); err != nil {
		t.Fatal(err)
	}

	remote := &fakeRemote{}
	r := New(db, remote, discardLog())

	if got := r.BestPriorWeight(ctx, "Squat", 1); got != 85 {
		t.Errorf("BestPriorWeight = %v, want 85 (last session max)", got)
	}
	if remote.calls != 0 {
		t.Errorf("remote called %d times, want 0", remote.calls)
	}
}

// TestHistoricalMaxFallback verifies the full-history scan returns the
// maximum weight over all slots, not the most recent one.
func TestHistoricalMaxFallback(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.InsertSession(ctx, sessionWith(2, "2026-08-01", "Deadlift", 120)); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertSession(ctx, sessionWith(1, "2026-08-20", "Deadlift", 110)); err != nil {
		t.Fatal(err)
	}

	r := New(db, nil, discardLog())

	// No last-session record for slot 1, so the scan covers all slots.
	if got := r.BestPriorWeight(ctx, "Deadlift", 1); got != 120 {
		t.Errorf("BestPriorWeight = %v, want 120 (historical max)", got)
	}
}

// TestRemoteFallback verifies remote history is consulted only when
// local records have nothing, matching slot and taking the last
// non-zero set entry.
func TestRemoteFallback(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	remote := &fakeRemote{workouts: []models.RemoteWorkout{
		{SessionNumber: 2, Exercises: []models.RemoteExercise{
			{Name: "Row", Sets: []float64{50, 55, 60}},
		}},
		{SessionNumber: 1, Exercises: []models.RemoteExercise{
			{Name: "Row", Sets: []float64{40, 45, 0}},
		}},
	}}
	r := New(db, remote, discardLog())

	if got := r.BestPriorWeight(ctx, "Row", 1); got != 45 {
		t.Errorf("BestPriorWeight = %v, want 45 (last non-zero entry for slot 1)", got)
	}
	if remote.calls != 1 {
		t.Errorf("remote called %d times, want 1", remote.calls)
	}
}

// TestUnknownExercise verifies a never-seen exercise resolves to 0
// without error, even when the remote is down.
func TestUnknownExercise(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	remote := &fakeRemote{err: errors.New("offline")}
	r := New(db, remote, discardLog())

	if got := r.BestPriorWeight(ctx, "New Move", 1); got != 0 {
		t.Errorf("BestPriorWeight = %v, want 0", got)
	}
}

// TestResolveRepeatable verifies consecutive resolutions with no
// intervening writes return the same value on every resolution path.
func TestResolveRepeatable(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.SetLastSession(ctx, sessionWith(1, "2026-08-20", "Squat", 80, 85)); err != nil {
		t.Fatal(err)
	}
	if err := db.InsertSession(ctx, sessionWith(2, "2026-08-01", "Deadlift", 120)); err != nil {
		t.Fatal(err)
	}

	remote := &fakeRemote{workouts: []models.RemoteWorkout{
		{SessionNumber: 1, Exercises: []models.RemoteExercise{
			{Name: "Row", Sets: []float64{40, 45}},
		}},
	}}
	r := New(db, remote, discardLog())

	paths := []struct {
		name     string
		exercise string
		want     float64
	}{
		{"last session", "Squat", 85},
		{"history scan", "Deadlift", 120},
		{"remote fallback", "Row", 45},
	}
	for _, p := range paths {
		first := r.BestPriorWeight(ctx, p.exercise, 1)
		second := r.BestPriorWeight(ctx, p.exercise, 1)
		if first != p.want {
			t.Errorf("%s: BestPriorWeight = %v, want %v", p.name, first, p.want)
		}
		if second != first {
			t.Errorf("%s: repeat resolution = %v, first was %v", p.name, second, first)
		}
	}
}

// TestExactNameMatch verifies renamed exercises lose history continuity.
func TestExactNameMatch(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := db.InsertSession(ctx, sessionWith(1, "2026-08-01", "Bench Press", 70)); err != nil {
		t.Fatal(err)
	}

	r := New(db, nil, discardLog())

	if got := r.BestPriorWeight(ctx, "bench press", 1); got != 0 {
		t.Errorf("BestPriorWeight = %v, want 0 (case-sensitive exact match)", got)
	}
}
