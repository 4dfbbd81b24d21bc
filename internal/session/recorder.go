// Package session manages the life cycle of one active workout session
// from start to save: weight entry, volume/max bookkeeping, debounced
// local autosave, and the save path that hands failed remote
// submissions to the sync queue.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/meltforce/gymtrack/internal/history"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/planstore"
	"github.com/meltforce/gymtrack/internal/storage"
)

// RemoteSaver submits a finalized session to the backend. The remote
// gateway implements it.
type RemoteSaver interface {
	SaveSession(ctx context.Context, s *models.Session) error
}

// Enqueuer accepts sessions whose remote submission failed. The sync
// queue implements it.
type Enqueuer interface {
	Enqueue(ctx context.Context, s *models.Session) error
}

// Limits bound weight entry.
type Limits struct {
	MinWeight float64
	MaxWeight float64
}

// WeightResult reports what ValidateWeight did with an input value.
type WeightResult struct {
	Weight  float64 `json:"weight"`
	Clamped bool    `json:"clamped,omitempty"` // value exceeded MaxWeight
	Cleared bool    `json:"cleared,omitempty"` // value fell below MinWeight
	Warning string  `json:"warning,omitempty"` // note for the UI, empty when accepted as-is
}

// SaveResult reports the outcome of a save: the session always persists
// locally; Synced tells whether the remote submission succeeded or the
// session went to the sync queue instead.
type SaveResult struct {
	Session *models.Session
	Synced  bool
}

// Recorder owns the in-progress session. All methods are safe for
// concurrent use; the original ran on a single-threaded event loop and
// the mutex reproduces that serialization.
type Recorder struct {
	db       *storage.DB
	plans    *planstore.Store
	resolver *history.Resolver
	remote   RemoteSaver
	queue    Enqueuer
	log      *slog.Logger

	limits        Limits
	autosaveDelay time.Duration

	mu         sync.Mutex
	current    *models.Session
	order      []models.Exercise // slot exercises in plan order
	timer      *time.Timer
	generation uint64 // bumped on Start and Save; stale autosaves check it
}

// New creates a recorder. remote and queue may be nil in tests.
func New(db *storage.DB, plans *planstore.Store, resolver *history.Resolver,
	remote RemoteSaver, queue Enqueuer, limits Limits, autosaveDelay time.Duration,
	log *slog.Logger) *Recorder {
	return &Recorder{
		db:            db,
		plans:         plans,
		resolver:      resolver,
		remote:        remote,
		queue:         queue,
		limits:        limits,
		autosaveDelay: autosaveDelay,
		log:           log,
	}
}

// Start begins a session for the given slot of the active plan. A plan
// without exercises for the slot yields *NoActivePlanError; there is no
// silent fallback to placeholder data. For slot 3 every set weight is
// precomputed from prior history and the session is read-only.
func (r *Recorder) Start(ctx context.Context, slot int) (*models.Session, error) {
	if slot < 1 || slot > 3 {
		return nil, fmt.Errorf("invalid slot %d", slot)
	}

	plan, err := r.plans.Active(ctx)
	if err != nil {
		return nil, err
	}
	workout := plan.WorkoutBySlot(slot)
	if workout == nil || len(workout.Exercises) == 0 {
		return nil, &NoActivePlanError{Slot: slot}
	}

	now := time.Now()
	s := &models.Session{
		Slot:        slot,
		WorkoutName: workout.Name,
		Date:        now.Format("2006-01-02"),
		Timestamp:   now,
		Exercises:   make(map[string]*models.ExerciseResult, len(workout.Exercises)),
	}

	for _, ex := range workout.Exercises {
		result := &models.ExerciseResult{
			Name:     ex.Name,
			Category: ex.Category,
			Sets:     make([]models.SetEntry, ex.Sets),
		}
		for i := range result.Sets {
			result.Sets[i].Reps = ex.Reps
		}
		s.Exercises[ex.Name] = result
	}

	if slot == 3 {
		r.fillDerivedWeights(ctx, workout, s)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimerLocked()
	r.generation++
	r.current = s
	r.order = append([]models.Exercise(nil), workout.Exercises...)
	r.log.Info("session started", "slot", slot, "workout", workout.Name, "exercises", len(workout.Exercises))
	return s.Clone(), nil
}

// fillDerivedWeights precomputes every set of a derived-workout session
// as round(bestPrior * 0.75, 1 decimal). The best prior is the larger
// of the slot-1 and slot-2 resolutions, falling back to the global
// historical max. Exercises with no prior anywhere stay at weight 0
// with Completed=false, rendered as "no data".
func (r *Recorder) fillDerivedWeights(ctx context.Context, workout *models.Workout, s *models.Session) {
	for _, ex := range workout.Exercises {
		base := math.Max(
			r.resolver.BestPriorWeight(ctx, ex.Name, 1),
			r.resolver.BestPriorWeight(ctx, ex.Name, 2),
		)
		if base == 0 {
			base = r.resolver.HistoricalMax(ctx, ex.Name)
		}

		reduced := round1(base * planstore.LightFactor)
		result := s.Exercises[ex.Name]
		for i := range result.Sets {
			result.Sets[i].Weight = reduced
			result.Sets[i].Completed = reduced > 0
		}
		result.Recompute()
	}
}

// ValidateWeight applies the configured bounds: values below the
// minimum are cleared to zero ("not completed"), values above the
// maximum are clamped with a warning.
func (r *Recorder) ValidateWeight(value float64) WeightResult {
	if value < r.limits.MinWeight || value <= 0 {
		return WeightResult{Weight: 0, Cleared: value != 0}
	}
	if value > r.limits.MaxWeight {
		return WeightResult{
			Weight:  r.limits.MaxWeight,
			Clamped: true,
			Warning: fmt.Sprintf("maximum weight is %.0f kg", r.limits.MaxWeight),
		}
	}
	return WeightResult{Weight: value}
}

// SetWeight records a weight for one set of an exercise, recomputes the
// exercise's volume and max, and schedules a debounced autosave. Slot-3
// sessions are read-only.
func (r *Recorder) SetWeight(exercise string, setIdx int, value float64) (WeightResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return WeightResult{}, fmt.Errorf("no active session")
	}
	if r.current.Slot == 3 {
		return WeightResult{}, fmt.Errorf("derived workout session is read-only")
	}
	result, ok := r.current.Exercises[exercise]
	if !ok {
		return WeightResult{}, fmt.Errorf("exercise %q not in active session", exercise)
	}
	if setIdx < 0 || setIdx >= len(result.Sets) {
		return WeightResult{}, fmt.Errorf("set %d out of range for %q", setIdx, exercise)
	}

	vr := r.ValidateWeight(value)
	result.Sets[setIdx].Weight = vr.Weight
	result.Sets[setIdx].Completed = vr.Weight > 0
	result.Recompute()

	r.scheduleAutosaveLocked()
	return vr, nil
}

// Collect snapshots the current input state, or returns nil when no
// session is active.
func (r *Recorder) Collect() *models.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil
	}
	return r.current.Clone()
}

// Exercises returns the active session's exercises in plan order, or
// nil when no session is active. The session map itself has no order.
func (r *Recorder) Exercises() []models.Exercise {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Exercise(nil), r.order...)
}

// Save finalizes the session: it persists the permanent history record
// and the per-slot last-session record, then attempts remote
// submission. The in-memory session is released only after both local
// writes succeed, so a failed save leaves the session active and
// retryable. On remote failure the session goes to the sync queue; the
// save itself still succeeds, even when queueing fails too, since the
// session is already in local history. A session without any positive
// weight is rejected with *EmptySessionError.
func (r *Recorder) Save(ctx context.Context) (*SaveResult, error) {
	r.mu.Lock()
	if r.current == nil {
		r.mu.Unlock()
		return nil, fmt.Errorf("no active session")
	}
	snapshot := r.current.Clone()
	gen := r.generation
	r.mu.Unlock()

	if !snapshot.HasData() {
		return nil, &EmptySessionError{}
	}

	if err := r.db.InsertSession(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}
	if err := r.db.SetLastSession(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("saving last session: %w", err)
	}

	// The session is in local history now; release it. The generation
	// check leaves a session started mid-save alone.
	r.mu.Lock()
	if r.generation == gen {
		r.stopTimerLocked()
		r.generation++
		r.current = nil
		r.order = nil
	}
	r.mu.Unlock()

	res := &SaveResult{Session: snapshot}
	if r.remote == nil {
		return res, nil
	}

	if err := r.remote.SaveSession(ctx, snapshot); err != nil {
		r.log.Warn("remote submission failed, queueing", "slot", snapshot.Slot, "error", err)
		if r.queue != nil {
			if qerr := r.queue.Enqueue(ctx, snapshot); qerr != nil {
				r.log.Error("queueing session after remote failure", "slot", snapshot.Slot, "error", qerr)
			}
		}
		return res, nil
	}

	res.Synced = true
	r.log.Info("session saved and synced", "slot", snapshot.Slot, "date", snapshot.Date)
	return res, nil
}

// scheduleAutosaveLocked resets the single-shot autosave timer. Only
// the latest scheduled autosave fires; the generation check discards a
// timer that outlives its session.
func (r *Recorder) scheduleAutosaveLocked() {
	gen := r.generation
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.autosaveDelay, func() {
		r.autosave(gen)
	})
}

func (r *Recorder) autosave(gen uint64) {
	r.mu.Lock()
	if r.current == nil || r.generation != gen {
		r.mu.Unlock()
		return
	}
	snapshot := r.current.Clone()
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.db.SetLastSession(ctx, snapshot); err != nil {
		r.log.Warn("autosave failed", "slot", snapshot.Slot, "error", err)
		return
	}
	r.log.Debug("session autosaved", "slot", snapshot.Slot)
}

func (r *Recorder) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
