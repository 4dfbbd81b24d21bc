// Package planstore owns the persisted plan collection and the
// active-plan reference. All mutations re-read stored state first so a
// stale in-memory copy can never be written back over a newer one.
package planstore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/storage"
)

// ActivePlanNotifier receives best-effort notifications when a plan
// becomes active. The remote gateway implements it.
type ActivePlanNotifier interface {
	SaveActivePlan(ctx context.Context, p *models.Plan) error
}

// Store provides CRUD over the persisted plan collection.
type Store struct {
	db       *storage.DB
	notifier ActivePlanNotifier
	log      *slog.Logger
}

// New creates a plan store. notifier may be nil, disabling remote
// notifications.
func New(db *storage.DB, notifier ActivePlanNotifier, log *slog.Logger) *Store {
	return &Store{db: db, notifier: notifier, log: log}
}

// List returns all plans in store order. Rows with undecodable workout
// data are dropped individually; only when the whole store is empty or
// unreadable does List fail safe by creating, persisting and activating
// a single empty plan.
func (s *Store) List(ctx context.Context) ([]models.Plan, error) {
	plans, corrupt, err := s.db.LoadPlans(ctx)
	if err != nil {
		s.log.Warn("plan collection unreadable, recreating empty plan", "error", err)
		plans = nil
	}
	for _, id := range corrupt {
		s.log.Warn("dropping plan with undecodable workouts", "id", id)
	}
	if len(plans) > 0 {
		return plans, nil
	}

	empty := emptyPlan(1)
	if err := s.db.ReplacePlans(ctx, []models.Plan{empty}); err != nil {
		return nil, fmt.Errorf("creating fail-safe plan: %w", err)
	}
	if err := s.db.SetActivePlanID(ctx, empty.ID); err != nil {
		return nil, fmt.Errorf("activating fail-safe plan: %w", err)
	}
	s.log.Info("created empty plan", "id", empty.ID)
	return []models.Plan{empty}, nil
}

// Get returns the plan with the given id, or nil if it does not exist.
func (s *Store) Get(ctx context.Context, id int) (*models.Plan, error) {
	plans, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range plans {
		if plans[i].ID == id {
			return &plans[i], nil
		}
	}
	return nil, nil
}

// Active returns the currently active plan. The active-plan reference
// always points at an existing plan; if the stored reference is stale
// or unset, the first plan becomes active.
func (s *Store) Active(ctx context.Context) (*models.Plan, error) {
	plans, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	activeID, err := s.db.ActivePlanID(ctx)
	if err != nil {
		return nil, err
	}
	for i := range plans {
		if plans[i].ID == activeID {
			return &plans[i], nil
		}
	}

	// Stale or missing reference: repair by activating the first plan.
	if err := s.db.SetActivePlanID(ctx, plans[0].ID); err != nil {
		return nil, err
	}
	return &plans[0], nil
}

// Create allocates a new plan with id max(existing)+1 and placeholder
// workouts, persists it and returns it. The new plan is not activated.
func (s *Store) Create(ctx context.Context) (*models.Plan, error) {
	plans, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	maxID := 0
	for _, p := range plans {
		if p.ID > maxID {
			maxID = p.ID
		}
	}
	plan := emptyPlan(maxID + 1)

	if err := s.db.UpsertPlan(ctx, plan); err != nil {
		return nil, err
	}
	s.log.Info("plan created", "id", plan.ID)
	return &plan, nil
}

// Save validates and persists a plan. The derived workout is recomputed
// from the current derivation flags before validation; a rejected save
// mutates nothing.
func (s *Store) Save(ctx context.Context, plan models.Plan) (*models.Plan, error) {
	if strings.TrimSpace(plan.Name) == "" {
		return nil, &ValidationError{Reason: "plan name must not be empty"}
	}
	if !hasNamedExercise(plan.WorkoutA) {
		return nil, &ValidationError{Reason: "first workout needs at least one exercise"}
	}
	if !hasNamedExercise(plan.WorkoutB) {
		return nil, &ValidationError{Reason: "second workout needs at least one exercise"}
	}

	plan.WorkoutC = DeriveLight(plan.WorkoutA, plan.WorkoutB)
	if len(plan.WorkoutC.Exercises) == 0 {
		return nil, &ValidationError{Reason: "select at least one exercise for the third workout"}
	}

	if err := plan.Validate(); err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	// Re-read stored state: is this plan new, and is it active?
	existing, _, err := s.db.LoadPlans(ctx)
	if err != nil {
		return nil, err
	}
	isNew := true
	for _, p := range existing {
		if p.ID == plan.ID {
			isNew = false
			break
		}
	}
	activeID, err := s.db.ActivePlanID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.db.UpsertPlan(ctx, plan); err != nil {
		return nil, err
	}
	s.log.Info("plan saved", "id", plan.ID, "name", plan.Name)

	if isNew || plan.ID == activeID {
		if err := s.SetActive(ctx, plan.ID); err != nil {
			return nil, err
		}
	}
	return &plan, nil
}

// Delete removes a plan. Deleting the last remaining plan is rejected.
// If the deleted plan was active, the first remaining plan (store
// order) becomes active. Remaining plans are re-indexed to contiguous
// ids 1..N preserving relative order — legacy behavior, kept
// deliberately.
func (s *Store) Delete(ctx context.Context, id int) error {
	plans, err := s.List(ctx)
	if err != nil {
		return err
	}
	if len(plans) <= 1 {
		return &InvariantError{Reason: "at least one plan must remain"}
	}

	activeID, err := s.db.ActivePlanID(ctx)
	if err != nil {
		return err
	}

	var remaining []models.Plan
	found := false
	for _, p := range plans {
		if p.ID == id {
			found = true
			continue
		}
		remaining = append(remaining, p)
	}
	if !found {
		return nil
	}

	deletedActive := id == activeID
	oldActiveID := activeID
	for i := range remaining {
		if remaining[i].ID == oldActiveID {
			activeID = i + 1 // id after re-indexing
		}
		remaining[i].ID = i + 1
	}
	if deletedActive {
		activeID = remaining[0].ID
	}

	if err := s.db.ReplacePlans(ctx, remaining); err != nil {
		return err
	}
	if err := s.db.SetActivePlanID(ctx, activeID); err != nil {
		return err
	}
	s.log.Info("plan deleted", "id", id, "remaining", len(remaining), "active", activeID)
	return nil
}

// SetActive updates the active-plan reference. Unknown ids are a no-op.
// The remote notification is fire-and-forget: it runs in the background
// with its own timeout and only logs on failure, never rolling back the
// local change.
func (s *Store) SetActive(ctx context.Context, id int) error {
	plan, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if plan == nil {
		return nil
	}

	if err := s.db.SetActivePlanID(ctx, id); err != nil {
		return err
	}
	s.log.Info("plan activated", "id", id)

	if s.notifier != nil {
		notify := *plan
		go func() {
			nctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := s.notifier.SaveActivePlan(nctx, &notify); err != nil {
				s.log.Warn("active plan notification failed", "id", notify.ID, "error", err)
			}
		}()
	}
	return nil
}

func hasNamedExercise(w models.Workout) bool {
	for _, ex := range w.Exercises {
		if strings.TrimSpace(ex.Name) != "" {
			return true
		}
	}
	return false
}

func emptyPlan(id int) models.Plan {
	return models.Plan{
		ID:          id,
		Name:        "New Plan",
		Description: "Configure your workouts",
		WorkoutA:    models.Workout{ID: 1, Name: "First Workout", Description: "To configure"},
		WorkoutB:    models.Workout{ID: 2, Name: "Second Workout", Description: "To configure"},
		WorkoutC:    models.Workout{ID: 3, Name: "Third Workout - Light", Description: "Generated automatically"},
	}
}
