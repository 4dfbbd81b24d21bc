// Package history resolves the most relevant prior weight for an
// exercise. Lookups never fail: every error path degrades to 0, which
// callers render as "no data".
package history

import (
	"context"
	"log/slog"

	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/storage"
)

// remoteLimit caps how many sessions the remote fallback fetches.
const remoteLimit = 10

// RemoteHistory is the slice of the gateway the resolver needs.
type RemoteHistory interface {
	GetHistory(ctx context.Context, limit int) ([]models.RemoteWorkout, error)
}

// Resolver finds prior weights from local records first, then remote
// history.
type Resolver struct {
	db     *storage.DB
	remote RemoteHistory
	log    *slog.Logger
}

// New creates a resolver. remote may be nil, disabling the remote
// fallback.
func New(db *storage.DB, remote RemoteHistory, log *slog.Logger) *Resolver {
	return &Resolver{db: db, remote: remote, log: log}
}

// BestPriorWeight returns the most relevant prior weight for an
// exercise in a slot, or 0 when no data exists anywhere.
//
// Resolution order:
//  1. the per-slot last-session record (max weight across its sets);
//  2. all locally persisted sessions, all slots and dates. Local
//     records carry no strict chronological index, so this is the
//     maximum weight over all matching history, not a timestamp-sorted
//     pick — a deliberate replication of legacy semantics;
//  3. remote history for the slot (last non-zero entry of the
//     exercise's ordered set data).
//
// Exercise names match exactly: a renamed exercise silently loses its
// history continuity.
func (r *Resolver) BestPriorWeight(ctx context.Context, exercise string, slot int) float64 {
	if w := r.lastSessionWeight(ctx, exercise, slot); w > 0 {
		return w
	}
	if w := r.HistoricalMax(ctx, exercise); w > 0 {
		return w
	}
	return r.remoteWeight(ctx, exercise, slot)
}

// HistoricalMax scans the whole local session history, all slots and
// dates, for the exercise's maximum recorded weight.
func (r *Resolver) HistoricalMax(ctx context.Context, exercise string) float64 {
	sessions, err := r.db.ListSessions(ctx)
	if err != nil {
		r.log.Warn("history scan failed", "exercise", exercise, "error", err)
		return 0
	}

	max := 0.0
	for _, s := range sessions {
		if ex, ok := s.Exercises[exercise]; ok && ex.MaxWeight > max {
			max = ex.MaxWeight
		}
	}
	return max
}

func (r *Resolver) lastSessionWeight(ctx context.Context, exercise string, slot int) float64 {
	last, err := r.db.LastSession(ctx, slot)
	if err != nil {
		r.log.Warn("last-session lookup failed", "slot", slot, "error", err)
		return 0
	}
	if last == nil {
		return 0
	}
	ex, ok := last.Exercises[exercise]
	if !ok {
		return 0
	}

	max := 0.0
	for _, set := range ex.Sets {
		if set.Weight > max {
			max = set.Weight
		}
	}
	return max
}

func (r *Resolver) remoteWeight(ctx context.Context, exercise string, slot int) float64 {
	if r.remote == nil {
		return 0
	}
	workouts, err := r.remote.GetHistory(ctx, remoteLimit)
	if err != nil {
		r.log.Warn("remote history unavailable", "exercise", exercise, "error", err)
		return 0
	}

	for _, w := range workouts {
		if w.SessionNumber != slot {
			continue
		}
		for _, ex := range w.Exercises {
			if ex.Name != exercise {
				continue
			}
			// Last non-zero entry of the ordered set data.
			for i := len(ex.Sets) - 1; i >= 0; i-- {
				if ex.Sets[i] > 0 {
					return ex.Sets[i]
				}
			}
		}
	}
	return 0
}
