// Package syncqueue guarantees eventual delivery of sessions whose
// remote submission failed. Items are processed strictly in order and
// never dropped: flush failures keep them queued, and items that
// exhaust their attempt budget move to a dead-letter table where they
// stay inspectable and re-queueable.
package syncqueue

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/gymtrack/internal/models"
	"github.com/meltforce/gymtrack/internal/storage"
)

// Submitter sends one session to the backend. The remote gateway
// implements it.
type Submitter interface {
	SaveSession(ctx context.Context, s *models.Session) error
}

// FlushStats summarizes one flush pass.
type FlushStats struct {
	Submitted    int
	Failed       int
	DeadLettered int
}

// Queue is the persisted retry buffer.
type Queue struct {
	db          *storage.DB
	remote      Submitter
	maxAttempts int // 0 means unlimited
	log         *slog.Logger

	mu       sync.Mutex
	flushing bool
}

// New creates a queue. maxAttempts bounds per-item flush failures
// before dead-lettering; zero disables the bound.
func New(db *storage.DB, remote Submitter, maxAttempts int, log *slog.Logger) *Queue {
	return &Queue{db: db, remote: remote, maxAttempts: maxAttempts, log: log}
}

// Enqueue appends a session to the persisted queue.
func (q *Queue) Enqueue(ctx context.Context, s *models.Session) error {
	item := models.PendingSyncItem{
		ID:         uuid.NewString(),
		Payload:    s,
		EnqueuedAt: time.Now(),
	}
	if err := q.db.EnqueueSync(ctx, item); err != nil {
		return err
	}
	q.log.Info("session queued for sync", "id", item.ID, "slot", s.Slot, "date", s.Date)
	return nil
}

// Pending returns the queued items in order.
func (q *Queue) Pending(ctx context.Context) ([]models.PendingSyncItem, error) {
	return q.db.ListSyncQueue(ctx)
}

// DeadLetters returns items that exhausted their attempt budget.
func (q *Queue) DeadLetters(ctx context.Context) ([]models.PendingSyncItem, error) {
	return q.db.ListDeadLetters(ctx)
}

// RequeueDeadLetters moves all dead-lettered items back onto the queue
// tail with reset attempt counts.
func (q *Queue) RequeueDeadLetters(ctx context.Context) (int, error) {
	return q.db.RequeueDeadLetters(ctx)
}

// Flush processes the queue in order, one item at a time. Successes
// are removed; failures remain in their original relative position for
// the next pass. Partial success is normal. A Flush while another is
// running is a no-op, so the same queue is never walked twice
// concurrently.
func (q *Queue) Flush(ctx context.Context) (FlushStats, error) {
	q.mu.Lock()
	if q.flushing {
		q.mu.Unlock()
		return FlushStats{}, nil
	}
	q.flushing = true
	q.mu.Unlock()
	defer func() {
		q.mu.Lock()
		q.flushing = false
		q.mu.Unlock()
	}()

	items, err := q.db.ListSyncQueue(ctx)
	if err != nil {
		return FlushStats{}, err
	}
	if len(items) == 0 {
		return FlushStats{}, nil
	}
	q.log.Info("flushing sync queue", "pending", len(items))

	var stats FlushStats
	for _, item := range items {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}

		if err := q.remote.SaveSession(ctx, item.Payload); err != nil {
			stats.Failed++
			attempts, berr := q.db.BumpSyncAttempts(ctx, item.ID)
			if berr != nil {
				q.log.Warn("failed to record sync attempt", "id", item.ID, "error", berr)
				continue
			}
			q.log.Warn("sync item failed", "id", item.ID, "attempts", attempts, "error", err)

			if q.maxAttempts > 0 && attempts >= q.maxAttempts {
				if derr := q.db.MoveToDeadLetter(ctx, item.ID); derr != nil {
					q.log.Warn("dead-lettering failed", "id", item.ID, "error", derr)
					continue
				}
				stats.DeadLettered++
				q.log.Warn("sync item dead-lettered", "id", item.ID, "attempts", attempts)
			}
			continue
		}

		if err := q.db.DeleteSyncItem(ctx, item.ID); err != nil {
			return stats, err
		}
		stats.Submitted++
	}

	q.log.Info("flush finished",
		"submitted", stats.Submitted,
		"failed", stats.Failed,
		"dead_lettered", stats.DeadLettered,
	)
	return stats, nil
}
