package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/meltforce/gymtrack/internal/models"
)

// EnqueueSync appends an item to the persisted sync queue. Order is
// preserved by an autoincrement sequence column.
func (d *DB) EnqueueSync(ctx context.Context, item models.PendingSyncItem) error {
	payload, err := json.Marshal(item.Payload)
	if err != nil {
		return fmt.Errorf("encoding queued session: %w", err)
	}

	_, err = d.db.ExecContext(ctx,
		`INSERT INTO sync_queue (id, payload, enqueued_at, attempts) VALUES (?, ?, ?, ?)`,
		item.ID, payload, item.EnqueuedAt.Format(time.RFC3339Nano), item.Attempts)
	if err != nil {
		return fmt.Errorf("enqueueing sync item: %w", err)
	}
	return nil
}

// ListSyncQueue returns all pending items in enqueue order.
func (d *DB) ListSyncQueue(ctx context.Context) ([]models.PendingSyncItem, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, payload, enqueued_at, attempts FROM sync_queue ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying sync queue: %w", err)
	}
	defer rows.Close()
	return scanSyncItems(rows)
}

// DeleteSyncItem removes a successfully submitted item from the queue.
func (d *DB) DeleteSyncItem(ctx context.Context, id string) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting sync item %s: %w", id, err)
	}
	return nil
}

// BumpSyncAttempts increments the failure count of a queued item and
// returns the new count.
func (d *DB) BumpSyncAttempts(ctx context.Context, id string) (int, error) {
	_, err := d.db.ExecContext(ctx,
		`UPDATE sync_queue SET attempts = attempts + 1 WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("updating sync attempts for %s: %w", id, err)
	}

	var attempts int
	if err := d.db.QueryRowContext(ctx,
		`SELECT attempts FROM sync_queue WHERE id = ?`, id).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("reading sync attempts for %s: %w", id, err)
	}
	return attempts, nil
}

// MoveToDeadLetter moves a queued item into the dead-letter table.
// Items are never dropped; exhausted ones stay inspectable here and can
// be re-queued.
func (d *DB) MoveToDeadLetter(ctx context.Context, id string) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO dead_letters (id, payload, enqueued_at, attempts, failed_at)
		 SELECT id, payload, enqueued_at, attempts, ? FROM sync_queue WHERE id = ?`,
		time.Now().Format(time.RFC3339Nano), id)
	if err != nil {
		return fmt.Errorf("copying sync item %s to dead letters: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sync item %s not found", id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sync_queue WHERE id = ?`, id); err != nil {
		return fmt.Errorf("removing sync item %s: %w", id, err)
	}

	return tx.Commit()
}

// ListDeadLetters returns dead-lettered items in failure order.
func (d *DB) ListDeadLetters(ctx context.Context) ([]models.PendingSyncItem, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, payload, enqueued_at, attempts FROM dead_letters ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying dead letters: %w", err)
	}
	defer rows.Close()
	return scanSyncItems(rows)
}

// RequeueDeadLetters moves every dead-lettered item back onto the tail
// of the sync queue with a reset attempt count.
func (d *DB) RequeueDeadLetters(ctx context.Context) (int, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO sync_queue (id, payload, enqueued_at, attempts)
		 SELECT id, payload, enqueued_at, 0 FROM dead_letters ORDER BY seq ASC`)
	if err != nil {
		return 0, fmt.Errorf("requeueing dead letters: %w", err)
	}
	n, _ := res.RowsAffected()
	if _, err := tx.ExecContext(ctx, `DELETE FROM dead_letters`); err != nil {
		return 0, fmt.Errorf("clearing dead letters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(n), nil
}

type scannable interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanSyncItems(rows scannable) ([]models.PendingSyncItem, error) {
	var items []models.PendingSyncItem
	for rows.Next() {
		var item models.PendingSyncItem
		var payload []byte
		var enqueuedAt string
		if err := rows.Scan(&item.ID, &payload, &enqueuedAt, &item.Attempts); err != nil {
			return nil, fmt.Errorf("scanning sync item: %w", err)
		}
		var s models.Session
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, fmt.Errorf("decoding queued session: %w", err)
		}
		item.Payload = &s
		if t, err := time.Parse(time.RFC3339Nano, enqueuedAt); err == nil {
			item.EnqueuedAt = t
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
