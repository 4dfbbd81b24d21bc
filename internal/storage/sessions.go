package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/meltforce/gymtrack/internal/models"
)

// InsertSession appends a finalized session to the permanent local
// history, keyed by (date, slot, creation instant). Sessions are never
// mutated after insert.
func (d *DB) InsertSession(ctx context.Context, s *models.Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	_, err = d.db.ExecContext(ctx,
		`INSERT INTO sessions (date, slot, created_at, workout_name, payload)
		 VALUES (?, ?, ?, ?, ?)`,
		s.Date, s.Slot, s.Timestamp.Format(time.RFC3339Nano), s.WorkoutName, payload)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	return nil
}

// SetLastSession overwrites the per-slot last-session record used by
// the history resolver's fast path.
func (d *DB) SetLastSession(ctx context.Context, s *models.Session) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	_, err = d.db.ExecContext(ctx,
		`INSERT INTO last_sessions (slot, payload, saved_at) VALUES (?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET payload = excluded.payload, saved_at = excluded.saved_at`,
		s.Slot, payload, time.Now().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving last session for slot %d: %w", s.Slot, err)
	}
	return nil
}

// LastSession returns the last-session record for a slot, or nil if
// none has been saved yet.
func (d *DB) LastSession(ctx context.Context, slot int) (*models.Session, error) {
	var payload []byte
	err := d.db.QueryRowContext(ctx,
		`SELECT payload FROM last_sessions WHERE slot = ?`, slot).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying last session for slot %d: %w", slot, err)
	}

	var s models.Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("decoding last session for slot %d: %w", slot, err)
	}
	return &s, nil
}

// ListSessions returns every session in the permanent local history,
// all slots and dates. The history resolver scans these when the
// per-slot fast path misses.
func (d *DB) ListSessions(ctx context.Context) ([]*models.Session, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT payload FROM sessions ORDER BY date ASC, slot ASC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		var s models.Session
		if err := json.Unmarshal(payload, &s); err != nil {
			return nil, fmt.Errorf("decoding session: %w", err)
		}
		sessions = append(sessions, &s)
	}
	return sessions, rows.Err()
}
