package syncqueue

import (
	"context"
	"errors"
	"testing"
	"time"
)

type flipPinger struct {
	err error
}

func (p *flipPinger) Ping(_ context.Context) error { return p.err }

// TestMonitorTransitions verifies the online flag follows ping results
// and a reconnect triggers a queue flush.
func TestMonitorTransitions(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	remote := &failOn{}
	q := New(db, remote, 0, discardLog())
	if err := q.Enqueue(ctx, sessionOn("2026-08-01")); err != nil {
		t.Fatal(err)
	}

	pinger := &flipPinger{err: errors.New("unreachable")}
	m := NewMonitor(q, pinger, time.Second, discardLog())

	m.check(ctx)
	if m.Online() {
		t.Error("Online() = true while pings fail, want false")
	}
	if pending, _ := q.Pending(ctx); len(pending) != 1 {
		t.Errorf("queue flushed while offline: %d pending, want 1", len(pending))
	}

	// Backend comes back: the transition must flush the queue.
	pinger.err = nil
	m.check(ctx)
	if !m.Online() {
		t.Error("Online() = false after successful ping, want true")
	}
	if pending, _ := q.Pending(ctx); len(pending) != 0 {
		t.Errorf("queue not flushed on reconnect: %d pending, want 0", len(pending))
	}
	if len(remote.submitted) != 1 {
		t.Errorf("submitted %d sessions, want 1", len(remote.submitted))
	}

	// Staying online must not re-trigger anything.
	m.check(ctx)
	if !m.Online() {
		t.Error("Online() = false while pings succeed, want true")
	}

	// Going offline flips the flag back.
	pinger.err = errors.New("unreachable")
	m.check(ctx)
	if m.Online() {
		t.Error("Online() = true after failed ping, want false")
	}
}
