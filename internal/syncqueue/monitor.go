package syncqueue

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Pinger checks remote reachability. The gateway implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor polls the backend and triggers a queue flush on every
// offline-to-online transition. It also exposes the current
// connectivity state for the status endpoint.
type Monitor struct {
	queue    *Queue
	pinger   Pinger
	interval time.Duration
	log      *slog.Logger

	online atomic.Bool
}

// NewMonitor creates a connectivity monitor.
func NewMonitor(queue *Queue, pinger Pinger, interval time.Duration, log *slog.Logger) *Monitor {
	return &Monitor{queue: queue, pinger: pinger, interval: interval, log: log}
}

// Online reports the last observed connectivity state.
func (m *Monitor) Online() bool {
	return m.online.Load()
}

// Run polls until ctx is cancelled. Blocking: callers run it in a
// goroutine.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx)
		}
	}
}

func (m *Monitor) check(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()

	wasOnline := m.online.Load()
	nowOnline := m.pinger.Ping(pctx) == nil
	m.online.Store(nowOnline)

	switch {
	case nowOnline && !wasOnline:
		m.log.Info("connection restored, flushing sync queue")
		if _, err := m.queue.Flush(ctx); err != nil {
			m.log.Warn("flush after reconnect failed", "error", err)
		}
	case !nowOnline && wasOnline:
		m.log.Warn("connection lost, entering offline mode")
	}
}
