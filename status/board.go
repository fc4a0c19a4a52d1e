// Package status exposes controller snapshots over HTTP: the latest snapshot
// as JSON, a WebSocket stream of changes, and the Prometheus registry.
package status

import (
	"sync"
	"time"

	"parrot/repeater"
)

// Granularity is the duration resolution at which progress counts as a
// change worth broadcasting.
const Granularity = 100 * time.Millisecond

// Board is a repeater.StatusSink holding the latest snapshot. It broadcasts
// to the hub only when the snapshot changes at Granularity resolution, so
// the 10 ms poll loop does not flood clients.
type Board struct {
	hub *Hub

	mu     sync.RWMutex
	latest repeater.Snapshot
	sent   repeater.Snapshot
	seen   bool
}

func NewBoard(hub *Hub) *Board {
	b := &Board{hub: hub}
	if hub != nil {
		hub.greeting = func() any { return b.Latest() }
	}
	return b
}

func coarse(s repeater.Snapshot) repeater.Snapshot {
	s.RecordedDuration = s.RecordedDuration.Truncate(Granularity)
	s.PlayedDuration = s.PlayedDuration.Truncate(Granularity)
	return s
}

func (b *Board) Update(s repeater.Snapshot) {
	c := coarse(s)

	b.mu.Lock()
	b.latest = s
	changed := !b.seen || c != b.sent
	if changed {
		b.sent = c
		b.seen = true
	}
	b.mu.Unlock()

	if changed && b.hub != nil {
		b.hub.BroadcastJSON(s)
	}
}

// Latest returns the most recent snapshot.
func (b *Board) Latest() repeater.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.latest
}
