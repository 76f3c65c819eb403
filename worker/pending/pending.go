// Package pending tracks outstanding block asks so the worker can re-ask
// another peer on timeout (spec §4.4 "Pending requests").
package pending

import (
	"sync"
	"time"
)

// Key identifies one outstanding ask: at most one may be pending per
// (Peer, BlockID) pair (spec §4.4).
type Key struct {
	Peer    string
	BlockID [32]byte
}

// Entry is a timed-out ask delivered on the Tracker's Expired channel.
type Entry struct {
	Peer    string
	BlockID [32]byte
}

// Tracker records (peer, block_id, deadline) triples. Timers run on their
// own goroutines (the only concurrency here - everything else in the
// worker is single-threaded) and report expiry onto a channel the worker
// selects on, preserving the cooperative event-loop model (spec §5).
type Tracker struct {
	mu      sync.Mutex
	timers  map[Key]*time.Timer
	expired chan Entry
}

// NewTracker creates a Tracker whose Expired channel is sized as given;
// the worker drains it promptly, so a small buffer is enough to avoid
// blocking timer goroutines under normal load.
func NewTracker(expiredBuffer int) *Tracker {
	if expiredBuffer < 1 {
		expiredBuffer = 1
	}
	return &Tracker{
		timers:  make(map[Key]*time.Timer),
		expired: make(chan Entry, expiredBuffer),
	}
}

// Add records a new pending ask with the given deadline, returning false
// if one is already outstanding for this (peer, block_id) pair.
func (t *Tracker) Add(peer string, blockID [32]byte, deadline time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := Key{Peer: peer, BlockID: blockID}
	if _, exists := t.timers[key]; exists {
		return false
	}
	d := time.Until(deadline)
	if d < 0 {
		d = 0
	}
	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		select {
		case t.expired <- Entry{Peer: peer, BlockID: blockID}:
		default:
			// Expired channel saturated: drop the entry here so the pair
			// is free to be asked again; only the notification is lost.
			t.mu.Lock()
			if t.timers[key] == timer {
				delete(t.timers, key)
			}
			t.mu.Unlock()
		}
	})
	t.timers[key] = timer
	return true
}

// Remove cancels and drops a pending ask, whether it fired or not. It is
// idempotent: removing an absent key is a no-op.
func (t *Tracker) Remove(peer string, blockID [32]byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := Key{Peer: peer, BlockID: blockID}
	if timer, ok := t.timers[key]; ok {
		timer.Stop()
		delete(t.timers, key)
	}
}

// Has reports whether an ask is currently outstanding for (peer, blockID).
func (t *Tracker) Has(peer string, blockID [32]byte) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.timers[Key{Peer: peer, BlockID: blockID}]
	return ok
}

// Expired delivers an Entry each time a pending ask's deadline passes.
// The caller must call Remove after handling it to clear bookkeeping.
func (t *Tracker) Expired() <-chan Entry {
	return t.expired
}
