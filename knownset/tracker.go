package knownset

// PeerKnowledge holds the three independent knowledge sets the worker
// tracks for one connected peer (spec §4.3).
type PeerKnowledge struct {
	Blocks       *Set
	Operations   *Set
	Endorsements *Set
}

func newPeerKnowledge(capacity int) *PeerKnowledge {
	return &PeerKnowledge{
		Blocks:       NewSet(capacity),
		Operations:   NewSet(capacity),
		Endorsements: NewSet(capacity),
	}
}

// Tracker owns one PeerKnowledge per connected peer. A peer not present in
// the tracker is in the Unknown/Disconnected state (spec §4.3 state
// machine); consumer events about such peers are no-ops, enforced by
// callers checking ok before acting on Get's result.
type Tracker struct {
	capacity int
	peers    map[string]*PeerKnowledge
}

// NewTracker creates a Tracker whose per-peer sets each hold capacity ids.
func NewTracker(capacity int) *Tracker {
	return &Tracker{
		capacity: capacity,
		peers:    make(map[string]*PeerKnowledge),
	}
}

// Connect transitions peerID to Connected, allocating fresh empty
// knowledge sets. Calling it on an already-connected peer resets its
// knowledge, matching a fresh TCP/QUIC session carrying no assumed shared
// state.
func (t *Tracker) Connect(peerID string) *PeerKnowledge {
	pk := newPeerKnowledge(t.capacity)
	t.peers[peerID] = pk
	return pk
}

// Disconnect transitions peerID to Disconnected, discarding its knowledge
// state (spec §4.3: "All knowledge and pending-request state is scoped to
// Connected").
func (t *Tracker) Disconnect(peerID string) {
	delete(t.peers, peerID)
}

// Get returns peerID's knowledge state and whether it is currently
// Connected.
func (t *Tracker) Get(peerID string) (*PeerKnowledge, bool) {
	pk, ok := t.peers[peerID]
	return pk, ok
}

// Connected reports whether peerID is in the Connected state.
func (t *Tracker) Connected(peerID string) bool {
	_, ok := t.peers[peerID]
	return ok
}

// Range calls fn for every currently connected peer, for fan-out
// operations like propagation that must visit all of them.
func (t *Tracker) Range(fn func(peerID string, pk *PeerKnowledge)) {
	for peerID, pk := range t.peers {
		fn(peerID, pk)
	}
}
