// Package consensuspool defines the protocol worker's boundary with the
// Consensus engine and the operation Pool. Fork choice, block execution,
// and mempool admission policy are out of scope for this module (spec §1
// Non-goals); both collaborators are reached exclusively through
// worker.ProtocolOut / worker.PoolOut and worker.Commands (spec §4.4, §6).
package consensuspool

import "rubin.dev/protocol/worker"

// Consensus receives ProtocolEvents from the worker: new headers, new
// blocks, and relayed GetBlocks requests. A concrete Consensus
// implementation drains worker.ProtocolOut and dispatches through this
// interface, mirroring the teacher's PeerHandler callback shape
// (clients/go/node/p2p/peer.go) on the consumer side of the worker.
type Consensus interface {
	OnReceivedBlockHeader(ev worker.ReceivedBlockHeaderEvent) error
	OnReceivedBlock(ev worker.ReceivedBlockEvent) error
	OnGetBlocks(ev worker.GetBlocksEvent) error
}

// Pool receives ProtocolPoolEvents from the worker: operations and
// endorsements observed on ingress, each tagged with whether they still
// need propagating.
type Pool interface {
	OnReceivedOperations(ev worker.ReceivedOperationsEvent) error
	OnReceivedEndorsements(ev worker.ReceivedEndorsementsEvent) error
}

// DispatchProtocolEvent routes one ProtocolEvent to the matching
// Consensus method.
func DispatchProtocolEvent(c Consensus, ev worker.ProtocolEvent) error {
	switch e := ev.(type) {
	case worker.ReceivedBlockHeaderEvent:
		return c.OnReceivedBlockHeader(e)
	case worker.ReceivedBlockEvent:
		return c.OnReceivedBlock(e)
	case worker.GetBlocksEvent:
		return c.OnGetBlocks(e)
	default:
		panic("consensuspool: unrecognized ProtocolEvent")
	}
}

// DispatchPoolEvent routes one ProtocolPoolEvent to the matching Pool
// method.
func DispatchPoolEvent(p Pool, ev worker.ProtocolPoolEvent) error {
	switch e := ev.(type) {
	case worker.ReceivedOperationsEvent:
		return p.OnReceivedOperations(e)
	case worker.ReceivedEndorsementsEvent:
		return p.OnReceivedEndorsements(e)
	default:
		panic("consensuspool: unrecognized ProtocolPoolEvent")
	}
}
