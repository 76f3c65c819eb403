// Package network defines the protocol worker's boundary with the P2P
// Network layer. It is intentionally interface-only: wire framing,
// peer discovery, and transport are out of scope for this module (spec §1
// Non-goals); Network is a collaborator the worker talks to exclusively
// through typed channels and these adapter interfaces (spec §4.4, §5).
package network

import "rubin.dev/protocol/worker"

// Sink is how Network receives commands the worker wants delivered to
// peers. A concrete Network implementation drains worker.NetworkOut and
// dispatches each command through Sink, mirroring the teacher's
// PeerHandler callback boundary (clients/go/node/p2p/peer.go) generalized
// from one connection to the whole worker's egress.
type Sink interface {
	SendBlock(cmd worker.SendBlock) error
	SendBlockHeader(cmd worker.SendBlockHeader) error
	SendOperations(cmd worker.SendOperations) error
	SendEndorsements(cmd worker.SendEndorsements) error
	AskForBlock(cmd worker.AskForBlock) error
	Ban(cmd worker.Ban) error
}

// Dispatch routes one NetworkCommand to the matching Sink method. It is
// the glue a concrete Network implementation uses when draining
// worker.NetworkOut; unrecognized command types are a programming error
// since the worker only ever emits the enumerated set (spec §6).
func Dispatch(sink Sink, cmd worker.NetworkCommand) error {
	switch c := cmd.(type) {
	case worker.SendBlock:
		return sink.SendBlock(c)
	case worker.SendBlockHeader:
		return sink.SendBlockHeader(c)
	case worker.SendOperations:
		return sink.SendOperations(c)
	case worker.SendEndorsements:
		return sink.SendEndorsements(c)
	case worker.AskForBlock:
		return sink.AskForBlock(c)
	case worker.Ban:
		return sink.Ban(c)
	default:
		panic("network: unrecognized NetworkCommand")
	}
}
