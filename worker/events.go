package worker

import "rubin.dev/protocol/model"

// IngressEvent is the sum type Network sends the worker on the Ingress
// channel (spec §4.4 ingress table).
type IngressEvent interface{ isIngressEvent() }

// NodeConnected creates empty knowledge sets for Peer.
type NodeConnected struct {
	Peer PeerID
}

// NodeDisconnected drops Peer's knowledge sets. Block requests Peer made
// earlier and asks outstanding towards Peer are not cleared: serving a
// request skips peers that are no longer connected, and an outstanding ask
// stays until its deadline passes.
type NodeDisconnected struct {
	Peer PeerID
}

// ReceivedHeader is an unsolicited or requested block header from Peer.
type ReceivedHeader struct {
	Peer   PeerID
	Header model.BlockHeader
}

// ReceivedBlock is a full block body from Peer.
type ReceivedBlock struct {
	Peer  PeerID
	Block model.Block
}

// AskedForBlock records that Peer asked us for the block named by ID.
type AskedForBlock struct {
	Peer PeerID
	ID   model.BlockId
}

// ReceivedOperations is a batch of operations announced by Peer.
type ReceivedOperations struct {
	Peer       PeerID
	Operations []model.Operation
}

// ReceivedEndorsements is a batch of endorsements announced by Peer.
type ReceivedEndorsements struct {
	Peer         PeerID
	Endorsements []model.Endorsement
}

func (NodeConnected) isIngressEvent()        {}
func (NodeDisconnected) isIngressEvent()     {}
func (ReceivedHeader) isIngressEvent()       {}
func (ReceivedBlock) isIngressEvent()        {}
func (AskedForBlock) isIngressEvent()        {}
func (ReceivedOperations) isIngressEvent()   {}
func (ReceivedEndorsements) isIngressEvent() {}

// ProtocolEvent is emitted to the Consensus collaborator (spec §6).
type ProtocolEvent interface{ isProtocolEvent() }

type ReceivedBlockHeaderEvent struct {
	ID     model.BlockId
	Header model.BlockHeader
	Source PeerID
}

type ReceivedBlockEvent struct {
	ID     model.BlockId
	Block  model.Block
	Source PeerID
}

type GetBlocksEvent struct {
	IDs       []model.BlockId
	Requester PeerID
}

func (ReceivedBlockHeaderEvent) isProtocolEvent() {}
func (ReceivedBlockEvent) isProtocolEvent()       {}
func (GetBlocksEvent) isProtocolEvent()           {}

// ProtocolPoolEvent is emitted to the operation Pool collaborator (spec §6).
type ProtocolPoolEvent interface{ isProtocolPoolEvent() }

type ReceivedOperationsEvent struct {
	Propagate  bool
	Operations map[model.OperationId]model.Operation
	Source     PeerID
}

type ReceivedEndorsementsEvent struct {
	Propagate    bool
	Endorsements map[model.EndorsementId]model.Endorsement
	Source       PeerID
}

func (ReceivedOperationsEvent) isProtocolPoolEvent()   {}
func (ReceivedEndorsementsEvent) isProtocolPoolEvent() {}
