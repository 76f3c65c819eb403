package worker

import "rubin.dev/protocol/model"

// ConsumerCommand is the sum type Consensus and Pool send the worker on
// the Commands channel (spec §6 "Commands from consumers").
type ConsumerCommand interface{ isConsumerCommand() }

// PropagateOperations announces operations to every connected peer that
// does not already know them.
type PropagateOperations struct {
	Operations map[model.OperationId]model.Operation
}

// PropagateEndorsements announces endorsements to every connected peer
// that does not already know them.
type PropagateEndorsements struct {
	Endorsements map[model.EndorsementId]model.Endorsement
}

// IntegratedBlock signals that Consensus now holds and endorses BlockID.
// The worker records (OpIDs, EndoIDs) in the block-info map — filling it
// in even if the body never arrived as a full ReceivedBlock — and answers
// any peer that previously asked for it.
type IntegratedBlock struct {
	BlockID model.BlockId
	OpIDs   []model.OperationId
	EndoIDs []model.EndorsementId
}

// GetBlocksResult is one entry of a SendGetBlocksResults response: None
// (Found == false) means the block could not be supplied.
type GetBlocksResult struct {
	Found   bool
	OpIDs   []model.OperationId
	EndoIDs []model.EndorsementId
}

// SendGetBlocksResults answers earlier GetBlocksEvent requests.
type SendGetBlocksResults struct {
	Results map[model.BlockId]GetBlocksResult
}

// Stop asks the worker's event loop to drain and exit (spec §4.4/§5).
type Stop struct{}

func (PropagateOperations) isConsumerCommand()   {}
func (PropagateEndorsements) isConsumerCommand() {}
func (IntegratedBlock) isConsumerCommand()       {}
func (SendGetBlocksResults) isConsumerCommand()  {}
func (Stop) isConsumerCommand()                  {}

// NetworkCommand is the sum type the worker sends the Network
// collaborator (spec §6 "Network commands emitted").
type NetworkCommand interface{ isNetworkCommand() }

type SendBlock struct {
	Peer    PeerID
	BlockID model.BlockId
}

type SendBlockHeader struct {
	Peer   PeerID
	Header model.BlockHeader
}

type SendOperations struct {
	Peer       PeerID
	Operations []model.Operation
}

type SendEndorsements struct {
	Peer         PeerID
	Endorsements []model.Endorsement
}

type AskForBlock struct {
	Peer PeerID
	IDs  []model.BlockId
}

// Ban is an opaque ban signal; the exact escalation policy lives in
// Network (spec §4.4, §9).
type Ban struct {
	Peer   PeerID
	Reason string
}

func (SendBlock) isNetworkCommand()        {}
func (SendBlockHeader) isNetworkCommand()  {}
func (SendOperations) isNetworkCommand()   {}
func (SendEndorsements) isNetworkCommand() {}
func (AskForBlock) isNetworkCommand()      {}
func (Ban) isNetworkCommand()              {}
