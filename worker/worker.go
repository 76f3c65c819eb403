// Package worker implements the protocol worker: the single-threaded
// cooperative event loop that mediates between the Network layer and the
// Consensus/Pool consumers (spec §4.4, §5).
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"rubin.dev/protocol/crypto"
	"rubin.dev/protocol/knownset"
	"rubin.dev/protocol/model"
	"rubin.dev/protocol/worker/pending"
)

// defaultAskDeadline bounds how long the worker waits for a peer to
// answer an AskForBlock before considering the ask timed out (spec §4.4
// "Pending requests").
const defaultAskDeadline = 10 * time.Second

// Config controls channel sizing and the knowledge-set capacity derived
// from the serialization context (spec §4.3, §7: "10 * max_operations_per_block").
type Config struct {
	KnowledgeCapacity int
	ChannelBuffer     int
	AskDeadline       time.Duration
	Logger            *slog.Logger
}

// Worker is the protocol worker. All fields below ChannelBuffer-sized
// channels are only ever touched from Run's single goroutine; there are
// no locks because there is no sharing (spec §5).
type Worker struct {
	provider crypto.Provider

	Ingress  chan IngressEvent
	Commands chan ConsumerCommand

	NetworkOut  chan NetworkCommand
	ProtocolOut chan ProtocolEvent
	PoolOut     chan ProtocolPoolEvent

	knowledge *knownset.Tracker
	blocks    *blockInfoStore
	askers    map[model.BlockId]map[PeerID]struct{}
	pending   *pending.Tracker

	askDeadline time.Duration
	log         *slog.Logger
}

// New constructs a Worker ready to Run. provider is the crypto
// collaborator used to verify every signature and merkle root.
// cfg.KnowledgeCapacity is required: there is no safe implicit default,
// since a too-small capacity silently cripples the redundant-propagation
// suppression the spec relies on (spec §4.3, §7: callers should size it
// as "10 * max_operations_per_block").
func New(provider crypto.Provider, cfg Config) *Worker {
	if cfg.KnowledgeCapacity <= 0 {
		panic("worker: Config.KnowledgeCapacity must be set (spec §7: 10 * max_operations_per_block)")
	}
	if cfg.ChannelBuffer <= 0 {
		cfg.ChannelBuffer = 64
	}
	if cfg.AskDeadline <= 0 {
		cfg.AskDeadline = defaultAskDeadline
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Worker{
		provider:    provider,
		Ingress:     make(chan IngressEvent, cfg.ChannelBuffer),
		Commands:    make(chan ConsumerCommand, cfg.ChannelBuffer),
		NetworkOut:  make(chan NetworkCommand, cfg.ChannelBuffer),
		ProtocolOut: make(chan ProtocolEvent, cfg.ChannelBuffer),
		PoolOut:     make(chan ProtocolPoolEvent, cfg.ChannelBuffer),
		knowledge:   knownset.NewTracker(cfg.KnowledgeCapacity),
		blocks:      newBlockInfoStore(),
		askers:      make(map[model.BlockId]map[PeerID]struct{}),
		pending:     pending.NewTracker(cfg.ChannelBuffer),
		askDeadline: cfg.AskDeadline,
		log:         cfg.Logger,
	}
}

// Run drains Ingress and Commands until a Stop command arrives or a
// channel is closed out from under it, in which case it returns an error
// (spec §4.4: "Channel-closed conditions... are fatal — the worker
// initiates shutdown").
func (w *Worker) Run() error {
	for {
		select {
		case ev, ok := <-w.Ingress:
			if !ok {
				return fmt.Errorf("worker: ingress channel closed")
			}
			w.handleIngress(ev)
		case cmd, ok := <-w.Commands:
			if !ok {
				return fmt.Errorf("worker: commands channel closed")
			}
			if _, isStop := cmd.(Stop); isStop {
				// Handle ingress already queued before exiting.
				for {
					select {
					case ev, ok := <-w.Ingress:
						if !ok {
							return nil
						}
						w.handleIngress(ev)
					default:
						return nil
					}
				}
			}
			w.handleCommand(cmd)
		case entry := <-w.pending.Expired():
			w.handlePendingTimeout(entry)
		}
	}
}

func (w *Worker) handleIngress(ev IngressEvent) {
	switch e := ev.(type) {
	case NodeConnected:
		w.knowledge.Connect(string(e.Peer))
	case NodeDisconnected:
		w.knowledge.Disconnect(string(e.Peer))
	case ReceivedHeader:
		w.onReceivedHeader(e)
	case ReceivedBlock:
		w.onReceivedBlock(e)
	case AskedForBlock:
		w.onAskedForBlock(e)
	case ReceivedOperations:
		w.onReceivedOperations(e)
	case ReceivedEndorsements:
		w.onReceivedEndorsements(e)
	}
}

func (w *Worker) peerKnowledge(peer PeerID) (*knownset.PeerKnowledge, bool) {
	return w.knowledge.Get(string(peer))
}

func (w *Worker) onReceivedHeader(e ReceivedHeader) {
	pk, ok := w.peerKnowledge(e.Peer)
	if !ok {
		return // disconnected peer: no-op (spec §4.4 state machine)
	}
	if err := e.Header.CheckSignature(w.provider); err != nil {
		w.invalid(e.Peer, "received header: bad signature")
		return
	}
	id := e.Header.BlockId(w.provider)
	pk.Blocks.Mark([32]byte(id)) // rule 1

	w.ProtocolOut <- ReceivedBlockHeaderEvent{ID: id, Header: e.Header, Source: e.Peer}

	// Rule 5: opportunistic knowledge join against an independently-held
	// body. block_id is a hash of the header content, which embeds the
	// operation merkle root, so a stored entry under this exact id can
	// only exist if its body matches this header's root.
	if info, ok := w.blocks.get(id); ok {
		for _, opID := range info.opIDs {
			pk.Operations.Mark([32]byte(opID))
		}
		for _, endoID := range info.endoIDs {
			pk.Endorsements.Mark([32]byte(endoID))
		}
	}
}

func (w *Worker) onReceivedBlock(e ReceivedBlock) {
	pk, ok := w.peerKnowledge(e.Peer)
	if !ok {
		return
	}
	if err := e.Block.Header.CheckSignature(w.provider); err != nil {
		w.invalid(e.Peer, "received block: bad header signature")
		return
	}
	merkleOK, opIDs, err := e.Block.CheckMerkleRoot(w.provider)
	if err != nil {
		w.invalid(e.Peer, "received block: operation signature invalid")
		return
	}
	if !merkleOK {
		w.invalid(e.Peer, "received block: merkle root mismatch")
		return
	}
	endoIDs := make([]model.EndorsementId, 0, len(e.Block.Header.Content.Endorsements))
	for _, endo := range e.Block.Header.Content.Endorsements {
		endoID, err := endo.VerifyIntegrity(w.provider)
		if err != nil {
			w.invalid(e.Peer, "received block: endorsement signature invalid")
			return
		}
		endoIDs = append(endoIDs, endoID)
	}

	id := e.Block.Header.BlockId(w.provider)
	w.blocks.record(id, e.Block, opIDs, endoIDs)

	pk.Blocks.Mark([32]byte(id))
	for _, opID := range opIDs {
		pk.Operations.Mark([32]byte(opID)) // rule 4
	}
	for _, endoID := range endoIDs {
		pk.Endorsements.Mark([32]byte(endoID))
	}

	w.ProtocolOut <- ReceivedBlockEvent{ID: id, Block: e.Block, Source: e.Peer}

	if len(e.Block.Operations) > 0 {
		inBlock := make(map[model.OperationId]model.Operation, len(e.Block.Operations))
		for i, op := range e.Block.Operations {
			inBlock[opIDs[i]] = op
		}
		w.PoolOut <- ReceivedOperationsEvent{Propagate: false, Operations: inBlock, Source: e.Peer}
	}
}

func (w *Worker) onAskedForBlock(e AskedForBlock) {
	pk, ok := w.peerKnowledge(e.Peer)
	if !ok {
		return
	}
	pk.Blocks.Mark([32]byte(e.ID)) // rule 2
	if w.askers[e.ID] == nil {
		w.askers[e.ID] = make(map[PeerID]struct{})
	}
	w.askers[e.ID][e.Peer] = struct{}{}
	w.ProtocolOut <- GetBlocksEvent{IDs: []model.BlockId{e.ID}, Requester: e.Peer}
}

func (w *Worker) onReceivedOperations(e ReceivedOperations) {
	pk, ok := w.peerKnowledge(e.Peer)
	if !ok {
		return
	}
	fresh := make(map[model.OperationId]model.Operation)
	for _, op := range e.Operations {
		id, err := op.VerifyIntegrity(w.provider)
		if err != nil {
			w.invalid(e.Peer, "received operation: bad signature")
			continue
		}
		key := [32]byte(id)
		alreadyKnown := pk.Operations.Contains(key)
		pk.Operations.Mark(key) // rule 1
		if !alreadyKnown {
			fresh[id] = op
		}
	}
	if len(fresh) > 0 {
		w.PoolOut <- ReceivedOperationsEvent{Propagate: true, Operations: fresh, Source: e.Peer}
	}
}

func (w *Worker) onReceivedEndorsements(e ReceivedEndorsements) {
	pk, ok := w.peerKnowledge(e.Peer)
	if !ok {
		return
	}
	fresh := make(map[model.EndorsementId]model.Endorsement)
	for _, endo := range e.Endorsements {
		id, err := endo.VerifyIntegrity(w.provider)
		if err != nil {
			w.invalid(e.Peer, "received endorsement: bad signature")
			continue
		}
		key := [32]byte(id)
		alreadyKnown := pk.Endorsements.Contains(key)
		pk.Endorsements.Mark(key)
		if !alreadyKnown {
			fresh[id] = endo
		}
	}
	if len(fresh) > 0 {
		w.PoolOut <- ReceivedEndorsementsEvent{Propagate: true, Endorsements: fresh, Source: e.Peer}
	}
}

func (w *Worker) handleCommand(cmd ConsumerCommand) {
	switch c := cmd.(type) {
	case PropagateOperations:
		w.propagateOperations(c.Operations)
	case PropagateEndorsements:
		w.propagateEndorsements(c.Endorsements)
	case IntegratedBlock:
		w.serveAskers(c.BlockID, c.OpIDs, c.EndoIDs)
	case SendGetBlocksResults:
		for id, res := range c.Results {
			if res.Found {
				w.serveAskers(id, res.OpIDs, res.EndoIDs)
			}
		}
	}
}

// propagateOperations implements the single propagation invariant: never
// send to a peer whose knowledge set already contains the id, and mark
// every sent id known afterward (spec §4.4).
func (w *Worker) propagateOperations(ops map[model.OperationId]model.Operation) {
	w.knowledge.Range(func(peer string, pk *knownset.PeerKnowledge) {
		var toSend []model.Operation
		var toMark [][32]byte
		for id, op := range ops {
			key := [32]byte(id)
			if pk.Operations.Contains(key) {
				continue
			}
			toSend = append(toSend, op)
			toMark = append(toMark, key)
		}
		if len(toSend) == 0 {
			return
		}
		w.NetworkOut <- SendOperations{Peer: PeerID(peer), Operations: toSend}
		for _, key := range toMark {
			pk.Operations.Mark(key)
		}
	})
}

func (w *Worker) propagateEndorsements(endos map[model.EndorsementId]model.Endorsement) {
	w.knowledge.Range(func(peer string, pk *knownset.PeerKnowledge) {
		var toSend []model.Endorsement
		var toMark [][32]byte
		for id, endo := range endos {
			key := [32]byte(id)
			if pk.Endorsements.Contains(key) {
				continue
			}
			toSend = append(toSend, endo)
			toMark = append(toMark, key)
		}
		if len(toSend) == 0 {
			return
		}
		w.NetworkOut <- SendEndorsements{Peer: PeerID(peer), Endorsements: toSend}
		for _, key := range toMark {
			pk.Endorsements.Mark(key)
		}
	})
}

// serveAskers records blockID's (op_ids, endo_ids) in the block-info map
// and answers every peer that previously called AskedForBlock for it
// (spec §4.4 integrated_block / send_get_blocks_results).
func (w *Worker) serveAskers(blockID model.BlockId, opIDs []model.OperationId, endoIDs []model.EndorsementId) {
	w.blocks.recordIDs(blockID, opIDs, endoIDs)

	peers := w.askers[blockID]
	if len(peers) == 0 {
		return
	}
	for peerID := range peers {
		pk, ok := w.peerKnowledge(peerID)
		if !ok {
			continue
		}
		w.NetworkOut <- SendBlock{Peer: peerID, BlockID: blockID}
		pk.Blocks.Mark([32]byte(blockID))
		for _, opID := range opIDs {
			pk.Operations.Mark([32]byte(opID))
		}
		for _, endoID := range endoIDs {
			pk.Endorsements.Mark([32]byte(endoID))
		}
	}
	delete(w.askers, blockID)
}

func (w *Worker) handlePendingTimeout(entry pending.Entry) {
	w.pending.Remove(entry.Peer, entry.BlockID)
	w.log.Warn("pending block ask timed out", "peer", entry.Peer, "block_id", entry.BlockID)
}

// AskForBlock relays a Consensus-initiated ask to peer, recording a
// pending-request entry so a missing answer can be retried elsewhere
// (spec §4.4 "Pending requests"). At most one outstanding ask is kept per
// (peer, block_id) pair.
func (w *Worker) AskForBlock(peer PeerID, id model.BlockId) {
	key := [32]byte(id)
	if !w.pending.Add(string(peer), key, time.Now().Add(w.askDeadline)) {
		return
	}
	w.NetworkOut <- AskForBlock{Peer: peer, IDs: []model.BlockId{id}}
}

func (w *Worker) invalid(peer PeerID, reason string) {
	w.log.Warn("invalid ingress", "peer", peer, "reason", reason)
	w.NetworkOut <- Ban{Peer: peer, Reason: reason}
}
