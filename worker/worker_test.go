package worker

import (
	"testing"
	"time"

	"rubin.dev/protocol/codec"
	"rubin.dev/protocol/crypto"
	"rubin.dev/protocol/model"
)

func installTestContext(t *testing.T) {
	t.Helper()
	codec.ResetSerializationContextForTest()
	err := codec.InitSerializationContext(codec.SerializationContext{
		ThreadCount:             32,
		MaxBlockSize:            1 << 20,
		MaxOperationsPerBlock:   5000,
		MaxEndorsementsPerBlock: 32,
		MaxMessageSize:          1 << 16,
	})
	if err != nil {
		t.Fatalf("InitSerializationContext: %v", err)
	}
	t.Cleanup(codec.ResetSerializationContextForTest)
}

func newTestWorker(t *testing.T) *Worker {
	t.Helper()
	w := New(crypto.Sha3Ed25519Provider{}, Config{KnowledgeCapacity: 100, ChannelBuffer: 32})
	go func() {
		_ = w.Run()
	}()
	t.Cleanup(func() {
		w.Commands <- Stop{}
	})
	return w
}

func signedOp(t *testing.T, p crypto.Provider, fee model.Amount) (model.OperationId, model.Operation, crypto.PublicKey) {
	t.Helper()
	pub, priv, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	id, op, err := model.NewSignedOperation(p, priv, model.OperationContent{
		Fee: fee, ExpirePeriod: 100, SenderPublicKey: pub,
	})
	if err != nil {
		t.Fatalf("NewSignedOperation: %v", err)
	}
	return id, op, pub
}

func expectPoolEvent(t *testing.T, w *Worker, timeout time.Duration) (ProtocolPoolEvent, bool) {
	t.Helper()
	select {
	case ev := <-w.PoolOut:
		return ev, true
	case <-time.After(timeout):
		return nil, false
	}
}

func expectNetworkCommand(t *testing.T, w *Worker, timeout time.Duration) (NetworkCommand, bool) {
	t.Helper()
	select {
	case cmd := <-w.NetworkOut:
		return cmd, true
	case <-time.After(timeout):
		return nil, false
	}
}

// S1: connect 1 peer; receive 1 op signed with peer's key; expect exactly
// one ReceivedOperations{propagate=true} containing that op id.
func TestScenarioS1ValidOpAccepted(t *testing.T) {
	installTestContext(t)
	w := newTestWorker(t)
	p := crypto.Sha3Ed25519Provider{}

	w.Ingress <- NodeConnected{Peer: "peer-a"}
	id, op, _ := signedOp(t, p, 10)
	w.Ingress <- ReceivedOperations{Peer: "peer-a", Operations: []model.Operation{op}}

	ev, ok := expectPoolEvent(t, w, time.Second)
	if !ok {
		t.Fatalf("expected a pool event within 1s")
	}
	roe, isROE := ev.(ReceivedOperationsEvent)
	if !isROE {
		t.Fatalf("expected ReceivedOperationsEvent, got %T", ev)
	}
	if !roe.Propagate {
		t.Fatalf("expected propagate=true")
	}
	if _, ok := roe.Operations[id]; !ok || len(roe.Operations) != 1 {
		t.Fatalf("expected exactly the one submitted op id, got %v", roe.Operations)
	}
}

// S2: same as S1 but mutate content.fee after signing; expect no pool
// event within 1s.
func TestScenarioS2InvalidOpRejected(t *testing.T) {
	installTestContext(t)
	w := newTestWorker(t)
	p := crypto.Sha3Ed25519Provider{}

	w.Ingress <- NodeConnected{Peer: "peer-a"}
	_, op, _ := signedOp(t, p, 10)
	op.Content.Fee = 999
	w.Ingress <- ReceivedOperations{Peer: "peer-a", Operations: []model.Operation{op}}

	if ev, ok := expectPoolEvent(t, w, time.Second); ok {
		t.Fatalf("expected no pool event, got %#v", ev)
	}
}

// S3: connect 2 peers; ingest op from peer A; call
// propagate_operations({op}); expect exactly one SendOperations{peer=B},
// never to A.
func TestScenarioS3BasicPropagation(t *testing.T) {
	installTestContext(t)
	w := newTestWorker(t)
	p := crypto.Sha3Ed25519Provider{}

	w.Ingress <- NodeConnected{Peer: "peer-a"}
	w.Ingress <- NodeConnected{Peer: "peer-b"}
	id, op, _ := signedOp(t, p, 1)
	w.Ingress <- ReceivedOperations{Peer: "peer-a", Operations: []model.Operation{op}}
	if _, ok := expectPoolEvent(t, w, time.Second); !ok {
		t.Fatalf("expected pool event for ingested op")
	}

	w.Commands <- PropagateOperations{Operations: map[model.OperationId]model.Operation{id: op}}

	cmd, ok := expectNetworkCommand(t, w, time.Second)
	if !ok {
		t.Fatalf("expected a SendOperations command")
	}
	send, isSend := cmd.(SendOperations)
	if !isSend {
		t.Fatalf("expected SendOperations, got %T", cmd)
	}
	if send.Peer != "peer-b" {
		t.Fatalf("expected propagation to peer-b, got %q", send.Peer)
	}

	if cmd2, ok := expectNetworkCommand(t, w, 200*time.Millisecond); ok {
		t.Fatalf("expected no second SendOperations (esp. not to peer-a), got %#v", cmd2)
	}
}

func buildTestBlock(t *testing.T, p crypto.Provider, creatorPub crypto.PublicKey, creatorPriv crypto.PrivateKey, opIDs []model.OperationId, ops []model.Operation) (model.BlockId, model.Block) {
	t.Helper()
	threadCount := uint8(32)
	root := model.MerkleRoot(p, opIDs)
	content := model.BlockHeaderContent{
		Creator:             creatorPub,
		Slot:                model.Slot{Period: 1, Thread: 0},
		Parents:             make([]model.BlockId, threadCount),
		OperationMerkleRoot: root,
	}
	id, header, err := model.NewSignedBlockHeader(p, creatorPriv, content)
	if err != nil {
		t.Fatalf("NewSignedBlockHeader: %v", err)
	}
	return id, model.Block{Header: header, Operations: ops}
}

// S4: connect 2 peers; peer B sends block b containing op; peer A sends
// header of b with matching merkle root; call
// propagate_operations({op}); expect no SendOperations{peer=A} within 1s.
func TestScenarioS4SuppressionViaHeaderKnowledge(t *testing.T) {
	installTestContext(t)
	w := newTestWorker(t)
	p := crypto.Sha3Ed25519Provider{}

	w.Ingress <- NodeConnected{Peer: "peer-a"}
	w.Ingress <- NodeConnected{Peer: "peer-b"}

	creatorPub, creatorPriv, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	opID, op, _ := signedOp(t, p, 5)
	_, block := buildTestBlock(t, p, creatorPub, creatorPriv, []model.OperationId{opID}, []model.Operation{op})

	w.Ingress <- ReceivedBlock{Peer: "peer-b", Block: block}
	if _, ok := expectPoolEvent(t, w, time.Second); !ok {
		t.Fatalf("expected pool event for block's contained operation")
	}
	// Drain the matching ReceivedBlockEvent on ProtocolOut so it doesn't
	// interfere with later assertions.
	<-w.ProtocolOut

	w.Ingress <- ReceivedHeader{Peer: "peer-a", Header: block.Header}
	<-w.ProtocolOut // ReceivedBlockHeaderEvent

	w.Commands <- PropagateOperations{Operations: map[model.OperationId]model.Operation{opID: op}}

	if cmd, ok := expectNetworkCommand(t, w, time.Second); ok {
		if send, isSend := cmd.(SendOperations); isSend && send.Peer == "peer-a" {
			t.Fatalf("expected no SendOperations to peer-a, got %#v", send)
		}
	}
}

// S5: peer A sends a header whose merkle root refers to a body the worker
// never received (no block is ingested at all); propagate_operations({op})
// for an op under that root MUST still produce SendOperations{peer=A}.
func TestScenarioS5NoSuppressionWhenMerkleMismatches(t *testing.T) {
	installTestContext(t)
	w := newTestWorker(t)
	p := crypto.Sha3Ed25519Provider{}

	w.Ingress <- NodeConnected{Peer: "peer-a"}

	creatorPub, creatorPriv, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	// Header references a merkle root over an operation set the worker
	// never actually holds the body for (no ReceivedBlock was ingested).
	opID, op, _ := signedOp(t, p, 5)
	_, block := buildTestBlock(t, p, creatorPub, creatorPriv, []model.OperationId{opID}, []model.Operation{op})

	w.Ingress <- ReceivedHeader{Peer: "peer-a", Header: block.Header}
	if _, ok := expectPoolEvent(t, w, 200*time.Millisecond); ok {
		t.Fatalf("a lone header must never produce a pool event")
	}
	select {
	case <-w.ProtocolOut:
	case <-time.After(time.Second):
		t.Fatalf("expected a ReceivedBlockHeaderEvent")
	}

	w.Commands <- PropagateOperations{Operations: map[model.OperationId]model.Operation{opID: op}}

	cmd, ok := expectNetworkCommand(t, w, time.Second)
	if !ok {
		t.Fatalf("expected SendOperations{peer=peer-a} since the body was never independently validated")
	}
	send, isSend := cmd.(SendOperations)
	if !isSend || send.Peer != "peer-a" {
		t.Fatalf("expected SendOperations{peer=peer-a}, got %#v", cmd)
	}
}

// S6: receive a block containing op from peer C; expect a pool event with
// propagate=false for that op; no SendOperations to any peer unless later
// triggered by an explicit command.
func TestScenarioS6InBlockOperationsNotRePropagated(t *testing.T) {
	installTestContext(t)
	w := newTestWorker(t)
	p := crypto.Sha3Ed25519Provider{}

	w.Ingress <- NodeConnected{Peer: "peer-c"}
	creatorPub, creatorPriv, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	opID, op, _ := signedOp(t, p, 2)
	_, block := buildTestBlock(t, p, creatorPub, creatorPriv, []model.OperationId{opID}, []model.Operation{op})

	w.Ingress <- ReceivedBlock{Peer: "peer-c", Block: block}

	ev, ok := expectPoolEvent(t, w, time.Second)
	if !ok {
		t.Fatalf("expected a pool event for the in-block operation")
	}
	roe, isROE := ev.(ReceivedOperationsEvent)
	if !isROE || roe.Propagate {
		t.Fatalf("expected ReceivedOperationsEvent{Propagate:false}, got %#v", ev)
	}

	if cmd, ok := expectNetworkCommand(t, w, 200*time.Millisecond); ok {
		t.Fatalf("expected no unsolicited SendOperations, got %#v", cmd)
	}
}

// IntegratedBlock must populate the block-info map even when the worker
// never received the block's full body itself, so a later header from an
// independent peer still gets rule-5 suppression (spec §4.4
// integrated_block).
func TestIntegratedBlockPopulatesBlockInfoForRuleFiveSuppression(t *testing.T) {
	installTestContext(t)
	w := newTestWorker(t)
	p := crypto.Sha3Ed25519Provider{}

	w.Ingress <- NodeConnected{Peer: "peer-a"}
	w.Ingress <- NodeConnected{Peer: "peer-b"}

	creatorPub, creatorPriv, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	opID, op, _ := signedOp(t, p, 7)
	blockID, block := buildTestBlock(t, p, creatorPub, creatorPriv, []model.OperationId{opID}, []model.Operation{op})

	// peer-a asks for the block; the worker has never seen its body.
	w.Ingress <- AskedForBlock{Peer: "peer-a", ID: blockID}
	if _, ok := expectNetworkCommand(t, w, 200*time.Millisecond); ok {
		t.Fatalf("expected no SendBlock before Consensus integrates the block")
	}
	<-w.ProtocolOut // GetBlocksEvent

	w.Commands <- IntegratedBlock{BlockID: blockID, OpIDs: []model.OperationId{opID}}

	cmd, ok := expectNetworkCommand(t, w, time.Second)
	if !ok {
		t.Fatalf("expected SendBlock to peer-a after integrated_block")
	}
	if send, isSend := cmd.(SendBlock); !isSend || send.Peer != "peer-a" || send.BlockID != blockID {
		t.Fatalf("expected SendBlock{peer-a, blockID}, got %#v", cmd)
	}

	// peer-b now sends only the header (never the body). Rule 5 must join
	// against the block-info entry integrated_block just wrote.
	w.Ingress <- ReceivedHeader{Peer: "peer-b", Header: block.Header}
	<-w.ProtocolOut // ReceivedBlockHeaderEvent

	w.Commands <- PropagateOperations{Operations: map[model.OperationId]model.Operation{opID: op}}

	if cmd, ok := expectNetworkCommand(t, w, time.Second); ok {
		if send, isSend := cmd.(SendOperations); isSend && send.Peer == "peer-b" {
			t.Fatalf("expected no SendOperations to peer-b: rule 5 should have joined via integrated_block's block-info entry, got %#v", send)
		}
	}
}

func TestDisconnectedPeerIngressIsNoOp(t *testing.T) {
	installTestContext(t)
	w := newTestWorker(t)
	p := crypto.Sha3Ed25519Provider{}

	_, op, _ := signedOp(t, p, 1)
	// peer-x was never connected.
	w.Ingress <- ReceivedOperations{Peer: "peer-x", Operations: []model.Operation{op}}

	if ev, ok := expectPoolEvent(t, w, 200*time.Millisecond); ok {
		t.Fatalf("expected no pool event from a never-connected peer, got %#v", ev)
	}
}
