package consensuspool

import (
	"testing"

	"rubin.dev/protocol/model"
	"rubin.dev/protocol/worker"
)

type recordingConsensus struct {
	gotGetBlocks bool
}

func (c *recordingConsensus) OnReceivedBlockHeader(worker.ReceivedBlockHeaderEvent) error {
	return nil
}
func (c *recordingConsensus) OnReceivedBlock(worker.ReceivedBlockEvent) error { return nil }
func (c *recordingConsensus) OnGetBlocks(worker.GetBlocksEvent) error {
	c.gotGetBlocks = true
	return nil
}

type recordingPool struct {
	lastOps worker.ReceivedOperationsEvent
}

func (p *recordingPool) OnReceivedOperations(ev worker.ReceivedOperationsEvent) error {
	p.lastOps = ev
	return nil
}
func (p *recordingPool) OnReceivedEndorsements(worker.ReceivedEndorsementsEvent) error {
	return nil
}

func TestDispatchProtocolEventRoutesGetBlocks(t *testing.T) {
	c := &recordingConsensus{}
	ev := worker.GetBlocksEvent{IDs: []model.BlockId{{1}}, Requester: "peer-a"}
	if err := DispatchProtocolEvent(c, ev); err != nil {
		t.Fatalf("DispatchProtocolEvent: %v", err)
	}
	if !c.gotGetBlocks {
		t.Fatalf("expected GetBlocksEvent to reach OnGetBlocks")
	}
}

func TestDispatchPoolEventRoutesOperations(t *testing.T) {
	p := &recordingPool{}
	ev := worker.ReceivedOperationsEvent{Propagate: true, Operations: map[model.OperationId]model.Operation{}}
	if err := DispatchPoolEvent(p, ev); err != nil {
		t.Fatalf("DispatchPoolEvent: %v", err)
	}
	if !p.lastOps.Propagate {
		t.Fatalf("expected event to be recorded")
	}
}
