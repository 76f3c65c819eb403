// Command protocol-workerd wires the protocol worker to its collaborators
// and runs the event loop until interrupted (spec §4.4, §5).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rubin.dev/protocol/cmd/protocol-workerd/replay"
	"rubin.dev/protocol/codec"
	"rubin.dev/protocol/consensuspool"
	"rubin.dev/protocol/crypto"
	"rubin.dev/protocol/network"
	"rubin.dev/protocol/worker"
)

// fileConfig mirrors codec.SerializationContext for JSON loading; the
// worker never reads this struct directly, only the context it installs.
type fileConfig struct {
	ThreadCount             uint8  `json:"thread_count"`
	MaxBlockSize            uint64 `json:"max_block_size"`
	MaxOperationsPerBlock   uint64 `json:"max_operations_per_block"`
	MaxEndorsementsPerBlock uint64 `json:"max_endorsements_per_block"`
	MaxMessageSize          uint64 `json:"max_message_size"`
	MaxBootstrapMessageSize uint64 `json:"max_bootstrap_message_size"`
	MaxBootstrapBlocks      uint64 `json:"max_bootstrap_blocks"`
	MaxBootstrapPeers       uint64 `json:"max_bootstrap_peers"`
}

func loadConfig(path string) (codec.SerializationContext, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- path is an operator-supplied CLI flag.
	if err != nil {
		return codec.SerializationContext{}, fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		return codec.SerializationContext{}, fmt.Errorf("parse config: %w", err)
	}
	return codec.SerializationContext{
		ThreadCount:             fc.ThreadCount,
		MaxBlockSize:            fc.MaxBlockSize,
		MaxOperationsPerBlock:   fc.MaxOperationsPerBlock,
		MaxEndorsementsPerBlock: fc.MaxEndorsementsPerBlock,
		MaxMessageSize:          fc.MaxMessageSize,
		MaxBootstrapMessageSize: fc.MaxBootstrapMessageSize,
		MaxBootstrapBlocks:      fc.MaxBootstrapBlocks,
		MaxBootstrapPeers:       fc.MaxBootstrapPeers,
	}, nil
}

// logSink drains worker.NetworkOut. Real transport is out of scope for
// this module (spec §1 Non-goals); it only logs what would be sent.
type logSink struct{ log *slog.Logger }

func (s logSink) SendBlock(c worker.SendBlock) error {
	s.log.Debug("send_block", "peer", c.Peer, "block_id", c.BlockID)
	return nil
}
func (s logSink) SendBlockHeader(c worker.SendBlockHeader) error {
	s.log.Debug("send_block_header", "peer", c.Peer)
	return nil
}
func (s logSink) SendOperations(c worker.SendOperations) error {
	s.log.Debug("send_operations", "peer", c.Peer, "count", len(c.Operations))
	return nil
}
func (s logSink) SendEndorsements(c worker.SendEndorsements) error {
	s.log.Debug("send_endorsements", "peer", c.Peer, "count", len(c.Endorsements))
	return nil
}
func (s logSink) AskForBlock(c worker.AskForBlock) error {
	s.log.Debug("ask_for_block", "peer", c.Peer, "count", len(c.IDs))
	return nil
}
func (s logSink) Ban(c worker.Ban) error {
	s.log.Warn("ban", "peer", c.Peer, "reason", c.Reason)
	return nil
}

// collaborator drains worker.ProtocolOut/worker.PoolOut. Consensus and
// mempool admission policy are out of scope for this module (spec §1
// Non-goals); it only records accepted ids to the optional inspection log.
type collaborator struct {
	log     *slog.Logger
	inspect *replay.Log
}

func (c collaborator) OnReceivedBlockHeader(ev worker.ReceivedBlockHeaderEvent) error {
	c.log.Debug("received_block_header", "source", ev.Source, "block_id", ev.ID)
	return nil
}
func (c collaborator) OnReceivedBlock(ev worker.ReceivedBlockEvent) error {
	c.log.Debug("received_block", "source", ev.Source, "block_id", ev.ID)
	return c.inspect.RecordBlock(ev.ID, ev.Source, time.Now())
}
func (c collaborator) OnGetBlocks(ev worker.GetBlocksEvent) error {
	c.log.Debug("get_blocks", "requester", ev.Requester, "count", len(ev.IDs))
	return nil
}
func (c collaborator) OnReceivedOperations(ev worker.ReceivedOperationsEvent) error {
	for id := range ev.Operations {
		if err := c.inspect.RecordOperation(id, ev.Source, time.Now()); err != nil {
			return err
		}
	}
	return nil
}
func (c collaborator) OnReceivedEndorsements(ev worker.ReceivedEndorsementsEvent) error {
	for id := range ev.Endorsements {
		if err := c.inspect.RecordEndorsement(id, ev.Source, time.Now()); err != nil {
			return err
		}
	}
	return nil
}

func run() int {
	configPath := flag.String("config", "", "path to a JSON serialization-context config")
	knowledgeCapacity := flag.Int("knowledge-capacity", 0, "per-peer knowledge-set capacity (0 = 10x max_operations_per_block)")
	channelBuffer := flag.Int("channel-buffer", 256, "buffer size for the worker's MPSC channels")
	logJSON := flag.Bool("log-json", false, "emit structured logs as JSON instead of text")
	inspectDir := flag.String("inspect-dir", "", "optional datadir for the bbolt inspection log (disabled if empty)")
	flag.Parse()

	var handler slog.Handler
	if *logJSON {
		handler = slog.NewJSONHandler(os.Stderr, nil)
	} else {
		handler = slog.NewTextHandler(os.Stderr, nil)
	}
	logger := slog.New(handler)

	if *configPath == "" {
		logger.Error("missing required flag", "flag", "-config")
		return 2
	}
	ctx, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return 1
	}
	if err := codec.InitSerializationContext(ctx); err != nil {
		logger.Error("failed to install serialization context", "error", err)
		return 1
	}

	capacity := *knowledgeCapacity
	if capacity <= 0 {
		capacity = int(10 * ctx.MaxOperationsPerBlock)
	}

	var inspect *replay.Log
	if *inspectDir != "" {
		inspect, err = replay.Open(*inspectDir)
		if err != nil {
			logger.Error("failed to open inspection log", "error", err)
			return 1
		}
		defer inspect.Close()
	}

	w := worker.New(crypto.Sha3Ed25519Provider{}, worker.Config{
		KnowledgeCapacity: capacity,
		ChannelBuffer:     *channelBuffer,
		Logger:            logger,
	})

	sink := logSink{log: logger}
	collab := collaborator{log: logger, inspect: inspect}
	go func() {
		for cmd := range w.NetworkOut {
			if err := network.Dispatch(sink, cmd); err != nil {
				logger.Error("network dispatch failed", "error", err)
			}
		}
	}()
	go func() {
		for ev := range w.ProtocolOut {
			if err := consensuspool.DispatchProtocolEvent(collab, ev); err != nil {
				logger.Error("protocol dispatch failed", "error", err)
			}
		}
	}()
	go func() {
		for ev := range w.PoolOut {
			if err := consensuspool.DispatchPoolEvent(collab, ev); err != nil {
				logger.Error("pool dispatch failed", "error", err)
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received, stopping worker")
		w.Commands <- worker.Stop{}
	}()

	logger.Info("protocol worker starting",
		"thread_count", ctx.ThreadCount,
		"max_operations_per_block", ctx.MaxOperationsPerBlock,
		"knowledge_capacity", capacity,
	)
	if err := w.Run(); err != nil {
		logger.Error("worker exited with error", "error", err)
		return 1
	}
	logger.Info("protocol worker stopped cleanly")
	return 0
}

func main() {
	os.Exit(run())
}
