package codec

import (
	"fmt"
	"sync"
)

// SerializationContext is the process-wide, read-only configuration that
// every (de)serialize call consults: thread count and the size caps that
// bound adversarial inputs. It is installed exactly once before any codec
// use and never mutated afterward (spec §4.1, §9).
type SerializationContext struct {
	ThreadCount              uint8
	MaxBlockSize             uint64
	MaxOperationsPerBlock    uint64
	MaxEndorsementsPerBlock  uint64
	MaxMessageSize           uint64
	MaxBootstrapMessageSize  uint64
	MaxBootstrapBlocks       uint64
	MaxBootstrapPeers        uint64
}

var (
	ctxMu        sync.Mutex
	ctxInstalled bool
	ctxValue     SerializationContext
)

// InitSerializationContext installs the process-wide serialization context.
// It may be called exactly once per process; a second call returns an
// error rather than silently overwriting the first (spec §9: "an atomic
// cell that rejects re-writes").
func InitSerializationContext(ctx SerializationContext) error {
	ctxMu.Lock()
	defer ctxMu.Unlock()
	if ctxInstalled {
		return fmt.Errorf("codec: serialization context already installed")
	}
	ctxValue = ctx
	ctxInstalled = true
	return nil
}

// Context returns the installed serialization context. It panics if no
// context has been installed: every codec call happens after process
// startup, so an uninstalled context is a programming error, not a
// recoverable condition.
func Context() SerializationContext {
	ctxMu.Lock()
	defer ctxMu.Unlock()
	if !ctxInstalled {
		panic("codec: serialization context not installed")
	}
	return ctxValue
}

// ResetSerializationContextForTest clears the installed context so a test
// can install a fresh one. Test-only; production code must never call this.
func ResetSerializationContextForTest() {
	ctxMu.Lock()
	defer ctxMu.Unlock()
	ctxInstalled = false
	ctxValue = SerializationContext{}
}
