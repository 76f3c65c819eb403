package model

import "rubin.dev/protocol/crypto"

// BlockId, OperationId, and EndorsementId are content-addressed ids: a pure
// function of the canonical encoding of the object they name (spec §3).
type BlockId Hash
type OperationId Hash
type EndorsementId Hash

const (
	blockIdPrefix       = "BLO"
	operationIdPrefix   = "OPE"
	endorsementIdPrefix = "END"
)

var (
	ZeroBlockId       BlockId
	ZeroOperationId   OperationId
	ZeroEndorsementId EndorsementId
)

func (id BlockId) Bytes() []byte { return Hash(id).Bytes() }
func (id BlockId) Equal(other BlockId) bool { return Hash(id).Equal(Hash(other)) }
func (id BlockId) String(p crypto.Provider) string {
	return Hash(id).StringPrefixed(p, blockIdPrefix)
}

func (id OperationId) Bytes() []byte { return Hash(id).Bytes() }
func (id OperationId) Equal(other OperationId) bool { return Hash(id).Equal(Hash(other)) }
func (id OperationId) String(p crypto.Provider) string {
	return Hash(id).StringPrefixed(p, operationIdPrefix)
}

func (id EndorsementId) Bytes() []byte { return Hash(id).Bytes() }
func (id EndorsementId) Equal(other EndorsementId) bool { return Hash(id).Equal(Hash(other)) }
func (id EndorsementId) String(p crypto.Provider) string {
	return Hash(id).StringPrefixed(p, endorsementIdPrefix)
}

// ParseBlockId parses a bare or "BLO-"-prefixed textual block id.
func ParseBlockId(p crypto.Provider, s string) (BlockId, error) {
	h, err := ParseHash(p, s, blockIdPrefix)
	return BlockId(h), err
}

// ParseOperationId parses a bare or "OPE-"-prefixed textual operation id.
func ParseOperationId(p crypto.Provider, s string) (OperationId, error) {
	h, err := ParseHash(p, s, operationIdPrefix)
	return OperationId(h), err
}

// ParseEndorsementId parses a bare or "END-"-prefixed textual endorsement id.
func ParseEndorsementId(p crypto.Provider, s string) (EndorsementId, error) {
	h, err := ParseHash(p, s, endorsementIdPrefix)
	return EndorsementId(h), err
}
