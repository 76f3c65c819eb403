package model

import (
	"rubin.dev/protocol/codec"
	"rubin.dev/protocol/crypto"
)

// Amount is a raw quantity in the chain's smallest unit.
type Amount uint64

// OperationType is left unspecified by spec §3 beyond "op_type"; ledger
// execution is explicitly out of the worker's scope (spec §1 Non-goals), so
// this models an extensible tagged payload rather than a closed set of
// concrete operation kinds the worker would otherwise need to understand.
type OperationType struct {
	Kind    byte
	Payload []byte
}

// OperationContent is the signed portion of an Operation (spec §3).
type OperationContent struct {
	Fee             Amount
	ExpirePeriod    uint64
	SenderPublicKey crypto.PublicKey
	OpType          OperationType
}

// Operation is a signed OperationContent (spec §3).
type Operation struct {
	Content   OperationContent
	Signature crypto.Signature
}

func encodeOperationType(dst []byte, t OperationType) []byte {
	dst = append(dst, t.Kind)
	dst = codec.EncodeVarInt(dst, uint64(len(t.Payload)))
	return append(dst, t.Payload...)
}

func decodeOperationType(c *codec.Cursor) (OperationType, error) {
	kind, err := c.ReadU8()
	if err != nil {
		return OperationType{}, err
	}
	n, err := c.ReadVarInt(codec.Context().MaxMessageSize)
	if err != nil {
		return OperationType{}, err
	}
	payload, err := c.ReadExact(int(n))
	if err != nil {
		return OperationType{}, err
	}
	return OperationType{Kind: kind, Payload: append([]byte(nil), payload...)}, nil
}

// Encode appends the canonical encoding of the operation content.
func (c OperationContent) Encode(dst []byte) []byte {
	dst = codec.AppendU64LE(dst, uint64(c.Fee))
	dst = codec.AppendU64LE(dst, c.ExpirePeriod)
	dst = append(dst, c.SenderPublicKey[:]...)
	dst = encodeOperationType(dst, c.OpType)
	return dst
}

// DecodeOperationContent decodes an OperationContent from the cursor.
func DecodeOperationContent(c *codec.Cursor) (OperationContent, error) {
	fee, err := c.ReadU64LE()
	if err != nil {
		return OperationContent{}, err
	}
	expire, err := c.ReadU64LE()
	if err != nil {
		return OperationContent{}, err
	}
	pkBytes, err := c.ReadExact(crypto.PublicKeySize)
	if err != nil {
		return OperationContent{}, err
	}
	var pk crypto.PublicKey
	copy(pk[:], pkBytes)
	opType, err := decodeOperationType(c)
	if err != nil {
		return OperationContent{}, err
	}
	return OperationContent{
		Fee:             Amount(fee),
		ExpirePeriod:    expire,
		SenderPublicKey: pk,
		OpType:          opType,
	}, nil
}

// Encode appends the canonical encoding of the full signed operation.
func (op Operation) Encode(dst []byte) []byte {
	dst = op.Content.Encode(dst)
	return append(dst, op.Signature[:]...)
}

// DecodeOperation decodes a signed Operation from raw bytes bounded by
// sizeCap, matching the worker's running size-cap discipline (spec §4.1).
func DecodeOperation(b []byte, sizeCap uint64) (Operation, int, error) {
	c := codec.NewBoundedCursor(b, sizeCap)
	content, err := DecodeOperationContent(c)
	if err != nil {
		return Operation{}, 0, err
	}
	sigBytes, err := c.ReadExact(crypto.SignatureSize)
	if err != nil {
		return Operation{}, 0, err
	}
	var sig crypto.Signature
	copy(sig[:], sigBytes)
	return Operation{Content: content, Signature: sig}, c.Pos(), nil
}

// VerifyIntegrity recomputes hash(content_bytes), verifies Signature
// against Content.SenderPublicKey, and returns the operation id on success
// (spec §4.2). Failure is always ErrInvalidSignature.
func (op Operation) VerifyIntegrity(provider crypto.Provider) (OperationId, error) {
	contentHash := ComputeHash(provider, op.Content.Encode(nil))
	if !provider.Verify(op.Content.SenderPublicKey, [32]byte(contentHash), op.Signature) {
		return OperationId{}, ErrInvalidSignature
	}
	id := ComputeHash(provider, op.Encode(nil))
	return OperationId(id), nil
}

// NewSignedOperation signs content with priv and returns the resulting
// operation id and Operation, mirroring the verify path for producers
// (spec §4.2).
func NewSignedOperation(provider crypto.Provider, priv crypto.PrivateKey, content OperationContent) (OperationId, Operation, error) {
	contentHash := ComputeHash(provider, content.Encode(nil))
	sig, err := provider.Sign(priv, [32]byte(contentHash))
	if err != nil {
		return OperationId{}, Operation{}, err
	}
	op := Operation{Content: content, Signature: sig}
	id := ComputeHash(provider, op.Encode(nil))
	return OperationId(id), op, nil
}
