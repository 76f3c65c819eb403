package model

import (
	"rubin.dev/protocol/codec"
	"rubin.dev/protocol/crypto"
)

// MerkleRoot hashes the concatenated operation-id bytes in list order
// (spec glossary: "Merkle root (of operations)"). Unlike the teacher's
// Bitcoin-style tagged binary tree (consensus/merkle.go), the spec defines
// this as a flat concatenation hash, which is what is implemented here;
// an empty operation list hashes the empty byte string.
func MerkleRoot(provider crypto.Provider, ids []OperationId) Hash {
	buf := make([]byte, 0, len(ids)*crypto.HashSize)
	for _, id := range ids {
		buf = append(buf, id.Bytes()...)
	}
	return ComputeHash(provider, buf)
}

// BlockHeaderContent is the signed portion of a BlockHeader (spec §3/§6).
type BlockHeaderContent struct {
	Creator             crypto.PublicKey
	Slot                Slot
	Parents             []BlockId // empty iff Slot.Period == 0 (genesis), else exactly ThreadCount entries
	OperationMerkleRoot Hash
	Endorsements        []Endorsement
}

// BlockHeader is a signed BlockHeaderContent (spec §3/§4.2).
type BlockHeader struct {
	Content   BlockHeaderContent
	Signature crypto.Signature
}

// Block is a header plus the operations it commits to (spec §3).
type Block struct {
	Header     BlockHeader
	Operations []Operation
}

// Encode appends the canonical wire encoding of the header content:
// creator(32) || slot || parents_flag(1) || parents[...]*BlockId ||
// merkle_root(32) || endorsements_count(varint) || endorsements[...]
// (spec §6).
func (c BlockHeaderContent) Encode(dst []byte) []byte {
	dst = append(dst, c.Creator[:]...)
	dst = c.Slot.ToBytesCompact(dst)
	if len(c.Parents) == 0 {
		dst = append(dst, 0)
	} else {
		dst = append(dst, 1)
		for _, p := range c.Parents {
			dst = append(dst, p.Bytes()...)
		}
	}
	dst = append(dst, c.OperationMerkleRoot.Bytes()...)
	dst = codec.EncodeVarInt(dst, uint64(len(c.Endorsements)))
	for _, e := range c.Endorsements {
		dst = e.Encode(dst)
	}
	return dst
}

// DecodeBlockHeaderContent decodes a BlockHeaderContent. threadCount is the
// process-wide thread count; a non-empty Parents list must contain exactly
// threadCount entries, and an empty list is only valid when the decoded
// slot's period is 0 (genesis) — spec §3's structural invariant.
func DecodeBlockHeaderContent(c *codec.Cursor, threadCount uint8, maxEndorsements uint64) (BlockHeaderContent, error) {
	creatorBytes, err := c.ReadExact(crypto.PublicKeySize)
	if err != nil {
		return BlockHeaderContent{}, err
	}
	var creator crypto.PublicKey
	copy(creator[:], creatorBytes)

	slot, err := DecodeSlotCompact(c)
	if err != nil {
		return BlockHeaderContent{}, err
	}

	flag, err := c.ReadU8()
	if err != nil {
		return BlockHeaderContent{}, err
	}
	var parents []BlockId
	switch flag {
	case 0:
		if slot.Period != 0 {
			return BlockHeaderContent{}, errStructural("non-genesis header declares no parents")
		}
	case 1:
		if slot.Period == 0 {
			return BlockHeaderContent{}, errStructural("genesis header declares parents")
		}
		parents = make([]BlockId, 0, threadCount)
		for i := uint8(0); i < threadCount; i++ {
			idBytes, err := c.ReadExact(crypto.HashSize)
			if err != nil {
				return BlockHeaderContent{}, err
			}
			var id BlockId
			copy(id[:], idBytes)
			parents = append(parents, id)
		}
	default:
		return BlockHeaderContent{}, errStructural("invalid parents_flag %d", flag)
	}

	rootBytes, err := c.ReadExact(crypto.HashSize)
	if err != nil {
		return BlockHeaderContent{}, err
	}
	var root Hash
	copy(root[:], rootBytes)

	endoCount, err := c.ReadVarInt(maxEndorsements)
	if err != nil {
		return BlockHeaderContent{}, err
	}
	endorsements := make([]Endorsement, 0, endoCount)
	for i := uint64(0); i < endoCount; i++ {
		e, err := DecodeEndorsement(c)
		if err != nil {
			return BlockHeaderContent{}, err
		}
		endorsements = append(endorsements, e)
	}

	return BlockHeaderContent{
		Creator:             creator,
		Slot:                slot,
		Parents:             parents,
		OperationMerkleRoot: root,
		Endorsements:        endorsements,
	}, nil
}

func (h BlockHeader) Encode(dst []byte) []byte {
	dst = h.Content.Encode(dst)
	return append(dst, h.Signature[:]...)
}

// blockHeaderSignatureMessage computes Hash(slot_bytes || content_hash), the
// double-hash binding that prevents a signature from being replayed onto a
// different slot even if content hashes collided (spec §4.2). This must be
// preserved byte-for-byte.
func blockHeaderSignatureMessage(provider crypto.Provider, slot Slot, contentHash Hash) Hash {
	key := slot.ToBytesKey()
	buf := make([]byte, 0, SlotKeySize+crypto.HashSize)
	buf = append(buf, key[:]...)
	buf = append(buf, contentHash.Bytes()...)
	return ComputeHash(provider, buf)
}

// CheckSignature verifies Signature against Content.Creator using the
// double-hash signature message (spec §4.2).
func (h BlockHeader) CheckSignature(provider crypto.Provider) error {
	contentHash := ComputeHash(provider, h.Content.Encode(nil))
	msg := blockHeaderSignatureMessage(provider, h.Content.Slot, contentHash)
	if !provider.Verify(h.Content.Creator, [32]byte(msg), h.Signature) {
		return ErrInvalidSignature
	}
	return nil
}

// BlockId computes block_id = hash(serialize(header)) (spec §3).
func (h BlockHeader) BlockId(provider crypto.Provider) BlockId {
	return BlockId(ComputeHash(provider, h.Encode(nil)))
}

// NewSignedBlockHeader signs content and returns the resulting BlockId and
// BlockHeader, mirroring the verify path for producers (spec §4.2).
func NewSignedBlockHeader(provider crypto.Provider, priv crypto.PrivateKey, content BlockHeaderContent) (BlockId, BlockHeader, error) {
	contentHash := ComputeHash(provider, content.Encode(nil))
	msg := blockHeaderSignatureMessage(provider, content.Slot, contentHash)
	sig, err := provider.Sign(priv, [32]byte(msg))
	if err != nil {
		return BlockId{}, BlockHeader{}, err
	}
	header := BlockHeader{Content: content, Signature: sig}
	return header.BlockId(provider), header, nil
}

// Encode appends header || op_count(be-min, <= maxOpsPerBlock) || operations.
func (b Block) Encode(dst []byte, maxOpsPerBlock uint64) []byte {
	dst = b.Header.Encode(dst)
	dst = codec.EncodeBEMin(dst, uint64(len(b.Operations)), maxOpsPerBlock)
	for _, op := range b.Operations {
		dst = op.Encode(dst)
	}
	return dst
}

// DecodeBlock decodes a Block from raw bytes, enforcing sizeCap at every
// sub-step (spec §6: "Running cursor must not exceed max_block_size at any
// sub-step").
func DecodeBlock(b []byte, threadCount uint8, maxEndorsements, maxOpsPerBlock, sizeCap uint64) (Block, error) {
	c := codec.NewBoundedCursor(b, sizeCap)
	content, err := DecodeBlockHeaderContent(c, threadCount, maxEndorsements)
	if err != nil {
		return Block{}, err
	}
	sigBytes, err := c.ReadExact(crypto.SignatureSize)
	if err != nil {
		return Block{}, err
	}
	var sig crypto.Signature
	copy(sig[:], sigBytes)
	header := BlockHeader{Content: content, Signature: sig}

	opCount, err := c.ReadBEMin(maxOpsPerBlock)
	if err != nil {
		return Block{}, err
	}
	ops := make([]Operation, 0, codec.BoundedCap(opCount, sizeCap, 1))
	for i := uint64(0); i < opCount; i++ {
		remaining := b[c.Pos():]
		op, n, err := DecodeOperation(remaining, sizeCap-uint64(c.Pos()))
		if err != nil {
			return Block{}, err
		}
		if _, err := c.ReadExact(n); err != nil {
			return Block{}, err
		}
		ops = append(ops, op)
	}

	return Block{Header: header, Operations: ops}, nil
}

// CheckMerkleRoot reports whether the block's declared operation merkle
// root matches its actual operation list (spec §3 invariant).
func (b Block) CheckMerkleRoot(provider crypto.Provider) (bool, []OperationId, error) {
	ids := make([]OperationId, 0, len(b.Operations))
	for _, op := range b.Operations {
		id, err := op.VerifyIntegrity(provider)
		if err != nil {
			return false, nil, err
		}
		ids = append(ids, id)
	}
	got := MerkleRoot(provider, ids)
	return got.Equal(b.Header.Content.OperationMerkleRoot), ids, nil
}
