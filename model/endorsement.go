package model

import (
	"rubin.dev/protocol/codec"
	"rubin.dev/protocol/crypto"
)

// EndorsementContent is the signed portion of an Endorsement: a signed
// attestation referencing a prior block by id and slot (spec §3).
type EndorsementContent struct {
	SenderPublicKey crypto.PublicKey
	Slot            Slot
	Index           uint32
	EndorsedBlock   BlockId
}

// Endorsement is a signed EndorsementContent (spec §3).
type Endorsement struct {
	Content   EndorsementContent
	Signature crypto.Signature
}

func (c EndorsementContent) Encode(dst []byte) []byte {
	dst = append(dst, c.SenderPublicKey[:]...)
	dst = c.Slot.ToBytesCompact(dst)
	dst = codec.AppendU32LE(dst, c.Index)
	dst = append(dst, c.EndorsedBlock.Bytes()...)
	return dst
}

func DecodeEndorsementContent(c *codec.Cursor) (EndorsementContent, error) {
	pkBytes, err := c.ReadExact(crypto.PublicKeySize)
	if err != nil {
		return EndorsementContent{}, err
	}
	var pk crypto.PublicKey
	copy(pk[:], pkBytes)
	slot, err := DecodeSlotCompact(c)
	if err != nil {
		return EndorsementContent{}, err
	}
	index, err := c.ReadU32LE()
	if err != nil {
		return EndorsementContent{}, err
	}
	blockIdBytes, err := c.ReadExact(crypto.HashSize)
	if err != nil {
		return EndorsementContent{}, err
	}
	var blockId BlockId
	copy(blockId[:], blockIdBytes)
	return EndorsementContent{
		SenderPublicKey: pk,
		Slot:            slot,
		Index:           index,
		EndorsedBlock:   blockId,
	}, nil
}

func (e Endorsement) Encode(dst []byte) []byte {
	dst = e.Content.Encode(dst)
	return append(dst, e.Signature[:]...)
}

// DecodeEndorsement decodes a signed Endorsement from the cursor.
func DecodeEndorsement(c *codec.Cursor) (Endorsement, error) {
	content, err := DecodeEndorsementContent(c)
	if err != nil {
		return Endorsement{}, err
	}
	sigBytes, err := c.ReadExact(crypto.SignatureSize)
	if err != nil {
		return Endorsement{}, err
	}
	var sig crypto.Signature
	copy(sig[:], sigBytes)
	return Endorsement{Content: content, Signature: sig}, nil
}

// VerifyIntegrity recomputes hash(content_bytes), verifies Signature
// against Content.SenderPublicKey, and returns the endorsement id on
// success (spec §4.2, analogous to Operation).
func (e Endorsement) VerifyIntegrity(provider crypto.Provider) (EndorsementId, error) {
	contentHash := ComputeHash(provider, e.Content.Encode(nil))
	if !provider.Verify(e.Content.SenderPublicKey, [32]byte(contentHash), e.Signature) {
		return EndorsementId{}, ErrInvalidSignature
	}
	id := ComputeHash(provider, e.Encode(nil))
	return EndorsementId(id), nil
}

// NewSignedEndorsement signs content with priv, mirroring NewSignedOperation.
func NewSignedEndorsement(provider crypto.Provider, priv crypto.PrivateKey, content EndorsementContent) (EndorsementId, Endorsement, error) {
	contentHash := ComputeHash(provider, content.Encode(nil))
	sig, err := provider.Sign(priv, [32]byte(contentHash))
	if err != nil {
		return EndorsementId{}, Endorsement{}, err
	}
	e := Endorsement{Content: content, Signature: sig}
	id := ComputeHash(provider, e.Encode(nil))
	return EndorsementId(id), e, nil
}
