package model

import (
	"testing"

	"rubin.dev/protocol/codec"
	"rubin.dev/protocol/crypto"
)

func testContext() codec.SerializationContext {
	return codec.SerializationContext{
		ThreadCount:             32,
		MaxBlockSize:            1 << 20,
		MaxOperationsPerBlock:   5000,
		MaxEndorsementsPerBlock: 32,
		MaxMessageSize:          1 << 16,
	}
}

func installTestContext(t *testing.T) {
	t.Helper()
	codec.ResetSerializationContextForTest()
	if err := codec.InitSerializationContext(testContext()); err != nil {
		t.Fatalf("InitSerializationContext: %v", err)
	}
	t.Cleanup(codec.ResetSerializationContextForTest)
}

func mustKeyPair(t *testing.T) (crypto.PublicKey, crypto.PrivateKey) {
	t.Helper()
	pub, priv, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	return pub, priv
}

func TestOperationSignAndVerifyRoundTrip(t *testing.T) {
	installTestContext(t)
	p := crypto.Sha3Ed25519Provider{}
	pub, priv := mustKeyPair(t)

	content := OperationContent{
		Fee:             10,
		ExpirePeriod:    100,
		SenderPublicKey: pub,
		OpType:          OperationType{Kind: 1, Payload: []byte("transfer")},
	}
	id, op, err := NewSignedOperation(p, priv, content)
	if err != nil {
		t.Fatalf("NewSignedOperation: %v", err)
	}

	gotId, err := op.VerifyIntegrity(p)
	if err != nil {
		t.Fatalf("VerifyIntegrity: %v", err)
	}
	if gotId != id {
		t.Fatalf("id mismatch: %x != %x", gotId, id)
	}
}

func TestOperationVerifyIntegrityRejectsMutatedFee(t *testing.T) {
	// This is scenario S2 from spec §8: mutate content.fee after signing.
	installTestContext(t)
	p := crypto.Sha3Ed25519Provider{}
	pub, priv := mustKeyPair(t)

	content := OperationContent{Fee: 10, ExpirePeriod: 100, SenderPublicKey: pub}
	_, op, err := NewSignedOperation(p, priv, content)
	if err != nil {
		t.Fatalf("NewSignedOperation: %v", err)
	}
	op.Content.Fee = 111

	if _, err := op.VerifyIntegrity(p); err == nil {
		t.Fatalf("expected VerifyIntegrity to reject mutated fee")
	}
}

func TestOperationEncodeDecodeRoundTrip(t *testing.T) {
	installTestContext(t)
	p := crypto.Sha3Ed25519Provider{}
	pub, priv := mustKeyPair(t)

	content := OperationContent{
		Fee:             42,
		ExpirePeriod:    7,
		SenderPublicKey: pub,
		OpType:          OperationType{Kind: 2, Payload: []byte("roll_buy")},
	}
	_, op, err := NewSignedOperation(p, priv, content)
	if err != nil {
		t.Fatalf("NewSignedOperation: %v", err)
	}

	enc := op.Encode(nil)
	decoded, n, err := DecodeOperation(enc, uint64(len(enc)))
	if err != nil {
		t.Fatalf("DecodeOperation: %v", err)
	}
	if n != len(enc) {
		t.Fatalf("consumed %d, want %d", n, len(enc))
	}
	reencoded := decoded.Encode(nil)
	if string(reencoded) != string(enc) {
		t.Fatalf("decode(encode(op)) did not round-trip byte-exactly")
	}
}

func TestOperationEncodingIsDeterministic(t *testing.T) {
	installTestContext(t)
	pub, _ := mustKeyPair(t)
	content := OperationContent{Fee: 1, ExpirePeriod: 2, SenderPublicKey: pub}
	a := content.Encode(nil)
	b := content.Encode(nil)
	if string(a) != string(b) {
		t.Fatalf("encoding the same content twice produced different bytes")
	}
}

func TestEndorsementSignAndVerifyRoundTrip(t *testing.T) {
	installTestContext(t)
	p := crypto.Sha3Ed25519Provider{}
	pub, priv := mustKeyPair(t)

	content := EndorsementContent{
		SenderPublicKey: pub,
		Slot:            Slot{Period: 5, Thread: 2},
		Index:           3,
		EndorsedBlock:   BlockId{1, 2, 3},
	}
	id, e, err := NewSignedEndorsement(p, priv, content)
	if err != nil {
		t.Fatalf("NewSignedEndorsement: %v", err)
	}
	gotId, err := e.VerifyIntegrity(p)
	if err != nil {
		t.Fatalf("VerifyIntegrity: %v", err)
	}
	if gotId != id {
		t.Fatalf("id mismatch")
	}
}

func buildSignedBlock(t *testing.T, p crypto.Provider, creatorPub crypto.PublicKey, creatorPriv crypto.PrivateKey, slot Slot, parents []BlockId, opCount int) (BlockId, Block) {
	t.Helper()
	var ops []Operation
	var opIds []OperationId
	for i := 0; i < opCount; i++ {
		pub, priv := mustKeyPair(t)
		content := OperationContent{Fee: Amount(i), ExpirePeriod: 100, SenderPublicKey: pub}
		id, op, err := NewSignedOperation(p, priv, content)
		if err != nil {
			t.Fatalf("NewSignedOperation: %v", err)
		}
		ops = append(ops, op)
		opIds = append(opIds, id)
	}
	root := MerkleRoot(p, opIds)
	headerContent := BlockHeaderContent{
		Creator:             creatorPub,
		Slot:                slot,
		Parents:             parents,
		OperationMerkleRoot: root,
	}
	blockId, header, err := NewSignedBlockHeader(p, creatorPriv, headerContent)
	if err != nil {
		t.Fatalf("NewSignedBlockHeader: %v", err)
	}
	return blockId, Block{Header: header, Operations: ops}
}

func TestBlockHeaderDoubleHashSignatureBinding(t *testing.T) {
	installTestContext(t)
	p := crypto.Sha3Ed25519Provider{}
	pub, priv := mustKeyPair(t)

	content := BlockHeaderContent{
		Creator:             pub,
		Slot:                Slot{Period: 1, Thread: 0},
		Parents:             make([]BlockId, testContext().ThreadCount),
		OperationMerkleRoot: MerkleRoot(p, nil),
	}
	_, header, err := NewSignedBlockHeader(p, priv, content)
	if err != nil {
		t.Fatalf("NewSignedBlockHeader: %v", err)
	}
	if err := header.CheckSignature(p); err != nil {
		t.Fatalf("CheckSignature: %v", err)
	}

	// Replaying the signature onto a different slot must fail even though
	// the content hash alone would not change meaning (spec §4.2).
	replayed := header
	replayed.Content.Slot = Slot{Period: 2, Thread: 0}
	if err := replayed.CheckSignature(p); err == nil {
		t.Fatalf("expected signature replay onto a different slot to fail")
	}
}

func TestBlockRoundTripByteExact(t *testing.T) {
	installTestContext(t)
	p := crypto.Sha3Ed25519Provider{}
	pub, priv := mustKeyPair(t)

	_, block := buildSignedBlock(t, p, pub, priv, Slot{Period: 1, Thread: 0}, make([]BlockId, testContext().ThreadCount), 3)

	ctx := testContext()
	enc := block.Encode(nil, ctx.MaxOperationsPerBlock)
	decoded, err := DecodeBlock(enc, ctx.ThreadCount, ctx.MaxEndorsementsPerBlock, ctx.MaxOperationsPerBlock, uint64(len(enc)))
	if err != nil {
		t.Fatalf("DecodeBlock: %v", err)
	}
	reencoded := decoded.Encode(nil, ctx.MaxOperationsPerBlock)
	if string(reencoded) != string(enc) {
		t.Fatalf("decode(encode(block)) did not round-trip byte-exactly")
	}

	ok, ids, err := decoded.CheckMerkleRoot(p)
	if err != nil {
		t.Fatalf("CheckMerkleRoot: %v", err)
	}
	if !ok {
		t.Fatalf("expected merkle root to match")
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 operation ids, got %d", len(ids))
	}
}

func TestBlockGenesisParentsInvariant(t *testing.T) {
	installTestContext(t)
	p := crypto.Sha3Ed25519Provider{}
	pub, priv := mustKeyPair(t)

	// Genesis (period 0) must have empty parents.
	content := BlockHeaderContent{
		Creator:             pub,
		Slot:                Slot{Period: 0, Thread: 0},
		OperationMerkleRoot: MerkleRoot(p, nil),
	}
	_, header, err := NewSignedBlockHeader(p, priv, content)
	if err != nil {
		t.Fatalf("NewSignedBlockHeader: %v", err)
	}
	enc := header.Content.Encode(nil)
	c := codec.NewCursor(enc)
	if _, err := DecodeBlockHeaderContent(c, testContext().ThreadCount, testContext().MaxEndorsementsPerBlock); err != nil {
		t.Fatalf("DecodeBlockHeaderContent: %v", err)
	}

	// Non-genesis with empty parents must be rejected.
	badContent := BlockHeaderContent{
		Creator:             pub,
		Slot:                Slot{Period: 1, Thread: 0},
		OperationMerkleRoot: MerkleRoot(p, nil),
	}
	encBad := badContent.Encode(nil)
	if _, err := DecodeBlockHeaderContent(codec.NewCursor(encBad), testContext().ThreadCount, testContext().MaxEndorsementsPerBlock); err == nil {
		t.Fatalf("expected rejection of non-genesis header with empty parents")
	}
}

func TestMerkleRootMismatchDetected(t *testing.T) {
	installTestContext(t)
	p := crypto.Sha3Ed25519Provider{}
	pub, priv := mustKeyPair(t)

	_, block := buildSignedBlock(t, p, pub, priv, Slot{Period: 1, Thread: 0}, make([]BlockId, testContext().ThreadCount), 2)
	// Append an extra operation so the declared merkle root no longer matches.
	extraPub, extraPriv := mustKeyPair(t)
	_, extraOp, err := NewSignedOperation(p, extraPriv, OperationContent{Fee: 999, ExpirePeriod: 1, SenderPublicKey: extraPub})
	if err != nil {
		t.Fatalf("NewSignedOperation: %v", err)
	}
	block.Operations = append(block.Operations, extraOp)

	ok, _, err := block.CheckMerkleRoot(p)
	if err != nil {
		t.Fatalf("CheckMerkleRoot: %v", err)
	}
	if ok {
		t.Fatalf("expected merkle root mismatch to be detected")
	}
}

func TestHashTextualFormRoundTrip(t *testing.T) {
	p := crypto.Sha3Ed25519Provider{}
	h := ComputeHash(p, []byte("some content"))
	id := BlockId(h)

	s := id.String(p)
	parsed, err := ParseBlockId(p, s)
	if err != nil {
		t.Fatalf("ParseBlockId: %v", err)
	}
	if !parsed.Equal(id) {
		t.Fatalf("round-tripped id mismatch")
	}

	// Bare form (no prefix) must also parse.
	bareParsed, err := ParseBlockId(p, h.String(p))
	if err != nil {
		t.Fatalf("ParseBlockId(bare): %v", err)
	}
	if !bareParsed.Equal(id) {
		t.Fatalf("bare round-tripped id mismatch")
	}
}

func TestAddressThreadRouting(t *testing.T) {
	p := crypto.Sha3Ed25519Provider{}
	pub, _ := mustKeyPair(t)
	addr := AddressFromPublicKey(p, pub)
	thread := addr.Thread(32)
	if thread >= 32 {
		t.Fatalf("thread %d out of range", thread)
	}
}
