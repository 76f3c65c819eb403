// Package crypto defines the opaque cryptographic collaborator the worker
// relies on: hashing, signing, and signature verification. The worker never
// implements these primitives itself (spec §1: "Signature primitives ...
// are assumed available as an opaque cryptographic collaborator").
package crypto

const (
	PublicKeySize  = 32
	PrivateKeySize = 64
	SignatureSize  = 64
	HashSize       = 32
)

type PublicKey [PublicKeySize]byte
type PrivateKey [PrivateKeySize]byte
type Signature [SignatureSize]byte

// Provider is the narrow crypto interface the worker and domain model code
// depend on. Implementations may back it with any concrete algorithm; the
// worker only ever calls through this interface.
type Provider interface {
	// Hash computes the canonical 32-byte digest used for every
	// content-addressed id.
	Hash(data []byte) [HashSize]byte

	// Sign produces a signature over digest using priv. Only used by
	// producer-side helpers (e.g. BlockHeader.NewSigned); the worker's
	// ingress/egress paths never sign on their own behalf.
	Sign(priv PrivateKey, digest [HashSize]byte) (Signature, error)

	// Verify reports whether sig is a valid signature by pub over digest.
	Verify(pub PublicKey, digest [HashSize]byte, sig Signature) bool
}
