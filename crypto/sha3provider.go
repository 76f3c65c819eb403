package crypto

import (
	stded25519 "crypto/ed25519"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Sha3Ed25519Provider is the default Provider: SHA3-256 content hashing
// (the teacher's own DevStdCryptoProvider.SHA3_256 backend) paired with
// Ed25519 signing/verification. It is a concrete, real implementation
// rather than a stub, so producer/verifier round trips in tests exercise
// genuine cryptography instead of an always-false placeholder.
type Sha3Ed25519Provider struct{}

func (Sha3Ed25519Provider) Hash(data []byte) [HashSize]byte {
	h := sha3.New256()
	_, _ = h.Write(data)
	var out [HashSize]byte
	copy(out[:], h.Sum(nil))
	return out
}

func (Sha3Ed25519Provider) Sign(priv PrivateKey, digest [HashSize]byte) (Signature, error) {
	if len(priv) != stded25519.PrivateKeySize {
		return Signature{}, fmt.Errorf("crypto: private key must be %d bytes", stded25519.PrivateKeySize)
	}
	sig := stded25519.Sign(stded25519.PrivateKey(priv[:]), digest[:])
	var out Signature
	copy(out[:], sig)
	return out, nil
}

func (Sha3Ed25519Provider) Verify(pub PublicKey, digest [HashSize]byte, sig Signature) bool {
	return stded25519.Verify(stded25519.PublicKey(pub[:]), digest[:], sig[:])
}

// GenerateKeyPair creates a fresh Ed25519 key pair for tests and producer
// fixtures. Not used by the worker itself, which only ever verifies.
func GenerateKeyPair() (PublicKey, PrivateKey, error) {
	pub, priv, err := stded25519.GenerateKey(nil)
	if err != nil {
		return PublicKey{}, PrivateKey{}, err
	}
	var pk PublicKey
	var sk PrivateKey
	copy(pk[:], pub)
	copy(sk[:], priv)
	return pk, sk, nil
}
