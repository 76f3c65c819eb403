package model

import (
	"bytes"
	"strings"

	"rubin.dev/protocol/crypto"
)

// Hash is a fixed 32-byte digest. Every id (BlockId, OperationId,
// EndorsementId) is a Hash produced by the crypto collaborator over a
// canonical encoding (spec §3).
type Hash [crypto.HashSize]byte

var ZeroHash Hash

// ComputeHash hashes data through the given provider and wraps the result.
func ComputeHash(provider crypto.Provider, data []byte) Hash {
	return Hash(provider.Hash(data))
}

func (h Hash) Bytes() []byte {
	return h[:]
}

func (h Hash) Equal(other Hash) bool {
	return bytes.Equal(h[:], other[:])
}

func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// LeadingBit returns the high bit of the first byte, a cheap deterministic
// helper for thread assignment without computing a full Address
// (spec_full §5.2).
func (h Hash) LeadingBit() bool {
	return h[0]>>7 == 1
}

func hashChecksum(h crypto.Provider) func([]byte) [32]byte {
	return func(b []byte) [32]byte { return h.Hash(b) }
}

// String returns the bare base58check textual form (no type prefix).
func (h Hash) String(provider crypto.Provider) string {
	return base58CheckEncode(hashChecksum(provider), h[:])
}

// StringPrefixed returns the base58check textual form with a type prefix,
// e.g. "BLO-<base58check>" (spec §6).
func (h Hash) StringPrefixed(provider crypto.Provider, prefix string) string {
	return prefix + "-" + h.String(provider)
}

// ParseHash parses a bare or prefixed textual hash. If wantPrefix is
// non-empty and the string carries a different recognized prefix,
// ErrWrongPrefix is returned; a bare (unprefixed) string is always accepted
// (spec §6: "Textual form optionally prefixed").
func ParseHash(provider crypto.Provider, s string, wantPrefix string) (Hash, error) {
	body := s
	if idx := strings.IndexByte(s, '-'); idx >= 0 && looksLikePrefix(s[:idx]) {
		gotPrefix := s[:idx]
		if wantPrefix != "" && gotPrefix != wantPrefix {
			return Hash{}, errWrongPrefix("expected prefix %q, got %q", wantPrefix, gotPrefix)
		}
		body = s[idx+1:]
	}
	payload, err := base58CheckDecode(hashChecksum(provider), body)
	if err != nil {
		return Hash{}, err
	}
	if len(payload) != crypto.HashSize {
		return Hash{}, errHash("decoded hash has wrong length %d", len(payload))
	}
	var h Hash
	copy(h[:], payload)
	return h, nil
}

func looksLikePrefix(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return false
		}
	}
	return true
}
