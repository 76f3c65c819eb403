package model

import "rubin.dev/protocol/crypto"

const addressPrefix = "ADR"

// Address is derived deterministically from a PublicKey by hashing
// (spec §3).
type Address Hash

var ZeroAddress Address

// AddressFromPublicKey derives an Address from pub via the crypto
// collaborator's hash function.
func AddressFromPublicKey(provider crypto.Provider, pub crypto.PublicKey) Address {
	return Address(ComputeHash(provider, pub[:]))
}

func (a Address) Bytes() []byte { return Hash(a).Bytes() }
func (a Address) Equal(other Address) bool { return Hash(a).Equal(Hash(other)) }

func (a Address) String(p crypto.Provider) string {
	return Hash(a).StringPrefixed(p, addressPrefix)
}

// Thread returns the parallel production lane this address routes to, out
// of threadCount lanes (spec §3: "first_byte * thread_count / 256").
func (a Address) Thread(threadCount uint8) uint8 {
	return uint8((uint16(a[0]) * uint16(threadCount)) / 256)
}

// ParseAddress parses a bare or "ADR-"-prefixed textual address.
func ParseAddress(p crypto.Provider, s string) (Address, error) {
	h, err := ParseHash(p, s, addressPrefix)
	return Address(h), err
}
