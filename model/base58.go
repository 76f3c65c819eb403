package model

import "math/big"

// base58check alphabet (Bitcoin-style). No example repo in the retrieval
// corpus vendors a base58 library, so this is hand-written in the same
// no-dependency, explicit-loop idiom the teacher uses for its own
// hand-rolled CompactSize codec.
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var base58Index [256]int8

func init() {
	for i := range base58Index {
		base58Index[i] = -1
	}
	for i, c := range base58Alphabet {
		base58Index[byte(c)] = int8(i)
	}
}

func base58Encode(b []byte) string {
	zero := byte(0)
	numZeros := 0
	for numZeros < len(b) && b[numZeros] == zero {
		numZeros++
	}

	x := new(big.Int).SetBytes(b)
	base := big.NewInt(58)
	mod := new(big.Int)
	var out []byte
	for x.Sign() > 0 {
		x.DivMod(x, base, mod)
		out = append(out, base58Alphabet[mod.Int64()])
	}
	for i := 0; i < numZeros; i++ {
		out = append(out, base58Alphabet[0])
	}
	// reverse
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

func base58Decode(s string) ([]byte, error) {
	x := big.NewInt(0)
	base := big.NewInt(58)
	for i := 0; i < len(s); i++ {
		idx := base58Index[s[i]]
		if idx < 0 {
			return nil, errHash("base58: invalid character %q", s[i])
		}
		x.Mul(x, base)
		x.Add(x, big.NewInt(int64(idx)))
	}
	decoded := x.Bytes()

	numZeros := 0
	for numZeros < len(s) && s[numZeros] == base58Alphabet[0] {
		numZeros++
	}
	out := make([]byte, numZeros+len(decoded))
	copy(out[numZeros:], decoded)
	return out, nil
}

// base58CheckEncode appends a 4-byte checksum (leading bytes of the
// provider's hash of the payload) and base58-encodes the result.
func base58CheckEncode(hashFn func([]byte) [32]byte, payload []byte) string {
	sum := hashFn(payload)
	full := make([]byte, 0, len(payload)+4)
	full = append(full, payload...)
	full = append(full, sum[:4]...)
	return base58Encode(full)
}

func base58CheckDecode(hashFn func([]byte) [32]byte, s string) ([]byte, error) {
	full, err := base58Decode(s)
	if err != nil {
		return nil, err
	}
	if len(full) < 4 {
		return nil, errHash("base58check: too short")
	}
	payload := full[:len(full)-4]
	checksum := full[len(full)-4:]
	sum := hashFn(payload)
	for i := 0; i < 4; i++ {
		if sum[i] != checksum[i] {
			return nil, errHash("base58check: checksum mismatch")
		}
	}
	return payload, nil
}
