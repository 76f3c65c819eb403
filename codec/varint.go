package codec

// EncodeVarInt appends value to dst as a LEB128 varint: 7 data bits per
// byte, MSB set on every byte but the last (spec §4.1).
func EncodeVarInt(dst []byte, value uint64) []byte {
	for value >= 0x80 {
		dst = append(dst, byte(value)|0x80)
		value >>= 7
	}
	return append(dst, byte(value))
}

// DecodeVarInt decodes one LEB128 varint from the front of b. Rejects
// non-minimal encodings (a terminating byte of 0x00 after a continuation
// byte, which pads a value that fit in fewer bytes) the same way the
// teacher's CompactSize decoder rejects non-minimal framing, so that for
// every value there is exactly one valid encoding (spec §4.1).
// Returns the decoded value and the number of bytes consumed.
func DecodeVarInt(b []byte) (uint64, int, error) {
	var value uint64
	var shift uint
	for i := 0; i < len(b); i++ {
		if shift >= 64 {
			return 0, 0, newDeserializeError("varint: too many bytes")
		}
		byt := b[i]
		if byt&0x80 == 0 {
			if byt == 0 && i > 0 {
				return 0, 0, newDeserializeError("varint: non-minimal encoding")
			}
			if shift == 63 && byt > 1 {
				return 0, 0, newDeserializeError("varint: overflows 64 bits")
			}
			value |= uint64(byt&0x7f) << shift
			return value, i + 1, nil
		}
		value |= uint64(byt&0x7f) << shift
		shift += 7
	}
	return 0, 0, newDeserializeError("varint: truncated")
}

// DecodeVarIntBounded decodes a VarInt and rejects any value exceeding max,
// so a caller learns a declared length is adversarial before trusting it
// for allocation (spec §4.1: "from_varint_bounded(max) rejects values
// exceeding max").
func DecodeVarIntBounded(b []byte, max uint64) (uint64, int, error) {
	v, n, err := DecodeVarInt(b)
	if err != nil {
		return 0, 0, err
	}
	if v > max {
		return 0, 0, newDeserializeError("varint: value %d exceeds max %d", v, max)
	}
	return v, n, nil
}
