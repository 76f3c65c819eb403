package codec

// minBytesFor returns the minimum number of big-endian bytes that can
// represent max, i.e. the fixed width used for every value bounded by max.
func minBytesFor(max uint64) int {
	n := 1
	for max > 0xff {
		max >>= 8
		n++
	}
	return n
}

// EncodeBEMin appends value to dst using the fixed minimum number of
// big-endian bytes sufficient to represent max (spec §4.1: "to_be_min").
// value must not exceed max; callers own that invariant at encode time.
func EncodeBEMin(dst []byte, value, max uint64) []byte {
	width := minBytesFor(max)
	var buf [8]byte
	for i := width - 1; i >= 0; i-- {
		buf[i] = byte(value)
		value >>= 8
	}
	return append(dst, buf[:width]...)
}

// DecodeBEMin decodes a fixed-width big-endian integer whose width is
// derived from max, and rejects a decoded value greater than max.
// Returns the value and the number of bytes consumed.
func DecodeBEMin(b []byte, max uint64) (uint64, int, error) {
	width := minBytesFor(max)
	if len(b) < width {
		return 0, 0, newDeserializeError("be_min: unexpected EOF: need %d, have %d", width, len(b))
	}
	var v uint64
	for i := 0; i < width; i++ {
		v = v<<8 | uint64(b[i])
	}
	if v > max {
		return 0, 0, newDeserializeError("be_min: value %d exceeds max %d", v, max)
	}
	return v, width, nil
}
