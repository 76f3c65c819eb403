package codec

import "encoding/binary"

// AppendU16LE appends v as a 2-byte little-endian value to dst.
func AppendU16LE(dst []byte, v uint16) []byte {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return append(dst, buf[:]...)
}

// AppendU32LE appends v as a 4-byte little-endian value to dst.
func AppendU32LE(dst []byte, v uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	return append(dst, buf[:]...)
}

// AppendU64LE appends v as an 8-byte little-endian value to dst.
func AppendU64LE(dst []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(dst, buf[:]...)
}

// MaxPreallocElems bounds how many elements of elemSize bytes a decoder may
// pre-allocate for a count read from untrusted input, given the active
// size cap. This resists "count = 2^32" attacks: a caller must never take
// Vec::with_capacity(count) literally (spec §4.1).
func MaxPreallocElems(sizeCap uint64, elemSize int) uint64 {
	if elemSize <= 0 {
		return 0
	}
	return sizeCap / uint64(elemSize)
}

// BoundedCap returns a slice capacity to pre-allocate for count elements of
// elemSize bytes, clamped by the size cap so a maliciously large count
// cannot force a large allocation before the true length is known.
func BoundedCap(count uint64, sizeCap uint64, elemSize int) int {
	max := MaxPreallocElems(sizeCap, elemSize)
	if count > max {
		count = max
	}
	if count > uint64(int(^uint(0)>>1)) {
		count = uint64(int(^uint(0) >> 1))
	}
	return int(count)
}
