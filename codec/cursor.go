package codec

import "encoding/binary"

// Cursor reads from a fixed byte slice while enforcing a running size cap.
// Every advance is checked against both the buffer length and the cap, so
// a caller never allocates or copies past the cap before learning an input
// is oversized. This generalizes the teacher's plain length-bounded cursor
// with a second, tighter bound: spec §4.1 requires the cap check at every
// intermediate step, not just at the buffer boundary.
type Cursor struct {
	b   []byte
	pos int
	cap int // -1 means uncapped
}

// NewCursor creates a cursor over b with no size cap beyond len(b).
func NewCursor(b []byte) *Cursor {
	return &Cursor{b: b, pos: 0, cap: -1}
}

// NewBoundedCursor creates a cursor over b whose cursor position must never
// exceed sizeCap, even if b itself is longer.
func NewBoundedCursor(b []byte, sizeCap uint64) *Cursor {
	c := -1
	if sizeCap <= uint64(int(^uint(0)>>1)) {
		c = int(sizeCap)
	}
	return &Cursor{b: b, pos: 0, cap: c}
}

// Pos returns the current read offset.
func (c *Cursor) Pos() int { return c.pos }

func (c *Cursor) checkCap(newPos int) error {
	if c.cap >= 0 && newPos > c.cap {
		return ErrTooLarge
	}
	return nil
}

func (c *Cursor) remaining() int {
	if c.pos >= len(c.b) {
		return 0
	}
	return len(c.b) - c.pos
}

// ReadExact consumes n bytes, checking both buffer length and the size cap.
func (c *Cursor) ReadExact(n int) ([]byte, error) {
	if n < 0 {
		return nil, newDeserializeError("negative length")
	}
	newPos := c.pos + n
	if err := c.checkCap(newPos); err != nil {
		return nil, err
	}
	if c.remaining() < n {
		return nil, newDeserializeError("unexpected EOF: need %d, have %d", n, c.remaining())
	}
	start := c.pos
	c.pos = newPos
	return c.b[start:c.pos], nil
}

func (c *Cursor) ReadU8() (uint8, error) {
	b, err := c.ReadExact(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (c *Cursor) ReadU16LE() (uint16, error) {
	b, err := c.ReadExact(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (c *Cursor) ReadU32LE() (uint32, error) {
	b, err := c.ReadExact(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (c *Cursor) ReadU64LE() (uint64, error) {
	b, err := c.ReadExact(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadVarInt reads a LEB128 VarInt bounded by max.
func (c *Cursor) ReadVarInt(max uint64) (uint64, error) {
	v, n, err := DecodeVarIntBounded(c.b[c.pos:], max)
	if err != nil {
		return 0, err
	}
	if err := c.checkCap(c.pos + n); err != nil {
		return 0, err
	}
	c.pos += n
	return v, nil
}

// ReadBEMin reads a bounded big-endian min-width integer whose width is
// derived from max.
func (c *Cursor) ReadBEMin(max uint64) (uint64, error) {
	v, n, err := DecodeBEMin(c.b[c.pos:], max)
	if err != nil {
		return 0, err
	}
	if err := c.checkCap(c.pos + n); err != nil {
		return 0, err
	}
	c.pos += n
	return v, nil
}

// AtEnd reports whether every byte of the underlying buffer has been consumed.
func (c *Cursor) AtEnd() bool { return c.pos == len(c.b) }
