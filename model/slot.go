package model

import (
	"encoding/binary"

	"rubin.dev/protocol/codec"
)

// SlotKeySize is the fixed width of Slot's canonical key-form encoding:
// an 8-byte big-endian period plus a 1-byte thread (spec §6).
const SlotKeySize = 9

// Slot is a (period, thread) coordinate, totally ordered lexicographically
// by (period, thread) (spec §3).
type Slot struct {
	Period uint64
	Thread uint8
}

// Less reports whether s sorts before other by (period, thread).
func (s Slot) Less(other Slot) bool {
	if s.Period != other.Period {
		return s.Period < other.Period
	}
	return s.Thread < other.Thread
}

func (s Slot) Equal(other Slot) bool {
	return s.Period == other.Period && s.Thread == other.Thread
}

// ToBytesKey returns the fixed big-endian canonical form used as a
// signature-message prefix (spec §6).
func (s Slot) ToBytesKey() [SlotKeySize]byte {
	var out [SlotKeySize]byte
	binary.BigEndian.PutUint64(out[:8], s.Period)
	out[8] = s.Thread
	return out
}

// ToBytesCompact appends the codec wire form: period as VarInt, thread as
// a single byte (spec §6: "period varint + thread u8").
func (s Slot) ToBytesCompact(dst []byte) []byte {
	dst = codec.EncodeVarInt(dst, s.Period)
	return append(dst, s.Thread)
}

// DecodeSlotCompact decodes a Slot from its compact wire form.
func DecodeSlotCompact(c *codec.Cursor) (Slot, error) {
	period, err := c.ReadVarInt(^uint64(0))
	if err != nil {
		return Slot{}, err
	}
	thread, err := c.ReadU8()
	if err != nil {
		return Slot{}, err
	}
	return Slot{Period: period, Thread: thread}, nil
}
