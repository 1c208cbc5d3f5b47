package castproto

import (
	"encoding/binary"
	"fmt"
	"io"
)

// WireType is the low three bits of a field key
type WireType uint8

// Wire types seen in cast envelopes. Groups (3, 4) never appear.
const (
	WireVarint  WireType = 0
	WireFixed64 WireType = 1
	WireBytes   WireType = 2
	WireFixed32 WireType = 5
)

// maxVarintLen is the longest encoding of a 64-bit varint
const maxVarintLen = 10

// DecodeVarint decodes an unsigned base-128 varint, least significant
// group first. It returns the value and the number of bytes consumed, or
// n == 0 when b ends inside the varint or the varint is longer than ten
// bytes.
func DecodeVarint(b []byte) (value uint64, n int) {
	for i := 0; i < len(b) && i < maxVarintLen; i++ {
		c := b[i]
		value |= uint64(c&0x7f) << (7 * uint(i))
		if c&0x80 == 0 {
			return value, i + 1
		}
	}
	return 0, 0
}

// DecodeHeader decodes a field key followed by one varint. For WireBytes
// the varint is the byte length of the field body, which the caller skips
// or slices; for WireVarint it is the scalar itself. n == 0 means b was
// too short.
//
// Cast envelope keys fit in one byte, so tag is the upper five bits and
// wire the lower three; longer keys are decoded the same way.
func DecodeHeader(b []byte) (tag uint32, wire WireType, lengthOrValue uint64, n int) {
	key, kn := DecodeVarint(b)
	if kn == 0 {
		return 0, 0, 0, 0
	}
	tag = uint32(key >> 3)
	wire = WireType(key & 0x07)

	v, vn := DecodeVarint(b[kn:])
	if vn == 0 {
		return tag, wire, 0, 0
	}
	return tag, wire, v, kn + vn
}

// Field is one decoded envelope field. Data aliases the frame buffer and is
// only set for WireBytes.
type Field struct {
	Tag   uint32
	Wire  WireType
	Value uint64
	Data  []byte
}

// String returns a debug representation of the field
func (f Field) String() string {
	if f.Wire == WireBytes {
		return fmt.Sprintf("Field{tag=%d, bytes=%d}", f.Tag, len(f.Data))
	}
	return fmt.Sprintf("Field{tag=%d, wire=%d, value=%d}", f.Tag, f.Wire, f.Value)
}

// Cursor walks the fields of one frame body without copying. Every step is
// bounds checked against the buffer it was given; once a step fails the
// cursor is exhausted.
type Cursor struct {
	buf []byte
	off int
}

// NewCursor returns a cursor over b
func NewCursor(b []byte) *Cursor {
	return &Cursor{buf: b}
}

// Done reports whether the cursor has no more bytes to read
func (c *Cursor) Done() bool {
	return c.off >= len(c.buf)
}

// Offset returns how many bytes have been consumed
func (c *Cursor) Offset() int {
	return c.off
}

// Next decodes the field at the current offset and advances past it. It
// returns io.EOF at the end of the buffer, ErrTruncatedFrame when the field
// runs past the end, and a malformed-frame error for keys it cannot skip.
func (c *Cursor) Next() (Field, error) {
	if c.Done() {
		return Field{}, io.EOF
	}
	rest := c.buf[c.off:]

	key, kn := DecodeVarint(rest)
	if kn == 0 {
		return c.fail(ErrTruncatedFrame)
	}
	f := Field{Tag: uint32(key >> 3), Wire: WireType(key & 0x07)}
	if f.Tag == 0 {
		return c.fail(NewMalformedError("field number 0"))
	}
	rest = rest[kn:]

	var used int
	switch f.Wire {
	case WireVarint:
		v, n := DecodeVarint(rest)
		if n == 0 {
			return c.fail(ErrTruncatedFrame)
		}
		f.Value = v
		used = n

	case WireBytes:
		length, n := DecodeVarint(rest)
		if n == 0 || length > uint64(len(rest)-n) {
			return c.fail(ErrTruncatedFrame)
		}
		f.Value = length
		f.Data = rest[n : n+int(length)]
		used = n + int(length)

	case WireFixed64:
		if len(rest) < 8 {
			return c.fail(ErrTruncatedFrame)
		}
		f.Value = binary.LittleEndian.Uint64(rest)
		used = 8

	case WireFixed32:
		if len(rest) < 4 {
			return c.fail(ErrTruncatedFrame)
		}
		f.Value = uint64(binary.LittleEndian.Uint32(rest))
		used = 4

	default:
		return c.fail(NewMalformedError(fmt.Sprintf("unsupported wire type %d for field %d", f.Wire, f.Tag)))
	}

	c.off += kn + used
	return f, nil
}

func (c *Cursor) fail(err error) (Field, error) {
	c.off = len(c.buf)
	return Field{}, err
}
