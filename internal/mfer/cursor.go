package mfer

import (
	"fmt"
)

// ByteOrder selects how multi-byte numeric fields are laid out. The wire
// values match the BLE block content.
type ByteOrder uint8

const (
	BigEndian    ByteOrder = 0x00
	LittleEndian ByteOrder = 0x01
)

func (o ByteOrder) String() string {
	switch o {
	case BigEndian:
		return "Big Endian"
	case LittleEndian:
		return "Little Endian"
	default:
		return fmt.Sprintf("ByteOrder(%d)", uint8(o))
	}
}

// Valid reports whether o is one of the two defined orders.
func (o ByteOrder) Valid() bool {
	return o == BigEndian || o == LittleEndian
}

// Cursor is a bounds-checked sequential reader and writer over a byte
// buffer. The byte order can change at any point and only affects the
// reads and writes that follow.
type Cursor struct {
	buf   []byte
	pos   int
	order ByteOrder
}

// NewReader returns a cursor positioned at the start of buf.
func NewReader(buf []byte, order ByteOrder) *Cursor {
	return &Cursor{buf: buf, order: order}
}

// NewWriter returns an empty cursor that appends to its own buffer.
func NewWriter(order ByteOrder, capacity int) *Cursor {
	if capacity < 0 {
		capacity = 0
	}
	return &Cursor{buf: make([]byte, 0, capacity), order: order}
}

func (c *Cursor) SetByteOrder(order ByteOrder) {
	c.order = order
}

func (c *Cursor) ByteOrder() ByteOrder {
	return c.order
}

// Pos returns the read position.
func (c *Cursor) Pos() int {
	return c.pos
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

// Bytes returns the backing buffer. For a writer this is everything
// written so far.
func (c *Cursor) Bytes() []byte {
	return c.buf
}

func (c *Cursor) need(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative length %d at offset %d", ErrOutOfBounds, n, c.pos)
	}
	if c.Remaining() < n {
		return fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrOutOfBounds, n, c.pos, c.Remaining())
	}
	return nil
}

// ReadBytes returns a copy of the next n bytes.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, c.buf[c.pos:c.pos+n])
	c.pos += n
	return out, nil
}

// ReadFixedText reads an n byte text field including its padding.
func (c *Cursor) ReadFixedText(n int) (FixedText, error) {
	b, err := c.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return FixedText(b), nil
}

// ReadByte reads a single byte.
func (c *Cursor) ReadByte() (byte, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	b := c.buf[c.pos]
	c.pos++
	return b, nil
}

// ReadUint reads an unsigned integer of the given width (1 to 8 bytes) in
// the current byte order.
func (c *Cursor) ReadUint(width int) (uint64, error) {
	if width < 1 || width > 8 {
		return 0, fmt.Errorf("%w: unsupported integer width %d", ErrMalformedStream, width)
	}
	if err := c.need(width); err != nil {
		return 0, err
	}
	v := decodeUint(c.buf[c.pos:c.pos+width], c.order)
	c.pos += width
	return v, nil
}

// ReadInt reads a two's complement integer of the given width and sign
// extends it.
func (c *Cursor) ReadInt(width int) (int64, error) {
	u, err := c.ReadUint(width)
	if err != nil {
		return 0, err
	}
	return signExtend(u, width), nil
}

// WriteBytes appends b.
func (c *Cursor) WriteBytes(b []byte) {
	c.buf = append(c.buf, b...)
}

// WriteFixedText appends t padded with NULs (or truncated) to width n.
func (c *Cursor) WriteFixedText(t FixedText, n int) {
	start := len(c.buf)
	c.buf = append(c.buf, make([]byte, n)...)
	copy(c.buf[start:], t)
}

func (c *Cursor) WriteByte(b byte) error {
	c.buf = append(c.buf, b)
	return nil
}

// WriteUint appends v using width bytes. Values that do not fit fail
// rather than being truncated.
func (c *Cursor) WriteUint(v uint64, width int) error {
	if width < 1 || width > 8 {
		return fmt.Errorf("%w: unsupported integer width %d", ErrMalformedStream, width)
	}
	if width < 8 && v>>(8*uint(width)) != 0 {
		return fmt.Errorf("%w: value %d does not fit in %d bytes", ErrMalformedStream, v, width)
	}
	c.buf = appendUint(c.buf, v, width, c.order)
	return nil
}

// WriteInt appends a signed value in two's complement using width bytes.
func (c *Cursor) WriteInt(v int64, width int) error {
	if width < 1 || width > 8 {
		return fmt.Errorf("%w: unsupported integer width %d", ErrMalformedStream, width)
	}
	if width < 8 {
		min := -(int64(1) << (8*uint(width) - 1))
		max := int64(1)<<(8*uint(width)-1) - 1
		if v < min || v > max {
			return fmt.Errorf("%w: value %d does not fit in %d signed bytes", ErrMalformedStream, v, width)
		}
	}
	c.buf = appendUint(c.buf, uint64(v), width, c.order)
	return nil
}

func decodeUint(b []byte, order ByteOrder) uint64 {
	var v uint64
	if order == LittleEndian {
		for i := len(b) - 1; i >= 0; i-- {
			v = v<<8 | uint64(b[i])
		}
		return v
	}
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

func appendUint(dst []byte, v uint64, width int, order ByteOrder) []byte {
	if order == LittleEndian {
		for i := 0; i < width; i++ {
			dst = append(dst, byte(v>>(8*uint(i))))
		}
		return dst
	}
	for i := width - 1; i >= 0; i-- {
		dst = append(dst, byte(v>>(8*uint(i))))
	}
	return dst
}

func signExtend(u uint64, width int) int64 {
	if width >= 8 {
		return int64(u)
	}
	shift := 64 - 8*uint(width)
	return int64(u<<shift) >> shift
}
