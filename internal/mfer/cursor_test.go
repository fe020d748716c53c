package mfer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/mwfgate/internal/mfer"
)

func TestCursorReadUintByteOrder(t *testing.T) {
	tests := []struct {
		name  string
		order mfer.ByteOrder
		in    []byte
		width int
		want  uint64
	}{
		{"big 2", mfer.BigEndian, []byte{0x12, 0x34}, 2, 0x1234},
		{"little 2", mfer.LittleEndian, []byte{0x12, 0x34}, 2, 0x3412},
		{"big 3", mfer.BigEndian, []byte{0x01, 0x02, 0x03}, 3, 0x010203},
		{"little 4", mfer.LittleEndian, []byte{0x78, 0x56, 0x34, 0x12}, 4, 0x12345678},
		{"byte", mfer.LittleEndian, []byte{0xAB}, 1, 0xAB},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := mfer.NewReader(tt.in, tt.order)
			got, err := c.ReadUint(tt.width)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 0, c.Remaining())
		})
	}
}

func TestCursorReadIntSignExtends(t *testing.T) {
	c := mfer.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFE, 0x7F}, mfer.BigEndian)
	v, err := c.ReadInt(1)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), v)

	v, err = c.ReadInt(3)
	require.NoError(t, err)
	assert.Equal(t, int64(-2), v)

	v, err = c.ReadInt(1)
	require.NoError(t, err)
	assert.Equal(t, int64(127), v)
}

func TestCursorOutOfBounds(t *testing.T) {
	c := mfer.NewReader([]byte{1, 2}, mfer.BigEndian)
	_, err := c.ReadBytes(3)
	require.ErrorIs(t, err, mfer.ErrOutOfBounds)
	assert.Equal(t, 0, c.Pos(), "failed read must not advance")

	_, err = c.ReadUint(4)
	require.ErrorIs(t, err, mfer.ErrOutOfBounds)

	_, err = c.ReadFixedText(2)
	require.NoError(t, err)
	_, err = c.ReadByte()
	require.ErrorIs(t, err, mfer.ErrOutOfBounds)
}

func TestCursorByteOrderSwitchIsNotRetroactive(t *testing.T) {
	c := mfer.NewReader([]byte{0x00, 0x01, 0x00, 0x01}, mfer.BigEndian)
	first, err := c.ReadUint(2)
	require.NoError(t, err)
	c.SetByteOrder(mfer.LittleEndian)
	second, err := c.ReadUint(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first)
	assert.Equal(t, uint64(0x0100), second)
}

func TestCursorWrite(t *testing.T) {
	w := mfer.NewWriter(mfer.BigEndian, 0)
	require.NoError(t, w.WriteUint(0x0102, 2))
	require.NoError(t, w.WriteInt(-2, 3))
	w.SetByteOrder(mfer.LittleEndian)
	require.NoError(t, w.WriteUint(0x0102, 2))
	w.WriteFixedText(mfer.FixedText("abcdef"), 3)
	w.WriteFixedText(mfer.FixedText("x"), 3)
	assert.Equal(t, []byte{0x01, 0x02, 0xFF, 0xFF, 0xFE, 0x02, 0x01, 'a', 'b', 'c', 'x', 0, 0}, w.Bytes())
}

func TestCursorWriteRejectsOverflow(t *testing.T) {
	w := mfer.NewWriter(mfer.BigEndian, 4)
	require.ErrorIs(t, w.WriteUint(256, 1), mfer.ErrMalformedStream)
	require.ErrorIs(t, w.WriteInt(-129, 1), mfer.ErrMalformedStream)
	require.ErrorIs(t, w.WriteInt(32768, 2), mfer.ErrMalformedStream)
	require.ErrorIs(t, w.WriteUint(1, 9), mfer.ErrMalformedStream)
	assert.Empty(t, w.Bytes())
}
