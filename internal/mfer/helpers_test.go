package mfer_test

import "example.com/mwfgate/internal/mfer"

// stream assembles short form TLV blocks for hand-built test inputs.
type stream []byte

func (s stream) add(tag byte, body ...byte) stream {
	s = append(s, tag, byte(len(body)))
	return append(s, body...)
}

func (s stream) attr(index byte, body ...byte) stream {
	s = append(s, mfer.TagChannelAttr, index, byte(len(body)))
	return append(s, body...)
}

func (s stream) raw(b ...byte) stream {
	return append(s, b...)
}

func (s stream) end() stream {
	return append(s, mfer.TagEnd)
}

func ones(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = 0xFF
	}
	return b
}

// little starts a little endian stream with one int16 channel per
// declared channel and a 1 ms interval.
func little(channels, sequences byte) stream {
	return stream{}.
		add(mfer.TagByteOrder, byte(mfer.LittleEndian)).
		add(mfer.TagInterval, mfer.IntervalSeconds, 0xFD, 1).
		add(mfer.TagChannelCount, channels).
		add(mfer.TagSequenceCount, sequences)
}
