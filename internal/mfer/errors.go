package mfer

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds          = errors.New("read past end of buffer")
	ErrTruncatedSampleBlock = errors.New("sample block is not a whole number of sequences")
	ErrMalformedStream      = errors.New("malformed block stream")
	ErrOrderNotEstablished  = errors.New("byte order not established")
	ErrInvalidTimestamp     = errors.New("invalid measurement time")
	ErrDuplicateCountTag    = errors.New("count tag appears more than once")
	ErrChannelIndexOverflow = errors.New("channel index exceeds declared channel count")
	ErrSequenceOverflow     = errors.New("sample data exceeds declared sequence count")
	ErrIndexOutOfRange      = errors.New("channel index out of range")
	ErrInvalidRange         = errors.New("invalid sample interval")
)

// DecodeError reports the block at which decoding failed.
type DecodeError struct {
	Offset int
	Tag    byte
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("block 0x%02X at offset %d: %v", e.Tag, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
