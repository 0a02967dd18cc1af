package comm

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferEmpty indicates no byte is available in the RingBuffer.
	ErrBufferEmpty = errors.New("buffer empty")
	// ErrMessageTooLarge indicates a length prefix exceeding the max payload.
	ErrMessageTooLarge = errors.New("message too large")
	// ErrPayloadOverflow indicates more payload bytes arrived than the
	// payload buffer can hold.
	ErrPayloadOverflow = errors.New("payload buffer overflow")
)

// FrameError reports a framing failure with the declared frame length.
type FrameError struct {
	Err    error
	Length uint32
	Limit  uint32
}

// Error implements error.
func (e *FrameError) Error() string {
	return fmt.Sprintf("%v: %d bytes (limit %d)", e.Err, e.Length, e.Limit)
}

// Unwrap returns the underlying sentinel error.
func (e *FrameError) Unwrap() error {
	return e.Err
}
