package comm

import (
	"context"
	"io"
)

// DefaultReceiveChunk is the read size used by Receiver.
const DefaultReceiveChunk = 256

// Receiver moves bytes from a blocking stream into a RingBuffer.
// It plays the role of the receive-complete interrupt: every byte is stored
// and the head advanced immediately, nothing here waits for the consumer.
type Receiver struct {
	Ring *RingBuffer
	// Notify is called after each chunk is pushed, it must not block.
	Notify func()
	// ChunkSize is the max bytes per read, DefaultReceiveChunk if 0.
	ChunkSize int
}

// NewReceiver creates a Receiver feeding ring.
func NewReceiver(ring *RingBuffer, notify func()) *Receiver {
	return &Receiver{Ring: ring, Notify: notify}
}

// Run reads from r until it fails or ctx is done. io.EOF is returned as-is.
// Run doesn't interrupt a blocked Read; the caller closes the stream to
// stop it.
func (r *Receiver) Run(ctx context.Context, rd io.Reader) error {
	size := r.ChunkSize
	if size <= 0 {
		size = DefaultReceiveChunk
	}
	buf := make([]byte, size)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := rd.Read(buf)
		for _, b := range buf[:n] {
			r.Ring.Push(b)
		}
		if n > 0 && r.Notify != nil {
			r.Notify()
		}
		if err != nil {
			return err
		}
	}
}
