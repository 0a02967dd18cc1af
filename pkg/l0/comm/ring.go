package comm

import "sync/atomic"

// ByteSource is the consumer side of the receive path.
type ByteSource interface {
	// Available returns the number of bytes ready to be read.
	Available() int
	// ReadByte reads one byte without blocking.
	ReadByte() (byte, error)
}

// RingBuffer is a fixed capacity byte queue with a single producer
// (the receive interrupt) and a single consumer (the poll loop).
//
// head is only written by the producer and tail only by the consumer.
// Both are published with atomic stores, so a byte stored into the buffer
// before a head update is visible to the consumer once it loads that head.
//
// head == tail means empty, so at most Cap()-1 bytes are buffered. Push
// never checks occupancy: if the producer laps the consumer the buffered
// bytes are lost and the buffer looks empty again. The capacity must cover
// the largest burst that can arrive between two polls; Overruns counts the
// times that assumption was broken.
type RingBuffer struct {
	buf      []byte
	head     atomic.Uint32
	tail     atomic.Uint32
	overruns atomic.Uint64
}

// NewRingBuffer creates a RingBuffer with the given capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 2 {
		panic("ring buffer capacity must be at least 2")
	}
	return &RingBuffer{buf: make([]byte, capacity)}
}

// Cap returns the capacity.
func (r *RingBuffer) Cap() int {
	return len(r.buf)
}

// Push stores a byte. It must only be called from the producer side and
// never blocks.
func (r *RingBuffer) Push(b byte) {
	head := r.head.Load()
	r.buf[head] = b
	next := r.advance(head)
	if next == r.tail.Load() {
		r.overruns.Add(1)
	}
	r.head.Store(next)
}

// Available implements ByteSource.
func (r *RingBuffer) Available() int {
	size := uint32(len(r.buf))
	return int((size + r.head.Load() - r.tail.Load()) % size)
}

// ReadByte implements ByteSource. It must only be called from the
// consumer side.
func (r *RingBuffer) ReadByte() (byte, error) {
	tail := r.tail.Load()
	if tail == r.head.Load() {
		return 0, ErrBufferEmpty
	}
	b := r.buf[tail]
	r.tail.Store(r.advance(tail))
	return b, nil
}

// Drain discards all bytes currently available and returns the count.
// Consumer side only.
func (r *RingBuffer) Drain() int {
	n := r.Available()
	r.tail.Store(r.head.Load())
	return n
}

// Overruns returns how many times the producer caught up with the consumer.
func (r *RingBuffer) Overruns() uint64 {
	return r.overruns.Load()
}

func (r *RingBuffer) advance(index uint32) uint32 {
	if index++; index == uint32(len(r.buf)) {
		index = 0
	}
	return index
}
