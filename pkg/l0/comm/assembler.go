package comm

import (
	"context"
	"encoding/binary"
)

// LengthPrefixSize is the size of the big-endian frame length prefix.
const LengthPrefixSize = 4

// FrameHandler is called by Assembler when a frame completes or fails.
type FrameHandler interface {
	// HandleFrame is called exactly once per complete frame. payload is only
	// valid during the call.
	HandleFrame(ctx context.Context, payload []byte)
	// HandleFrameError is called on an oversize length prefix or a payload
	// overflow, before the buffered bytes are discarded.
	HandleFrameError(ctx context.Context, err error)
}

// FrameHandlerFuncs adapts funcs to FrameHandler. OnError may be nil.
type FrameHandlerFuncs struct {
	OnFrame func(ctx context.Context, payload []byte)
	OnError func(ctx context.Context, err error)
}

// HandleFrame implements FrameHandler.
func (f FrameHandlerFuncs) HandleFrame(ctx context.Context, payload []byte) {
	if f.OnFrame != nil {
		f.OnFrame(ctx, payload)
	}
}

// HandleFrameError implements FrameHandler.
func (f FrameHandlerFuncs) HandleFrameError(ctx context.Context, err error) {
	if f.OnError != nil {
		f.OnError(ctx, err)
	}
}

// AssemblerState is the framing state.
type AssemblerState int

const (
	// AwaitingLength means the 4-byte length prefix is being received.
	AwaitingLength AssemblerState = iota
	// AwaitingPayload means the payload of a validated length is being received.
	AwaitingPayload
)

// String implements fmt.Stringer.
func (s AssemblerState) String() string {
	if s == AwaitingPayload {
		return "awaiting-payload"
	}
	return "awaiting-length"
}

// Assembler reconstructs length-prefixed frames from a ByteSource.
// The payload buffer is allocated once and reused for every frame.
type Assembler struct {
	Handler FrameHandler

	state    AssemblerState
	prefix   [LengthPrefixSize]byte
	expected uint32
	received uint32
	payload  []byte
}

// NewAssembler creates an Assembler accepting payloads up to maxPayload bytes.
func NewAssembler(maxPayload int, handler FrameHandler) *Assembler {
	return &Assembler{
		Handler: handler,
		payload: make([]byte, maxPayload),
	}
}

// MaxPayload returns the largest accepted payload length.
func (a *Assembler) MaxPayload() uint32 {
	return uint32(len(a.payload))
}

// State returns the current framing state.
func (a *Assembler) State() AssemblerState {
	return a.state
}

// Received returns the number of bytes received for the current state.
func (a *Assembler) Received() uint32 {
	return a.received
}

// Poll consumes all bytes currently available from src without blocking
// and returns the number of frames completed.
func (a *Assembler) Poll(ctx context.Context, src ByteSource) (frames int) {
	for src.Available() > 0 {
		b, err := src.ReadByte()
		if err != nil {
			break
		}
		if a.feed(ctx, src, b) {
			frames++
		}
	}
	return
}

// Reset drops any partially received frame.
func (a *Assembler) Reset() {
	a.state, a.expected, a.received = AwaitingLength, 0, 0
}

func (a *Assembler) feed(ctx context.Context, src ByteSource, b byte) bool {
	if a.state == AwaitingLength {
		a.prefix[a.received] = b
		if a.received++; a.received < LengthPrefixSize {
			return false
		}
		a.expected = binary.BigEndian.Uint32(a.prefix[:])
		if a.expected > a.MaxPayload() {
			a.fail(ctx, src, &FrameError{Err: ErrMessageTooLarge, Length: a.expected, Limit: a.MaxPayload()})
			return false
		}
		a.state, a.received = AwaitingPayload, 0
		if a.expected == 0 {
			return a.deliver(ctx)
		}
		return false
	}

	if a.received >= uint32(len(a.payload)) {
		a.fail(ctx, src, &FrameError{Err: ErrPayloadOverflow, Length: a.expected, Limit: a.MaxPayload()})
		return false
	}
	a.payload[a.received] = b
	if a.received++; a.received != a.expected {
		return false
	}
	return a.deliver(ctx)
}

func (a *Assembler) deliver(ctx context.Context) bool {
	defer a.Reset()
	if h := a.Handler; h != nil {
		h.HandleFrame(ctx, a.payload[:a.expected])
	}
	return true
}

func (a *Assembler) fail(ctx context.Context, src ByteSource, err error) {
	if h := a.Handler; h != nil {
		h.HandleFrameError(ctx, err)
	}
	drain(src)
	a.Reset()
}

type drainer interface {
	Drain() int
}

func drain(src ByteSource) {
	if d, ok := src.(drainer); ok {
		d.Drain()
		return
	}
	for src.Available() > 0 {
		if _, err := src.ReadByte(); err != nil {
			return
		}
	}
}
