package comm

import (
	"context"
	"io"
	"sync"
	"time"
)

// DefaultMaxResponse is the default limit on response payloads read by Client.
const DefaultMaxResponse uint32 = 4096

// Client provides host side request/response over a byte stream.
// Only one request is outstanding at a time.
type Client struct {
	MaxResponse uint32

	rw   io.ReadWriter
	lock sync.Mutex
}

type deadliner interface {
	SetDeadline(time.Time) error
}

// NewClient creates client and wraps the stream.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{MaxResponse: DefaultMaxResponse, rw: rw}
}

// Stream gets the wrapped stream.
func (c *Client) Stream() io.ReadWriter {
	return c.rw
}

// Call sends payload as one frame and waits for the response frame.
// The deadline of ctx is applied when the stream supports deadlines.
func (c *Client) Call(ctx context.Context, payload []byte) ([]byte, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d, ok := c.rw.(deadliner); ok {
		deadline, _ := ctx.Deadline()
		if err := d.SetDeadline(deadline); err != nil {
			return nil, err
		}
	}
	if _, err := WriteFrame(c.rw, payload); err != nil {
		return nil, err
	}
	max := c.MaxResponse
	if max == 0 {
		max = DefaultMaxResponse
	}
	return ReadFrame(c.rw, max)
}

// Close closes the stream if it's an io.Closer.
func (c *Client) Close() error {
	if closer, ok := c.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
