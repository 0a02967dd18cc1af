package rpc

import (
	"context"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
)

// cborBuilder writes CBOR items in a fixed order so tests control map
// entry ordering.
type cborBuilder struct {
	t *testing.T
	b []byte
}

func newCBOR(t *testing.T) *cborBuilder {
	return &cborBuilder{t: t}
}

func (b *cborBuilder) raw(bs ...byte) *cborBuilder {
	b.b = append(b.b, bs...)
	return b
}

func (b *cborBuilder) mapOf(n int) *cborBuilder {
	require.Less(b.t, n, 24)
	return b.raw(0xa0 | byte(n))
}

func (b *cborBuilder) mapIndef() *cborBuilder {
	return b.raw(0xbf)
}

func (b *cborBuilder) end() *cborBuilder {
	return b.raw(0xff)
}

func (b *cborBuilder) item(v interface{}) *cborBuilder {
	data, err := cbor.Marshal(v)
	require.NoError(b.t, err)
	return b.raw(data...)
}

func (b *cborBuilder) kv(key, value interface{}) *cborBuilder {
	return b.item(key).item(value)
}

func (b *cborBuilder) bytes() []byte {
	return b.b
}

type sinkRecorder struct {
	capacity int
	pixels   []byte
	writes   [][]byte
	updates  int
	clears   int
	defaults int
}

func newSinkRecorder(capacity int) *sinkRecorder {
	return &sinkRecorder{capacity: capacity, pixels: make([]byte, capacity)}
}

func (s *sinkRecorder) Capacity() int { return s.capacity }

func (s *sinkRecorder) WritePixels(p []byte) {
	copy(s.pixels, p)
	s.writes = append(s.writes, append([]byte{}, p...))
}

func (s *sinkRecorder) Update()      { s.updates++ }
func (s *sinkRecorder) Clear()       { s.clears++ }
func (s *sinkRecorder) LoadDefault() { s.defaults++ }

type responseRecorder struct {
	responses []Response
}

func (r *responseRecorder) Respond(ctx context.Context, resp Response) error {
	r.responses = append(r.responses, resp)
	return nil
}
