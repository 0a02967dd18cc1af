package rpc

import (
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Kind is the CBOR major type of a value.
type Kind byte

// CBOR major types.
const (
	KindUnsigned Kind = iota
	KindNegative
	KindBytes
	KindText
	KindArray
	KindMap
	KindTag
	KindSimple
	// KindInvalid is reported past the end of data.
	KindInvalid Kind = 0xff
)

const (
	breakByte      byte = 0xff
	aiIndefinite   byte = 31
	aiMaxImmediate byte = 23
)

// Cursor reads CBOR values in place from a byte slice.
// Byte strings are returned as sub-slices of the input, nothing is copied.
type Cursor struct {
	data []byte
	off  int
	skip cbor.RawMessage
}

// NewCursor creates a Cursor at the start of data.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Reset points the cursor at the start of data.
func (c *Cursor) Reset(data []byte) {
	c.data, c.off = data, 0
}

// Offset returns the position of the next value.
func (c *Cursor) Offset() int {
	return c.off
}

// AtEnd indicates all data is consumed.
func (c *Cursor) AtEnd() bool {
	return c.off >= len(c.data)
}

// Kind returns the type of the next value.
func (c *Cursor) Kind() Kind {
	if c.AtEnd() {
		return KindInvalid
	}
	return Kind(c.data[c.off] >> 5)
}

// Skip steps over the next value, nested items included.
func (c *Cursor) Skip() error {
	rest, err := cbor.UnmarshalFirst(c.data[c.off:], &c.skip)
	c.skip = c.skip[:0]
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	c.off = len(c.data) - len(rest)
	return nil
}

// Text decodes the next value as a text string. If the string is longer
// than max bytes (max >= 0) the value is consumed and ErrTooLong returned.
func (c *Cursor) Text(max int) (string, error) {
	if kind := c.Kind(); kind != KindText {
		return "", fmt.Errorf("%w: want text, got %v", ErrUnexpectedType, kind)
	}
	var s string
	rest, err := cbor.UnmarshalFirst(c.data[c.off:], &s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	c.off = len(c.data) - len(rest)
	if max >= 0 && len(s) > max {
		return "", fmt.Errorf("%w: %d > %d", ErrTooLong, len(s), max)
	}
	return s, nil
}

// ByteString returns the content of the next definite length byte string.
// The returned slice aliases the cursor data.
func (c *Cursor) ByteString() ([]byte, error) {
	kind, arg, indefinite, n, err := c.head()
	if err != nil {
		return nil, err
	}
	if kind != KindBytes {
		return nil, fmt.Errorf("%w: want bytes, got %v", ErrUnexpectedType, kind)
	}
	if indefinite {
		return nil, ErrIndefiniteLength
	}
	start := c.off + n
	if arg > uint64(len(c.data)-start) {
		return nil, fmt.Errorf("%w: byte string exceeds data", ErrMalformed)
	}
	end := start + int(arg)
	c.off = end
	return c.data[start:end:end], nil
}

// EnterMap moves into the next value which must be a map.
func (c *Cursor) EnterMap() (*MapReader, error) {
	kind, arg, indefinite, n, err := c.head()
	if err != nil {
		return nil, err
	}
	if kind != KindMap {
		return nil, fmt.Errorf("%w: want map, got %v", ErrUnexpectedType, kind)
	}
	c.off += n
	return &MapReader{
		c:          c,
		start:      c.off,
		count:      arg,
		remaining:  arg,
		indefinite: indefinite,
	}, nil
}

// head decodes the initial byte and argument of the next value.
func (c *Cursor) head() (kind Kind, arg uint64, indefinite bool, n int, err error) {
	if c.AtEnd() {
		err = fmt.Errorf("%w: unexpected end of data", ErrMalformed)
		return
	}
	ib := c.data[c.off]
	kind, ai := Kind(ib>>5), ib&0x1f
	switch {
	case ai <= aiMaxImmediate:
		return kind, uint64(ai), false, 1, nil
	case ai == aiIndefinite:
		return kind, 0, true, 1, nil
	case ai > 27:
		err = fmt.Errorf("%w: reserved additional info %d", ErrMalformed, ai)
		return
	}
	size := 1 << (ai - 24)
	if len(c.data)-c.off-1 < size {
		err = fmt.Errorf("%w: truncated argument", ErrMalformed)
		return
	}
	b := c.data[c.off+1 : c.off+1+size]
	switch size {
	case 1:
		arg = uint64(b[0])
	case 2:
		arg = uint64(binary.BigEndian.Uint16(b))
	case 4:
		arg = uint64(binary.BigEndian.Uint32(b))
	default:
		arg = binary.BigEndian.Uint64(b)
	}
	return kind, arg, false, 1 + size, nil
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindUnsigned:
		return "unsigned"
	case KindNegative:
		return "negative"
	case KindBytes:
		return "bytes"
	case KindText:
		return "text"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindTag:
		return "tag"
	case KindSimple:
		return "simple"
	}
	return "invalid"
}

// MapReader walks the entries of a map in encoded order.
type MapReader struct {
	c          *Cursor
	start      int
	count      uint64
	remaining  uint64
	indefinite bool
}

// Cursor returns the underlying cursor, positioned at the value after a
// successful Next.
func (m *MapReader) Cursor() *Cursor {
	return m.c
}

// Next moves to the next entry with a text key and returns the key, the
// cursor is left at the value which the caller must consume (decode or
// SkipValue) before calling Next again. Entries with non-text keys are
// skipped whole. ok is false at the end of the map, with the cursor right
// after the map.
func (m *MapReader) Next() (key string, ok bool, err error) {
	c := m.c
	for {
		if m.indefinite {
			if c.AtEnd() {
				return "", false, fmt.Errorf("%w: unterminated map", ErrMalformed)
			}
			if c.data[c.off] == breakByte {
				c.off++
				return "", false, nil
			}
		} else {
			if m.remaining == 0 {
				return "", false, nil
			}
			m.remaining--
		}
		if c.Kind() == KindText {
			key, err = c.Text(-1)
			return key, err == nil, err
		}
		if err = c.Skip(); err != nil {
			return
		}
		if err = c.Skip(); err != nil {
			return
		}
	}
}

// SkipValue skips the value of the current entry.
func (m *MapReader) SkipValue() error {
	return m.c.Skip()
}

// Rewind moves back to the first entry.
func (m *MapReader) Rewind() {
	m.c.off, m.remaining = m.start, m.count
}
