package rpc

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursorMapWalk(t *testing.T) {
	data := newCBOR(t).mapOf(4).
		kv(1, "int key").
		kv("nested", map[string]interface{}{"a": []int{1, 2, 3}, "b": map[string]int{"c": 4}}).
		kv([]byte{1}, "bytes key").
		kv("last", "value").
		bytes()

	c := NewCursor(data)
	m, err := c.EnterMap()
	require.NoError(t, err)

	walk := func() []string {
		var keys []string
		for {
			key, ok, err := m.Next()
			require.NoError(t, err)
			if !ok {
				break
			}
			keys = append(keys, key)
			require.NoError(t, m.SkipValue())
		}
		return keys
	}
	require.Equal(t, []string{"nested", "last"}, walk())
	require.True(t, c.AtEnd())

	m.Rewind()
	require.Equal(t, []string{"nested", "last"}, walk())
	require.True(t, c.AtEnd())
}

func TestCursorIndefiniteMap(t *testing.T) {
	data := newCBOR(t).mapIndef().kv("a", 1).kv(2, 3).kv("b", "x").end().item("after").bytes()
	c := NewCursor(data)
	m, err := c.EnterMap()
	require.NoError(t, err)

	key, ok, err := m.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "a", key)
	require.NoError(t, m.SkipValue())

	key, ok, err = m.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "b", key)
	s, err := c.Text(-1)
	require.NoError(t, err)
	require.Equal(t, "x", s)

	_, ok, err = m.Next()
	require.NoError(t, err)
	require.False(t, ok)
	s, err = c.Text(-1)
	require.NoError(t, err)
	require.Equal(t, "after", s)
}

func TestCursorByteString(t *testing.T) {
	testCases := []struct {
		name string
		size int
	}{
		{"immediate", 5},
		{"1-byte length", 100},
		{"2-byte length", 300},
		{"4-byte length", 70000},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			content := bytes.Repeat([]byte{0x5a}, tc.size)
			data := newCBOR(t).item(content).item("tail").bytes()
			c := NewCursor(data)
			require.Equal(t, KindBytes, c.Kind())
			b, err := c.ByteString()
			require.NoError(t, err)
			require.Equal(t, content, b)
			// aliases the input
			b[0] = 0
			require.Zero(t, data[len(data)-len(content)-5])
			s, err := c.Text(-1)
			require.NoError(t, err)
			require.Equal(t, "tail", s)
		})
	}
}

func TestCursorErrors(t *testing.T) {
	c := NewCursor([]byte{0x5f, 0x41, 0x01, 0xff})
	_, err := c.ByteString()
	require.Equal(t, ErrIndefiniteLength, err)

	c = NewCursor([]byte{0x45, 0x01})
	_, err = c.ByteString()
	require.True(t, errors.Is(err, ErrMalformed))

	c = NewCursor(newCBOR(t).item("hello").bytes())
	_, err = c.ByteString()
	require.True(t, errors.Is(err, ErrUnexpectedType))
	_, err = c.Text(4)
	require.True(t, errors.Is(err, ErrTooLong))
	require.True(t, c.AtEnd())

	c = NewCursor(nil)
	require.Equal(t, KindInvalid, c.Kind())
	_, err = c.EnterMap()
	require.True(t, errors.Is(err, ErrMalformed))

	c = NewCursor([]byte{0x1c})
	_, err = c.EnterMap()
	require.True(t, errors.Is(err, ErrMalformed))

	c = NewCursor([]byte{0x82, 0x01})
	require.True(t, errors.Is(c.Skip(), ErrMalformed))
}
