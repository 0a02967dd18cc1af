package comm

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type writeRecorder struct {
	writes [][]byte
}

func (w *writeRecorder) Write(p []byte) (int, error) {
	w.writes = append(w.writes, append([]byte{}, p...))
	return len(p), nil
}

func TestWriteFrame(t *testing.T) {
	testCases := []struct {
		name    string
		payload []byte
		writes  [][]byte
	}{
		{"empty", nil, [][]byte{{0, 0, 0, 0}}},
		{"small", []byte{0xa1}, [][]byte{{0, 0, 0, 1}, {0xa1}}},
		{"large", make([]byte, 0x10203), [][]byte{{0, 1, 2, 3}, make([]byte, 0x10203)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var w writeRecorder
			n, err := WriteFrame(&w, tc.payload)
			require.NoError(t, err)
			require.Equal(t, LengthPrefixSize+len(tc.payload), n)
			require.Equal(t, tc.writes, w.writes)
			require.Equal(t, bytes.Join(tc.writes, nil), EncodeFrame(tc.payload))
		})
	}
}

func TestReadFrame(t *testing.T) {
	payload, err := ReadFrame(bytes.NewReader([]byte{0, 0, 0, 2, 1, 2, 3}), 2)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2}, payload)

	_, err = ReadFrame(bytes.NewReader([]byte{0, 0, 0, 3, 1, 2, 3}), 2)
	require.True(t, errors.Is(err, ErrMessageTooLarge))

	_, err = ReadFrame(bytes.NewReader([]byte{0, 0, 0, 3, 1}), 8)
	require.Equal(t, io.ErrUnexpectedEOF, err)

	_, err = ReadFrame(bytes.NewReader(nil), 8)
	require.Equal(t, io.EOF, err)
}
