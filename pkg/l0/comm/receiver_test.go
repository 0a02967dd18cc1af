package comm

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReceiver(t *testing.T) {
	ring := NewRingBuffer(32)
	var notified int
	rcv := NewReceiver(ring, func() { notified++ })
	rcv.ChunkSize = 4
	err := rcv.Run(context.TODO(), bytes.NewReader([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}))
	require.Equal(t, io.EOF, err)
	require.Equal(t, 10, ring.Available())
	require.Equal(t, 3, notified)
	for i := 1; i <= 10; i++ {
		b, err := ring.ReadByte()
		require.NoError(t, err)
		require.Equal(t, byte(i), b)
	}
}

func TestReceiverCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.TODO())
	cancel()
	rcv := NewReceiver(NewRingBuffer(4), nil)
	require.Equal(t, context.Canceled, rcv.Run(ctx, bytes.NewReader([]byte{1})))
}
