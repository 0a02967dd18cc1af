package rpc

import (
	"context"
	"encoding/binary"
	"strings"
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

func TestResponseEncoding(t *testing.T) {
	testCases := []struct {
		name   string
		resp   Response
		expect func(t *testing.T) []byte
	}{
		{
			"success",
			Success(MsgDisplayCleared),
			func(t *testing.T) []byte {
				return newCBOR(t).mapOf(2).
					kv("status", "success").
					kv("message", MsgDisplayCleared).
					bytes()
			},
		},
		{
			"error",
			Failure(MsgUnknownMethod),
			func(t *testing.T) []byte {
				return newCBOR(t).mapOf(2).
					kv("status", "error").
					kv("message", MsgUnknownMethod).
					bytes()
			},
		},
		{
			"received message",
			Success(MsgTestProcessed).WithReceived("hello"),
			func(t *testing.T) []byte {
				return newCBOR(t).mapOf(3).
					kv("status", "success").
					kv("message", MsgTestProcessed).
					kv("received_message", "hello").
					bytes()
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := NewResponseWriter(nil, 0)
			body, err := w.Encode(tc.resp)
			require.NoError(t, err)
			require.Equal(t, tc.expect(t), body)

			decoded, err := DecodeResponse(body)
			require.NoError(t, err)
			require.Equal(t, tc.resp, decoded)
		})
	}
}

func TestResponseWriterFrames(t *testing.T) {
	rec := &writeRecorder{}
	w := NewResponseWriter(rec, 0)
	require.Equal(t, DefaultResponseLimit, w.Limit)
	require.NoError(t, w.Respond(context.TODO(), Success(MsgTestProcessed).WithReceived("hello")))
	require.Len(t, rec.writes, 2)
	require.Len(t, rec.writes[0], 4)
	require.Equal(t, uint32(len(rec.writes[1])), binary.BigEndian.Uint32(rec.writes[0]))

	resp, err := DecodeResponse(rec.writes[1])
	require.NoError(t, err)
	require.Equal(t, "hello", resp.Received())
	require.True(t, resp.IsSuccess())
}

func TestResponseWriterLimit(t *testing.T) {
	rec := &writeRecorder{}
	w := NewResponseWriter(rec, 64)
	big := Success(MsgTestProcessed).WithReceived(strings.Repeat("x", 100))

	_, err := w.Encode(big)
	require.ErrorIs(t, err, ErrResponseTooLarge)

	require.NoError(t, w.Respond(context.TODO(), big))
	require.Len(t, rec.writes, 2)
	resp, err := DecodeResponse(rec.writes[1])
	require.NoError(t, err)
	require.Equal(t, Failure(MsgResponseTooLarge), resp)
}

func TestResponseString(t *testing.T) {
	require.Equal(t, "error: Unknown method", Failure(MsgUnknownMethod).String())
	require.Equal(t, `success: ok ("hi")`, Success("ok").WithReceived("hi").String())
	require.Empty(t, Success("ok").Received())
}
