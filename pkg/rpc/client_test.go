package rpc

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/fbrpc/pkg/l0/comm"
)

// serveDevice runs a minimal device on conn: frames are read with
// ReadFrame and dispatched until the conn closes.
func serveDevice(conn net.Conn, sink FrameBufferSink) {
	d := RegisterHandlers(NewDispatcher(NewResponseWriter(conn, 0)), sink)
	for {
		payload, err := comm.ReadFrame(conn, 4096)
		if err != nil {
			return
		}
		d.HandleFrame(context.Background(), payload)
	}
}

func TestClientRoundTrip(t *testing.T) {
	host, dev := net.Pipe()
	sink := newSinkRecorder(testCapacity)
	done := make(chan struct{})
	go func() {
		serveDevice(dev, sink)
		close(done)
	}()

	c := NewClient(host)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := c.Test(ctx, "hello")
	require.NoError(t, err)
	require.Equal(t, Success(MsgTestProcessed).WithReceived("hello"), resp)

	pixels := bytes.Repeat([]byte{0xf8, 0x00}, 8)
	resp, err = c.DisplayImage(ctx, pixels)
	require.NoError(t, err)
	require.Equal(t, Success(MsgImageDisplayed), resp)

	resp, err = c.DisplayImage(ctx, make([]byte, testCapacity+1))
	require.NoError(t, err)
	require.Equal(t, Failure(MsgImageTooLarge), resp)

	resp, err = c.ClearDisplay(ctx)
	require.NoError(t, err)
	require.Equal(t, Success(MsgDisplayCleared), resp)

	resp, err = c.DisplayDefault(ctx)
	require.NoError(t, err)
	require.Equal(t, Success(MsgDefaultDisplayed), resp)

	resp, err = c.Call(ctx, Request{Method: "reboot"})
	require.NoError(t, err)
	require.Equal(t, Failure(MsgUnknownMethod), resp)

	require.NoError(t, c.Close())
	<-done

	require.Equal(t, [][]byte{pixels}, sink.writes)
	require.Equal(t, 2, sink.updates)
	require.Equal(t, 1, sink.clears)
	require.Equal(t, 1, sink.defaults)
}

func TestRequestEncode(t *testing.T) {
	payload, err := Request{Method: MethodClearDisplay}.Encode()
	require.NoError(t, err)
	require.Equal(t, newCBOR(t).mapOf(1).kv(FieldMethod, MethodClearDisplay).bytes(), payload)

	payload, err = Request{Method: MethodTest, Params: map[string]string{ParamTestMessage: "x"}}.Encode()
	require.NoError(t, err)
	require.Equal(t, newCBOR(t).mapOf(2).
		kv(FieldMethod, MethodTest).
		kv(FieldParams, map[string]string{ParamTestMessage: "x"}).
		bytes(), payload)
}

func TestClientCanceled(t *testing.T) {
	host, dev := net.Pipe()
	defer dev.Close()
	c := NewClient(host)
	defer c.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Test(ctx, "x")
	require.ErrorIs(t, err, context.Canceled)
}

func TestDescribeRequest(t *testing.T) {
	payload, err := Request{
		Method: MethodDisplayImage,
		Params: map[string]any{ParamImageData: make([]byte, 10), "note": "x", "n": 3},
	}.Encode()
	require.NoError(t, err)
	desc, err := DescribeRequest(payload)
	require.NoError(t, err)
	require.Equal(t, `display_image image_data=<10 bytes> n=3 note="x"`, desc)

	_, err = DescribeRequest([]byte{0xa1})
	require.Error(t, err)
}
