package sh

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/fbrpc/pkg/l0/comm"
	"github.com/robotalks/fbrpc/pkg/rpc"
)

// echoDevice answers every request with the test handler semantics.
func echoDevice(conn net.Conn) {
	d := rpc.NewDispatcher(rpc.NewResponseWriter(conn, 0)).
		HandleFunc(rpc.MethodClearDisplay, func(context.Context, *rpc.MapReader) (rpc.Response, error) {
			return rpc.Success(rpc.MsgDisplayCleared), nil
		})
	for {
		payload, err := comm.ReadFrame(conn, 4096)
		if err != nil {
			return
		}
		d.HandleFrame(context.Background(), payload)
	}
}

func clearCall(ctx context.Context, c *rpc.Client) (rpc.Response, error) {
	return c.ClearDisplay(ctx)
}

func TestShellInvoke(t *testing.T) {
	s := &Shell{Config: &Config{Timeout: 5 * time.Second}}
	_, err := s.Invoke(clearCall)
	require.ErrorIs(t, err, ErrNotConnected)

	host, dev := net.Pipe()
	go echoDevice(dev)
	s.Attach("pipe", host)
	require.Equal(t, "pipe", s.Conn.Name)

	out, err := s.Invoke(clearCall)
	require.NoError(t, err)
	require.Equal(t, "success: Display cleared successfully", out)

	s.OutputJSON = true
	out, err = s.Invoke(func(ctx context.Context, c *rpc.Client) (rpc.Response, error) {
		return c.Test(ctx, "hi")
	})
	require.NoError(t, err)
	require.Equal(t, `{"status":"error","message":"Unknown method"}`, out)

	s.Disconnect()
	require.Nil(t, s.Conn)
	dev.Close()
}

func TestFormatResponse(t *testing.T) {
	s := &Shell{OutputJSON: true}
	out, err := s.FormatResponse(rpc.Success(rpc.MsgTestProcessed).WithReceived("x"))
	require.NoError(t, err)
	require.Equal(t, `{"status":"success","message":"Test RPC call processed successfully","received_message":"x"}`, out)
}
