package rpc

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/robotalks/fbrpc/pkg/l0/comm"
)

// Request is the host side form of an RPC request.
type Request struct {
	Method string `cbor:"method"`
	Params any    `cbor:"params,omitempty"`
}

// Client issues RPC requests to a device over a byte stream.
type Client struct {
	Conn *comm.Client
}

// NewClient creates a Client over rw.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{Conn: comm.NewClient(rw)}
}

// Encode encodes req as a request payload.
func (r Request) Encode() ([]byte, error) {
	return encMode.Marshal(r)
}

// DecodeResponse decodes a response payload.
func DecodeResponse(payload []byte) (resp Response, err error) {
	err = cbor.Unmarshal(payload, &resp)
	return
}

// Call sends a request and waits for the response.
func (c *Client) Call(ctx context.Context, req Request) (Response, error) {
	payload, err := req.Encode()
	if err != nil {
		return Response{}, err
	}
	reply, err := c.Conn.Call(ctx, payload)
	if err != nil {
		return Response{}, err
	}
	return DecodeResponse(reply)
}

// DisplayImage sends raw RGB565 pixels.
func (c *Client) DisplayImage(ctx context.Context, pixels []byte) (Response, error) {
	return c.Call(ctx, Request{
		Method: MethodDisplayImage,
		Params: map[string][]byte{ParamImageData: pixels},
	})
}

// ClearDisplay clears the display.
func (c *Client) ClearDisplay(ctx context.Context) (Response, error) {
	return c.Call(ctx, Request{Method: MethodClearDisplay})
}

// DisplayDefault restores the default image.
func (c *Client) DisplayDefault(ctx context.Context) (Response, error) {
	return c.Call(ctx, Request{Method: MethodDisplayDefault})
}

// Test sends a test message which the device echoes back.
func (c *Client) Test(ctx context.Context, message string) (Response, error) {
	return c.Call(ctx, Request{
		Method: MethodTest,
		Params: map[string]string{ParamTestMessage: message},
	})
}

// Close closes the underlying stream.
func (c *Client) Close() error {
	return c.Conn.Close()
}

// DescribeRequest decodes a request payload into a short readable form.
// Byte strings are summarized by length.
func DescribeRequest(payload []byte) (string, error) {
	var req struct {
		Method string         `cbor:"method"`
		Params map[string]any `cbor:"params"`
	}
	if err := cbor.Unmarshal(payload, &req); err != nil {
		return "", err
	}
	keys := make([]string, 0, len(req.Params))
	for key := range req.Params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteString(req.Method)
	for _, key := range keys {
		switch v := req.Params[key].(type) {
		case []byte:
			fmt.Fprintf(&sb, " %s=<%d bytes>", key, len(v))
		case string:
			fmt.Fprintf(&sb, " %s=%q", key, v)
		default:
			fmt.Fprintf(&sb, " %s=%v", key, v)
		}
	}
	return sb.String(), nil
}
