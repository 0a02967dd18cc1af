package rpc

import (
	"context"
	"errors"

	"github.com/fxamacker/cbor/v2"
	"github.com/golang/glog"

	"github.com/robotalks/fbrpc/pkg/l0/comm"
)

// Request field names.
const (
	FieldMethod = "method"
	FieldParams = "params"
)

// MaxMethodLen is the longest method name that can match a handler.
const MaxMethodLen = 31

// Handler processes one method. root is the request map, rewound to its
// first entry. A returned error is reported to the host using the message
// of *Error if present.
type Handler interface {
	HandleRPC(ctx context.Context, root *MapReader) (Response, error)
}

// HandlerFunc is func type of Handler.
type HandlerFunc func(ctx context.Context, root *MapReader) (Response, error)

// HandleRPC implements Handler.
func (f HandlerFunc) HandleRPC(ctx context.Context, root *MapReader) (Response, error) {
	return f(ctx, root)
}

// CallObserver is notified once per request with the response sent.
// method is empty if the request failed before the method was known.
type CallObserver interface {
	ObserveCall(method string, resp Response, err error)
}

// Dispatcher decodes request payloads and routes them to handlers.
// It implements comm.FrameHandler.
type Dispatcher struct {
	Responder Responder
	Observer  CallObserver

	handlers map[string]Handler
	cursor   Cursor
}

// NewDispatcher creates a Dispatcher sending responses to responder.
func NewDispatcher(responder Responder) *Dispatcher {
	return &Dispatcher{
		Responder: responder,
		handlers:  make(map[string]Handler),
	}
}

// Handle registers the handler for method.
func (d *Dispatcher) Handle(method string, h Handler) *Dispatcher {
	d.handlers[method] = h
	return d
}

// HandleFunc registers a func as the handler for method.
func (d *Dispatcher) HandleFunc(method string, fn func(context.Context, *MapReader) (Response, error)) *Dispatcher {
	return d.Handle(method, HandlerFunc(fn))
}

// Dispatch processes one request payload and sends exactly one response.
// The returned error is the failure to send it.
func (d *Dispatcher) Dispatch(ctx context.Context, payload []byte) (Response, error) {
	method, resp, err := d.process(ctx, payload)
	if err != nil {
		glog.V(2).Infof("request failed: %v", err)
		resp = errorResponse(err)
	}
	if o := d.Observer; o != nil {
		o.ObserveCall(method, resp, err)
	}
	return resp, d.Responder.Respond(ctx, resp)
}

// HandleFrame implements comm.FrameHandler.
func (d *Dispatcher) HandleFrame(ctx context.Context, payload []byte) {
	glog.V(2).Infof("RX frame %d bytes", len(payload))
	if _, err := d.Dispatch(ctx, payload); err != nil {
		glog.Errorf("send response error: %v", err)
	}
}

// HandleFrameError implements comm.FrameHandler.
func (d *Dispatcher) HandleFrameError(ctx context.Context, err error) {
	glog.Warningf("frame error, resync: %v", err)
	if !errors.Is(err, comm.ErrMessageTooLarge) {
		return
	}
	if err := d.Responder.Respond(ctx, Failure(MsgMessageTooLarge)); err != nil {
		glog.Errorf("send response error: %v", err)
	}
}

func (d *Dispatcher) process(ctx context.Context, payload []byte) (string, Response, error) {
	if err := cbor.Wellformed(payload); err != nil {
		return "", Response{}, failWith(MsgParseFailed, err)
	}
	c := &d.cursor
	c.Reset(payload)
	if c.Kind() != KindMap {
		return "", Response{}, failWith(MsgNotRPCMessage, ErrUnexpectedType)
	}
	root, err := c.EnterMap()
	if err != nil {
		return "", Response{}, failWith(MsgBadStructure, err)
	}
	method, err := findMethod(root)
	if err != nil {
		return "", Response{}, err
	}
	glog.V(2).Infof("method %q", method)

	root.Rewind()
	h := d.handlers[method]
	if h == nil {
		return method, Response{}, failWith(MsgUnknownMethod, ErrUnknownMethod)
	}
	resp, err := h.HandleRPC(ctx, root)
	return method, resp, err
}

func findMethod(root *MapReader) (string, error) {
	for {
		key, ok, err := root.Next()
		if err != nil {
			return "", failWith(MsgBadStructure, err)
		}
		if !ok {
			return "", failWith(MsgMethodNotFound, ErrMissingMethod)
		}
		if key != FieldMethod {
			if err = root.SkipValue(); err != nil {
				return "", failWith(MsgBadStructure, err)
			}
			continue
		}
		c := root.Cursor()
		if c.Kind() != KindText {
			return "", failWith(MsgMethodNotString, ErrUnexpectedType)
		}
		method, err := c.Text(-1)
		if err != nil {
			return "", failWith(MsgBadStructure, err)
		}
		if len(method) > MaxMethodLen {
			return "", failWith(MsgUnknownMethod, ErrTooLong)
		}
		return method, nil
	}
}

func errorResponse(err error) Response {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return Failure(rpcErr.Message)
	}
	return Failure(MsgBadStructure)
}
