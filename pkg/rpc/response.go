package rpc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/golang/glog"

	"github.com/robotalks/fbrpc/pkg/l0/comm"
)

// Response statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// DefaultResponseLimit is the max encoded size of a response payload.
const DefaultResponseLimit = 512

// Response is the reply to a request. Fields are encoded in declaration order.
type Response struct {
	Status          string  `cbor:"status" json:"status"`
	Message         string  `cbor:"message" json:"message"`
	ReceivedMessage *string `cbor:"received_message,omitempty" json:"received_message,omitempty"`
}

// Success creates a success response.
func Success(message string) Response {
	return Response{Status: StatusSuccess, Message: message}
}

// Failure creates an error response.
func Failure(message string) Response {
	return Response{Status: StatusError, Message: message}
}

// WithReceived adds received_message.
func (r Response) WithReceived(received string) Response {
	r.ReceivedMessage = &received
	return r
}

// IsSuccess indicates the request succeeded.
func (r Response) IsSuccess() bool {
	return r.Status == StatusSuccess
}

// Received returns received_message or empty string.
func (r Response) Received() string {
	if r.ReceivedMessage == nil {
		return ""
	}
	return *r.ReceivedMessage
}

// String implements fmt.Stringer.
func (r Response) String() string {
	if r.ReceivedMessage != nil {
		return fmt.Sprintf("%s: %s (%q)", r.Status, r.Message, *r.ReceivedMessage)
	}
	return fmt.Sprintf("%s: %s", r.Status, r.Message)
}

// Responder sends responses back to the host.
type Responder interface {
	Respond(context.Context, Response) error
}

// RespondFunc is func type of Responder.
type RespondFunc func(context.Context, Response) error

// Respond implements Responder.
func (f RespondFunc) Respond(ctx context.Context, resp Response) error {
	return f(ctx, resp)
}

// ResponseWriter encodes responses and writes them as frames.
// It is used from the poll context only.
type ResponseWriter struct {
	Writer io.Writer
	Limit  int

	em  cbor.EncMode
	buf bytes.Buffer
}

var encMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	em, err := cbor.EncOptions{}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}

// NewResponseWriter creates a ResponseWriter.
func NewResponseWriter(w io.Writer, limit int) *ResponseWriter {
	if limit <= 0 {
		limit = DefaultResponseLimit
	}
	return &ResponseWriter{Writer: w, Limit: limit, em: encMode}
}

// Encode encodes resp. The result is valid until the next call.
func (w *ResponseWriter) Encode(resp Response) ([]byte, error) {
	w.buf.Reset()
	if err := w.em.NewEncoder(&w.buf).Encode(resp); err != nil {
		return nil, err
	}
	if w.buf.Len() > w.Limit {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrResponseTooLarge, w.buf.Len(), w.Limit)
	}
	return w.buf.Bytes(), nil
}

// Respond implements Responder. A response exceeding the limit is replaced
// by an error response. Writing blocks until the stream accepts all bytes.
func (w *ResponseWriter) Respond(ctx context.Context, resp Response) error {
	body, err := w.Encode(resp)
	if errors.Is(err, ErrResponseTooLarge) {
		glog.Warningf("response dropped: %v", err)
		body, err = w.Encode(Failure(MsgResponseTooLarge))
	}
	if err != nil {
		return err
	}
	glog.V(2).Infof("TX %d bytes: %v", len(body), resp)
	_, err = comm.WriteFrame(w.Writer, body)
	return err
}
