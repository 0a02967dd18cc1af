package rpc

import "errors"

var (
	// ErrMalformed indicates bytes which are not well-formed CBOR.
	ErrMalformed = errors.New("malformed CBOR")
	// ErrUnexpectedType indicates a value of the wrong CBOR type.
	ErrUnexpectedType = errors.New("unexpected CBOR type")
	// ErrIndefiniteLength indicates an indefinite length string where the
	// length must be known upfront.
	ErrIndefiniteLength = errors.New("indefinite length")
	// ErrTooLong indicates a text string longer than allowed.
	ErrTooLong = errors.New("string too long")
	// ErrMissingMethod indicates a request map without "method".
	ErrMissingMethod = errors.New("missing method")
	// ErrUnknownMethod indicates no handler matches the method name.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrMissingParams indicates a required parameter is absent.
	ErrMissingParams = errors.New("missing params")
	// ErrResponseTooLarge indicates the encoded response exceeds the limit.
	ErrResponseTooLarge = errors.New("response too large")
)

// Error is a failed request. Message is what the host receives.
type Error struct {
	Message string
	Err     error
}

// Error implements error.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func failWith(message string, err error) error {
	return &Error{Message: message, Err: err}
}
