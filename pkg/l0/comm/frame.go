package comm

import (
	"encoding/binary"
	"io"
)

// EncodeFrame returns the length prefix followed by payload.
func EncodeFrame(payload []byte) []byte {
	b := make([]byte, LengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(b, uint32(len(payload)))
	copy(b[LengthPrefixSize:], payload)
	return b
}

// WriteFrame writes the length prefix and the payload as two sequential
// writes. Both writes block until the underlying writer completes.
func WriteFrame(w io.Writer, payload []byte) (n int, err error) {
	var prefix [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	if n, err = w.Write(prefix[:]); err != nil {
		return
	}
	if len(payload) > 0 {
		var n1 int
		n1, err = w.Write(payload)
		n += n1
	}
	return
}

// ReadFrame reads a complete frame and returns its payload. A declared
// length above maxPayload fails with ErrMessageTooLarge before any payload
// byte is read.
func ReadFrame(r io.Reader, maxPayload uint32) ([]byte, error) {
	var prefix [LengthPrefixSize]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(prefix[:])
	if size > maxPayload {
		return nil, &FrameError{Err: ErrMessageTooLarge, Length: size, Limit: maxPayload}
	}
	payload := make([]byte, size)
	_, err := io.ReadFull(r, payload)
	return payload, err
}
