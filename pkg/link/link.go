package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/denisbrodbeck/machineid"
)

// Stream is a connected byte stream.
type Stream = io.ReadWriteCloser

// Listener accepts streams on the device side.
type Listener interface {
	// Accept waits for the next stream.
	Accept(ctx context.Context) (Stream, error)
	// Addr is the URL the listener is reachable at.
	Addr() string
	Close() error
}

// Options are link parameters not carried by the URL.
type Options struct {
	// DeviceID names the device on shared links (MQTT topics).
	DeviceID string
}

var (
	// ErrUnsupportedScheme is returned for an unknown URL scheme.
	ErrUnsupportedScheme = errors.New("unsupported link scheme")
	// ErrClosed is returned by Accept after the listener is closed.
	ErrClosed = errors.New("listener closed")
)

// DefaultDeviceID derives a stable device ID from the machine ID.
func DefaultDeviceID() string {
	id, err := machineid.ProtectedID("lcdsim")
	if err != nil || len(id) < 12 {
		return "lcd"
	}
	return id[:12]
}

// Listen creates a device side listener for rawURL.
func Listen(ctx context.Context, rawURL string, opts Options) (Listener, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "tcp":
		return ListenTCP(u.Host)
	case "serial":
		return ListenSerial(u)
	case "ws":
		return ListenWebsocket(u)
	case "mqtt", "mqtts":
		return ListenMQTT(ctx, rawURL, opts.deviceID(u))
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
}

// Dial connects to the device at rawURL from the host side.
func Dial(ctx context.Context, rawURL string, opts Options) (Stream, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "tcp":
		return DialTCP(ctx, u.Host)
	case "serial":
		return OpenSerial(u)
	case "ws":
		return DialWebsocket(u)
	case "mqtt", "mqtts":
		return DialMQTT(ctx, rawURL, opts.deviceID(u))
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
}

func (o Options) deviceID(u *url.URL) string {
	if id := u.Query().Get("id"); id != "" {
		return id
	}
	if o.DeviceID != "" {
		return o.DeviceID
	}
	return DefaultDeviceID()
}
