package link

import (
	"context"
	"net/url"
	"strconv"
	"sync"
)

// DefaultBaudRate is used when the serial URL has no baud parameter.
const DefaultBaudRate = 115200

// SerialConfig configures a serial port.
type SerialConfig struct {
	Device   string
	BaudRate int
}

// SerialConfigFromURL parses serial:///dev/ttyX?baud=N.
func SerialConfigFromURL(u *url.URL) (SerialConfig, error) {
	conf := SerialConfig{Device: u.Path, BaudRate: DefaultBaudRate}
	if baud := u.Query().Get("baud"); baud != "" {
		n, err := strconv.Atoi(baud)
		if err != nil {
			return conf, err
		}
		conf.BaudRate = n
	}
	return conf, nil
}

// OpenSerial opens the serial port named by u.
func OpenSerial(u *url.URL) (Stream, error) {
	conf, err := SerialConfigFromURL(u)
	if err != nil {
		return nil, err
	}
	return openSerial(conf)
}

// SerialListener hands out the serial port as a stream. The port is
// reopened for each Accept after the previous stream is closed.
type SerialListener struct {
	Config SerialConfig

	lock   sync.Mutex
	active chan struct{}
	closed chan struct{}
}

// ListenSerial creates a SerialListener.
func ListenSerial(u *url.URL) (*SerialListener, error) {
	conf, err := SerialConfigFromURL(u)
	if err != nil {
		return nil, err
	}
	return &SerialListener{Config: conf, closed: make(chan struct{})}, nil
}

// Accept implements Listener.
func (l *SerialListener) Accept(ctx context.Context) (Stream, error) {
	l.lock.Lock()
	active := l.active
	l.lock.Unlock()
	if active != nil {
		select {
		case <-active:
		case <-l.closed:
			return nil, ErrClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	port, err := openSerial(l.Config)
	if err != nil {
		return nil, err
	}
	done := make(chan struct{})
	l.lock.Lock()
	l.active = done
	l.lock.Unlock()
	return &notifyCloser{Stream: port, done: done}, nil
}

// Addr implements Listener.
func (l *SerialListener) Addr() string {
	return "serial://" + l.Config.Device + "?baud=" + strconv.Itoa(l.Config.BaudRate)
}

// Close implements Listener.
func (l *SerialListener) Close() error {
	l.lock.Lock()
	defer l.lock.Unlock()
	select {
	case <-l.closed:
	default:
		close(l.closed)
	}
	return nil
}

// notifyCloser closes done when the stream is closed.
type notifyCloser struct {
	Stream
	done chan struct{}
	once sync.Once
}

func (s *notifyCloser) Close() error {
	err := s.Stream.Close()
	s.once.Do(func() { close(s.done) })
	return err
}
