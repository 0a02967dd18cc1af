package link

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"
)

// MQTT topic suffixes, relative to <prefix><device-id>.
const (
	// TopicRx carries bytes from the host to the device.
	TopicRx = "/rx"
	// TopicTx carries bytes from the device to the host.
	TopicTx = "/tx"
)

// MQTTStream is a byte stream bridged over a pair of MQTT topics. Each
// Write is published as one message, received messages are concatenated.
type MQTTStream struct {
	Queue    *MQTTQueue
	SubTopic string
	PubTopic string

	sub       *MQTTSubscription
	pr        *io.PipeReader
	pw        *io.PipeWriter
	ownsQueue bool
	done      chan struct{}
	once      sync.Once
}

// NewMQTTStream subscribes subTopic and publishes to pubTopic on q.
func NewMQTTStream(q *MQTTQueue, subTopic, pubTopic string) *MQTTStream {
	s := &MQTTStream{
		Queue:    q,
		SubTopic: subTopic,
		PubTopic: pubTopic,
		done:     make(chan struct{}),
	}
	s.pr, s.pw = io.Pipe()
	s.sub = q.Sub(subTopic, s.handleMsg)
	return s
}

// Read implements io.Reader.
func (s *MQTTStream) Read(p []byte) (int, error) {
	return s.pr.Read(p)
}

// Write implements io.Writer.
func (s *MQTTStream) Write(p []byte) (int, error) {
	if err := s.Queue.Pub(s.PubTopic, append([]byte(nil), p...)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close implements io.Closer.
func (s *MQTTStream) Close() (err error) {
	s.once.Do(func() {
		err = s.sub.Close()
		s.pw.Close()
		s.pr.Close()
		if s.ownsQueue {
			s.Queue.Close()
		}
		close(s.done)
	})
	return
}

// handleMsg blocks until the payload is consumed by Read.
func (s *MQTTStream) handleMsg(_ string, payload []byte) {
	if _, err := s.pw.Write(payload); err != nil {
		glog.V(2).Infof("mqtt stream %s dropped %d bytes: %v", s.SubTopic, len(payload), err)
	}
}

// MQTTListener serves the device side of the MQTT link. The link is
// connectionless, Accept returns a new stream once the previous is closed.
type MQTTListener struct {
	Queue    *MQTTQueue
	DeviceID string
	URL      string

	lock   sync.Mutex
	active *MQTTStream
	closed chan struct{}
	once   sync.Once
}

// ListenMQTT connects to the broker in rawURL.
func ListenMQTT(ctx context.Context, rawURL, deviceID string) (*MQTTListener, error) {
	opts, prefix, err := MQTTOptionsFromURL(rawURL)
	if err != nil {
		return nil, err
	}
	if opts.ClientID == "" {
		opts.SetClientID("lcd:" + deviceID)
	}
	q := NewMQTTQueue(opts, prefix)
	if err := q.Connect(); err != nil {
		return nil, err
	}
	glog.Infof("listening on mqtt topics %s%s{%s,%s}", prefix, deviceID, TopicRx, TopicTx)
	return &MQTTListener{Queue: q, DeviceID: deviceID, URL: rawURL, closed: make(chan struct{})}, nil
}

// Accept implements Listener.
func (l *MQTTListener) Accept(ctx context.Context) (Stream, error) {
	l.lock.Lock()
	active := l.active
	l.lock.Unlock()
	if active != nil {
		select {
		case <-active.done:
		case <-l.closed:
			return nil, ErrClosed
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	select {
	case <-l.closed:
		return nil, ErrClosed
	default:
	}
	s := NewMQTTStream(l.Queue, l.DeviceID+TopicRx, l.DeviceID+TopicTx)
	l.lock.Lock()
	l.active = s
	l.lock.Unlock()
	return s, nil
}

// Addr implements Listener.
func (l *MQTTListener) Addr() string {
	return l.URL
}

// Close implements Listener.
func (l *MQTTListener) Close() error {
	l.once.Do(func() { close(l.closed) })
	l.lock.Lock()
	active := l.active
	l.lock.Unlock()
	if active != nil {
		active.Close()
	}
	return l.Queue.Close()
}

// DialMQTT connects to the device deviceID via the broker in rawURL.
func DialMQTT(ctx context.Context, rawURL, deviceID string) (*MQTTStream, error) {
	opts, prefix, err := MQTTOptionsFromURL(rawURL)
	if err != nil {
		return nil, err
	}
	q := NewMQTTQueue(opts, prefix)
	if err := q.Connect(); err != nil {
		return nil, err
	}
	s := NewMQTTStream(q, deviceID+TopicTx, deviceID+TopicRx)
	s.ownsQueue = true
	s.sub.Token.Wait()
	if err := s.sub.Token.Error(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
