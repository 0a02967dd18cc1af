package link

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// WebsocketListener serves websocket connections over HTTP. Each
// connection carries binary frames, concatenated into one byte stream.
type WebsocketListener struct {
	Path string

	ln     net.Listener
	server *http.Server
	connCh chan *websocketStream
	closed chan struct{}
	once   sync.Once
}

type websocketStream struct {
	*websocket.Conn
	done chan struct{}
	once sync.Once
}

func newWebsocketStream(conn *websocket.Conn) *websocketStream {
	conn.PayloadType = websocket.BinaryFrame
	return &websocketStream{Conn: conn, done: make(chan struct{})}
}

func (s *websocketStream) Close() error {
	err := s.Conn.Close()
	s.once.Do(func() { close(s.done) })
	return err
}

// ListenWebsocket listens on u.Host and accepts websocket connections on u.Path.
func ListenWebsocket(u *url.URL) (*WebsocketListener, error) {
	ln, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, err
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	l := &WebsocketListener{
		Path:   path,
		ln:     ln,
		connCh: make(chan *websocketStream),
		closed: make(chan struct{}),
	}
	mux := http.NewServeMux()
	mux.Handle(path, websocket.Handler(l.serveConn))
	l.server = &http.Server{Handler: mux}
	go func() {
		if err := l.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			glog.Errorf("websocket server error: %v", err)
		}
	}()
	glog.Infof("listening on %s", l.Addr())
	return l, nil
}

// serveConn holds the HTTP handler until the stream is closed.
func (l *WebsocketListener) serveConn(conn *websocket.Conn) {
	s := newWebsocketStream(conn)
	select {
	case l.connCh <- s:
		glog.Infof("accepted websocket %s", conn.Request().RemoteAddr)
	case <-l.closed:
		conn.Close()
		return
	}
	select {
	case <-s.done:
	case <-l.closed:
		s.Close()
	}
}

// Accept implements Listener.
func (l *WebsocketListener) Accept(ctx context.Context) (Stream, error) {
	select {
	case s := <-l.connCh:
		return s, nil
	case <-l.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Addr implements Listener.
func (l *WebsocketListener) Addr() string {
	return "ws://" + l.ln.Addr().String() + l.Path
}

// Close implements Listener.
func (l *WebsocketListener) Close() error {
	l.once.Do(func() { close(l.closed) })
	return l.server.Close()
}

// DialWebsocket connects to a websocket listener.
func DialWebsocket(u *url.URL) (Stream, error) {
	origin := "http://" + u.Host + "/"
	conn, err := websocket.Dial(u.String(), "", origin)
	if err != nil {
		return nil, err
	}
	return newWebsocketStream(conn), nil
}
