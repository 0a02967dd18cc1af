package link

import (
	"context"
	"net"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/fbrpc/pkg/framework"
)

// TCPListener accepts TCP connections.
type TCPListener struct {
	*net.TCPListener
}

// ListenTCP listens on addr.
func ListenTCP(addr string) (*TCPListener, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	glog.Infof("listening on tcp://%s", l.Addr())
	return &TCPListener{TCPListener: l.(*net.TCPListener)}, nil
}

// Accept implements Listener.
func (l *TCPListener) Accept(ctx context.Context) (Stream, error) {
	if err := l.SetDeadline(time.Time{}); err != nil {
		return nil, err
	}
	var conn net.Conn
	err := fx.RunWithContextCancel(ctx, func() {
		l.SetDeadline(time.Now())
	}, func() (err error) {
		conn, err = l.TCPListener.Accept()
		return
	})
	if err != nil {
		if conn != nil {
			conn.Close()
		}
		return nil, err
	}
	glog.Infof("accepted %s", conn.RemoteAddr())
	return conn, nil
}

// Addr implements Listener.
func (l *TCPListener) Addr() string {
	return "tcp://" + l.TCPListener.Addr().String()
}

// DialTCP connects to addr.
func DialTCP(ctx context.Context, addr string) (Stream, error) {
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}
