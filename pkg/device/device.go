package device

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/fbrpc/pkg/display"
	fx "github.com/robotalks/fbrpc/pkg/framework"
	"github.com/robotalks/fbrpc/pkg/l0/comm"
	"github.com/robotalks/fbrpc/pkg/link"
	"github.com/robotalks/fbrpc/pkg/rpc"
)

// ErrNoStream is returned when a response is sent with no stream attached.
var ErrNoStream = errors.New("no stream attached")

// acceptRetryDelay is the pause after a failed Accept.
const acceptRetryDelay = time.Second

// Device is the emulated display device: bytes received from the link go
// through the ring buffer into the frame assembler and the dispatcher,
// which draws into the framebuffer and answers on the same link.
//
// Receive may be called from any goroutine. Poll and Control run in the
// poll context, one at a time.
type Device struct {
	Config      Config
	Ring        *comm.RingBuffer
	Assembler   *comm.Assembler
	Dispatcher  *rpc.Dispatcher
	Responses   *rpc.ResponseWriter
	Framebuffer *display.Framebuffer
	Metrics     *Metrics

	tx       streamWriter
	resyncCh chan chan struct{}
	trigger  func()
}

// New creates a Device from conf.
func New(conf *Config) (*Device, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	d := &Device{
		Config:      *conf,
		Ring:        comm.NewRingBuffer(conf.EffectiveRingSize()),
		Framebuffer: display.NewFramebuffer(conf.Width, conf.Height),
		resyncCh:    make(chan chan struct{}, 1),
	}
	if conf.DefaultImage != "" {
		pix, err := display.LoadImage(conf.DefaultImage)
		if err != nil {
			return nil, err
		}
		d.Framebuffer.SetDefaultImage(pix)
	}
	if conf.Snapshot != "" {
		d.Framebuffer.OnUpdate = display.SnapshotOnUpdate(conf.Snapshot)
	}
	d.Metrics = NewMetrics(d)
	d.Responses = rpc.NewResponseWriter(&d.tx, conf.ResponseLimit)
	d.Dispatcher = rpc.RegisterHandlers(rpc.NewDispatcher(d.Responses), d.Framebuffer)
	d.Dispatcher.Observer = d.Metrics
	d.Assembler = comm.NewAssembler(conf.EffectiveMaxPayload(), comm.FrameHandlerFuncs{
		OnFrame: func(ctx context.Context, payload []byte) {
			d.Metrics.Frames.Inc()
			d.Dispatcher.HandleFrame(ctx, payload)
		},
		OnError: func(ctx context.Context, err error) {
			d.Metrics.ObserveFrameError(err)
			d.Dispatcher.HandleFrameError(ctx, err)
		},
	})
	glog.Infof("device %dx%d, max payload %d, ring %d bytes",
		conf.Width, conf.Height, d.Assembler.MaxPayload(), d.Ring.Cap())
	return d, nil
}

// Start displays the default image, as the firmware does on boot.
func (d *Device) Start() {
	d.Framebuffer.LoadDefault()
}

// Attach sets the stream responses are written to, nil detaches.
func (d *Device) Attach(w io.Writer) {
	d.tx.set(w)
}

// Receive stores one received byte. It never blocks.
func (d *Device) Receive(b byte) {
	d.Ring.Push(b)
	if fn := d.trigger; fn != nil {
		fn()
	}
}

// Poll processes all buffered bytes and returns the number of complete frames.
func (d *Device) Poll(ctx context.Context) int {
	select {
	case ack := <-d.resyncCh:
		n := d.Ring.Drain()
		d.Assembler.Reset()
		glog.V(2).Infof("resync: %d bytes dropped", n)
		close(ack)
	default:
	}
	return d.Assembler.Poll(ctx, d.Ring)
}

// Control implements fx.Controller.
func (d *Device) Control(cc fx.ControlContext) error {
	if n := d.Poll(cc.Context()); n > 0 {
		glog.V(4).Infof("iteration %d: %d frames", cc.Iteration(), n)
	}
	return nil
}

// AddToLoop implements fx.LoopAdder.
func (d *Device) AddToLoop(l *fx.Loop) {
	d.trigger = l.TriggerNext
	l.AddController(fx.PrLvPoll, d)
}

// Server creates a Runnable serving streams accepted from l, one at a time.
func (d *Device) Server(l link.Listener) fx.Runnable {
	return fx.NamedRun("link", fx.RunFunc(func(ctx context.Context) error {
		return d.serve(ctx, l)
	}))
}

func (d *Device) serve(ctx context.Context, l link.Listener) error {
	notify := d.trigger
	if ctl := fx.LoopCtlFrom(ctx); ctl != nil {
		notify = ctl.TriggerNext
	}
	for {
		s, err := l.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, link.ErrClosed) {
				return err
			}
			glog.Errorf("accept error: %v", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(acceptRetryDelay):
			}
			continue
		}
		if err := d.resync(ctx, notify); err != nil {
			s.Close()
			return err
		}
		d.Attach(s)
		receiver := comm.NewReceiver(d.Ring, notify)
		err = fx.RunWithContextCloser(ctx, s, func() error {
			return receiver.Run(ctx, s)
		})
		d.Attach(nil)
		glog.Infof("stream closed: %v", err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// resync asks the poll context to discard stale bytes and partial frames
// and waits until it's done.
func (d *Device) resync(ctx context.Context, notify func()) error {
	ack := make(chan struct{})
	select {
	case d.resyncCh <- ack:
	case <-ctx.Done():
		return ctx.Err()
	}
	if notify != nil {
		notify()
	}
	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// streamWriter forwards writes to the attached stream.
type streamWriter struct {
	lock sync.RWMutex
	w    io.Writer
}

func (s *streamWriter) set(w io.Writer) {
	s.lock.Lock()
	s.w = w
	s.lock.Unlock()
}

func (s *streamWriter) Write(p []byte) (int, error) {
	s.lock.RLock()
	w := s.w
	s.lock.RUnlock()
	if w == nil {
		return 0, ErrNoStream
	}
	return w.Write(p)
}
