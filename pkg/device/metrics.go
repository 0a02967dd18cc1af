package device

import (
	"context"
	"errors"
	"net/http"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	fx "github.com/robotalks/fbrpc/pkg/framework"
	"github.com/robotalks/fbrpc/pkg/l0/comm"
	"github.com/robotalks/fbrpc/pkg/rpc"
)

const metricsNamespace = "lcd"

// Metrics counts link and RPC activity. It implements rpc.CallObserver.
type Metrics struct {
	Frames      prometheus.Counter
	FrameErrors *prometheus.CounterVec
	Calls       *prometheus.CounterVec
	Updates     prometheus.CounterFunc
	Overruns    prometheus.CounterFunc
	Buffered    prometheus.GaugeFunc
}

// NewMetrics creates metrics reading ring and framebuffer state from d.
func NewMetrics(d *Device) *Metrics {
	return &Metrics{
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "frames_total",
			Help:      "Complete request frames received.",
		}),
		FrameErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "frame_errors_total",
			Help:      "Framing errors causing a resync.",
		}, []string{"kind"}),
		Calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "calls_total",
			Help:      "Requests answered, by method and response status.",
		}, []string{"method", "status"}),
		Updates: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "display_updates_total",
			Help:      "Framebuffer updates presented.",
		}, func() float64 { return float64(d.Framebuffer.Updates()) }),
		Overruns: prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ring_overruns_total",
			Help:      "Received bytes overwriting unread data in the ring buffer.",
		}, func() float64 { return float64(d.Ring.Overruns()) }),
		Buffered: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "ring_buffered_bytes",
			Help:      "Bytes waiting in the ring buffer.",
		}, func() float64 { return float64(d.Ring.Available()) }),
	}
}

// Collectors lists all collectors for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.Frames, m.FrameErrors, m.Calls, m.Updates, m.Overruns, m.Buffered}
}

// Register registers all collectors.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveCall implements rpc.CallObserver.
func (m *Metrics) ObserveCall(method string, resp rpc.Response, err error) {
	if method == "" {
		method = "none"
	}
	m.Calls.WithLabelValues(method, resp.Status).Inc()
}

// ObserveFrameError counts err by kind.
func (m *Metrics) ObserveFrameError(err error) {
	kind := "other"
	switch {
	case errors.Is(err, comm.ErrMessageTooLarge):
		kind = "too_large"
	case errors.Is(err, comm.ErrPayloadOverflow):
		kind = "overflow"
	}
	m.FrameErrors.WithLabelValues(kind).Inc()
}

// MetricsServer serves the collectors of reg over HTTP at /metrics.
func MetricsServer(addr string, reg *prometheus.Registry) fx.Runnable {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	server := &http.Server{Addr: addr, Handler: mux}
	return fx.NamedRun("metrics", fx.RunFunc(func(ctx context.Context) error {
		glog.Infof("metrics on http://%s/metrics", addr)
		err := fx.RunWithContextCancel(ctx, func() { server.Close() }, server.ListenAndServe)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}))
}
