package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/robotalks/fbrpc/pkg/device"
	fx "github.com/robotalks/fbrpc/pkg/framework"
	"github.com/robotalks/fbrpc/pkg/link"
)

func init() {
	device.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	conf, err := device.Load()
	if err != nil {
		glog.Exit(err)
	}
	d, err := device.New(conf)
	if err != nil {
		glog.Exit(err)
	}

	runner := fx.NewRunner().HandleSignals()
	l, err := link.Listen(runner.Context, conf.Link, link.Options{DeviceID: conf.DeviceID})
	if err != nil {
		glog.Exit(err)
	}
	defer l.Close()

	loop := fx.NewLoop()
	loop.Interval = conf.PollInterval
	loop.Add(d).AddRunnable(d.Server(l))
	runner.Go(fx.NamedRun("loop", loop))

	if conf.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		if err := d.Metrics.Register(reg); err != nil {
			glog.Exit(err)
		}
		runner.Go(device.MetricsServer(conf.MetricsAddr, reg))
	}

	d.Start()
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}
