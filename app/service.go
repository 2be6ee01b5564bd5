package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kilianp07/h2grid/config"
	"github.com/kilianp07/h2grid/core/clock"
	"github.com/kilianp07/h2grid/core/energy"
	"github.com/kilianp07/h2grid/core/grid"
	coremetrics "github.com/kilianp07/h2grid/core/metrics"
	coremon "github.com/kilianp07/h2grid/core/monitoring"
	"github.com/kilianp07/h2grid/core/physics"
	"github.com/kilianp07/h2grid/core/pipeline"
	"github.com/kilianp07/h2grid/core/series"
	"github.com/kilianp07/h2grid/infra/logger"
	"github.com/kilianp07/h2grid/infra/metrics"
	"github.com/kilianp07/h2grid/infra/monitoring"
	"github.com/kilianp07/h2grid/infra/mqtt"
	"github.com/kilianp07/h2grid/internal/eventbus"
)

// Service wires the configured datasets, physics and sinks to the clock.
type Service struct {
	Controller *grid.Controller
	Summary    *grid.Summary
	Clock      *clock.Clock

	sink     coremetrics.MetricsSink
	monitor  coremon.Monitor
	log      logger.Logger
	promPort string
}

type options struct {
	sinks    bool
	bus      *eventbus.TypedBus[coremetrics.TickRecord]
	maxTicks *uint64
}

// Option customises New.
type Option func(*options)

// WithoutSinks replaces the configured telemetry with the run summary only.
func WithoutSinks() Option { return func(o *options) { o.sinks = false } }

// WithBus publishes every tick record on bus.
func WithBus(bus *eventbus.TypedBus[coremetrics.TickRecord]) Option {
	return func(o *options) { o.bus = bus }
}

// WithMaxTicks overrides simulation.max_ticks.
func WithMaxTicks(n uint64) Option { return func(o *options) { o.maxTicks = &n } }

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	o := options{sinks: true}
	for _, fn := range opts {
		fn(&o)
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	supply, err := series.LoadCSV(cfg.Series.SupplyPath, cfg.Series.SupplyColumn)
	if err != nil {
		return nil, fmt.Errorf("supply series: %w", err)
	}
	demand, err := series.LoadCSV(cfg.Series.DemandPath, cfg.Series.DemandColumn)
	if err != nil {
		return nil, fmt.Errorf("demand series: %w", err)
	}
	tick := cfg.Simulation.TickDuration()
	battery, err := energy.NewBattery(cfg.Battery, tick)
	if err != nil {
		return nil, fmt.Errorf("battery: %w", err)
	}
	balancer, err := energy.NewBalancer(supply, demand, battery)
	if err != nil {
		return nil, fmt.Errorf("balancer: %w", err)
	}

	st, err := cfg.Generator.NewState()
	if err != nil {
		return nil, fmt.Errorf("initial state: %w", err)
	}
	stages, err := physics.Stages(cfg.Generator.Physics, physics.StandardLayout)
	if err != nil {
		return nil, fmt.Errorf("physics: %w", err)
	}
	pipe, err := pipeline.New(st, stages, pipeline.WithLogger(logger.New("pipeline")))
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	summary := grid.NewSummary(tick)
	sinks := []coremetrics.MetricsSink{summary}
	promPort := ""
	if o.sinks {
		configured, err := newSinks(cfg)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, configured...)
		promPort = cfg.Metrics.PrometheusPort
	}
	sink := coremetrics.NewMultiSink(sinks...)

	ctrl, err := grid.New(balancer, pipe,
		grid.WithSink(sink),
		grid.WithBus(o.bus),
		grid.WithLogger(logger.New("controller")),
		grid.WithTickDuration(tick),
	)
	if err != nil {
		_ = sink.Close()
		return nil, err
	}

	maxTicks := cfg.Simulation.MaxTicks
	if o.maxTicks != nil {
		maxTicks = *o.maxTicks
	}
	logg.Infof("run %s: %d supply rows, %d demand rows, tick %s", ctrl.RunID(), supply.Len(), demand.Len(), tick)
	return &Service{
		Controller: ctrl,
		Summary:    summary,
		Clock:      &clock.Clock{Interval: cfg.Simulation.Interval(), MaxTicks: maxTicks},
		sink:       sink,
		monitor:    mon,
		log:        logg,
		promPort:   promPort,
	}, nil
}

func newSinks(cfg *config.Config) ([]coremetrics.MetricsSink, error) {
	var out []coremetrics.MetricsSink
	if len(cfg.Metrics.Sinks) > 0 {
		s, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
		if err != nil {
			return nil, fmt.Errorf("metrics sink: %w", err)
		}
		out = append(out, s)
	}
	if cfg.MQTT.Broker != "" {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			_ = coremetrics.NewMultiSink(out...).Close()
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		out = append(out, mqtt.NewSensorPublisher(client, cfg.MQTT.TopicPrefix, cfg.MQTT.Sensors))
	}
	return out, nil
}

// Run drives the clock until the context is cancelled, the configured
// number of ticks has run, or a tick fails to balance.
func (s *Service) Run(ctx context.Context) error {
	if s.promPort != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	err := s.Clock.Run(ctx, s.Controller.StepFunc)
	s.log.Infof("run %s stopped after %d ticks", s.Controller.RunID(), s.Clock.Now())
	return err
}

// Close flushes monitoring and releases the sinks.
func (s *Service) Close() error {
	s.monitor.Flush(2 * time.Second)
	return coremetrics.CloseSink(s.sink)
}
