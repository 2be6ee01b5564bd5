package metrics

import (
	"sync"

	coremetrics "github.com/kilianp07/h2grid/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

var batteryStates = []string{"IDLE", "CHARGING", "DISCHARGING"}

// PromSink exposes the latest tick values as Prometheus gauges.
type PromSink struct {
	values   *prometheus.GaugeVec
	battery  *prometheus.GaugeVec
	ticks    prometheus.Counter
	failures *prometheus.CounterVec

	mu   sync.Mutex
	seen map[string]struct{}
}

// NewPromSink registers tick metrics on the default Prometheus registerer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	values := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "h2grid_value",
		Help: "Latest value of each named simulation quantity",
	}, []string{"name"})
	battery := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "h2grid_battery_state",
		Help: "1 for the current battery state, 0 otherwise",
	}, []string{"state"})
	ticks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "h2grid_ticks_total",
		Help: "Number of simulation ticks recorded",
	})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "h2grid_module_failures_total",
		Help: "Ticks in which a physics module produced no output",
	}, []string{"module"})

	var err error
	if values, err = register(reg, values); err != nil {
		return nil, err
	}
	if battery, err = register(reg, battery); err != nil {
		return nil, err
	}
	if ticks, err = register(reg, ticks); err != nil {
		return nil, err
	}
	if failures, err = register(reg, failures); err != nil {
		return nil, err
	}

	return &PromSink{
		values:   values,
		battery:  battery,
		ticks:    ticks,
		failures: failures,
		seen:     make(map[string]struct{}),
	}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordTick sets one gauge per value. Gauges for values missing from rec
// are removed so that a failed module does not leave stale readings behind.
func (s *PromSink) RecordTick(rec coremetrics.TickRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name := range s.seen {
		if _, ok := rec.Values[name]; !ok {
			s.values.DeleteLabelValues(name)
			delete(s.seen, name)
		}
	}
	for name, v := range rec.Values {
		s.values.WithLabelValues(name).Set(v)
		s.seen[name] = struct{}{}
	}
	for _, st := range batteryStates {
		g := s.battery.WithLabelValues(st)
		if st == rec.BatteryState {
			g.Set(1)
		} else {
			g.Set(0)
		}
	}
	for _, m := range rec.Unavailable {
		s.failures.WithLabelValues(m).Inc()
	}
	s.ticks.Inc()
	return nil
}
