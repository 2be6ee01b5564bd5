package metrics

import (
	"sort"
	"time"
)

// TickRecord is the telemetry emitted once per simulation tick.
type TickRecord struct {
	RunID string
	Tick  uint64
	// Time is the simulated instant of the tick, taken from the supply series.
	Time time.Time
	// Values holds every named scalar available for the tick.
	Values map[string]float64
	// BatteryState is IDLE, CHARGING or DISCHARGING.
	BatteryState string
	// Unavailable lists the modules that produced no output this tick.
	Unavailable []string
}

// Names returns the value names in lexical order.
func (r TickRecord) Names() []string {
	out := make([]string, 0, len(r.Values))
	for k := range r.Values {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// MetricsSink records tick telemetry. Failures are reported to the caller
// but never affect the simulation.
type MetricsSink interface {
	RecordTick(rec TickRecord) error
}

// ModuleFailureEvent describes a physics module that failed during a tick.
type ModuleFailureEvent struct {
	RunID  string
	Tick   uint64
	Module string
	Error  string
	Time   time.Time
}

// ModuleFailureRecorder records module failures.
type ModuleFailureRecorder interface {
	RecordModuleFailure(ev ModuleFailureEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordTick(TickRecord) error                 { return nil }
func (NopSink) RecordModuleFailure(ModuleFailureEvent) error { return nil }
