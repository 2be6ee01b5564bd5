package grid

import (
	"sync"
	"time"

	"github.com/kilianp07/h2grid/core/metrics"
	"github.com/kilianp07/h2grid/core/state"
)

// Totals are the run-wide aggregates of a Summary.
type Totals struct {
	Ticks           uint64
	DegradedTicks   uint64
	SuppliedMWh     float64
	DemandedMWh     float64
	UnservedMWh     float64
	SpilledMWh      float64
	ElectrolyzerMWh float64
	// HydrogenMol is the hydrogen produced per m² of cell.
	HydrogenMol  float64
	FinalSoC     float64
	BatteryState string
	Failures     map[string]uint64
}

// Summary accumulates Totals from tick records. It implements
// metrics.MetricsSink so it can sit next to the telemetry sinks.
type Summary struct {
	mu   sync.Mutex
	tick time.Duration
	t    Totals
}

// NewSummary returns an empty summary for ticks of length tick.
func NewSummary(tick time.Duration) *Summary {
	return &Summary{tick: tick, t: Totals{Failures: make(map[string]uint64)}}
}

// RecordTick folds rec into the totals.
func (s *Summary) RecordTick(rec metrics.TickRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &s.t
	t.Ticks++
	if len(rec.Unavailable) > 0 {
		t.DegradedTicks++
	}
	for _, m := range rec.Unavailable {
		t.Failures[m]++
	}
	v := rec.Values
	t.SuppliedMWh += v[SupplyMWh]
	t.DemandedMWh += v[DemandMWh]
	t.UnservedMWh += v[UnservedMWh]
	t.SpilledMWh += v[SpilledMWh]
	t.ElectrolyzerMWh += v[ElectrolyzerMWh]
	t.HydrogenMol += v[state.HydrogenOutflow.String()] * s.tick.Seconds()
	t.FinalSoC = v[BatterySoC]
	t.BatteryState = rec.BatteryState
	return nil
}

// Totals returns a copy safe to read while the run continues.
func (s *Summary) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.t
	out.Failures = make(map[string]uint64, len(s.t.Failures))
	for k, v := range s.t.Failures {
		out.Failures[k] = v
	}
	return out
}
