// Package grid runs one simulation tick end to end: the energy balance,
// the electrolyzer physics and the telemetry record.
package grid

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/h2grid/core/energy"
	"github.com/kilianp07/h2grid/core/logger"
	"github.com/kilianp07/h2grid/core/metrics"
	"github.com/kilianp07/h2grid/core/pipeline"
	"github.com/kilianp07/h2grid/core/simerr"
	"github.com/kilianp07/h2grid/core/state"
	"github.com/kilianp07/h2grid/internal/eventbus"
)

// Balance value names added to every tick record.
const (
	SupplyMWh           = "supply_mwh"
	DemandMWh           = "demand_mwh"
	DeficitMWh          = "deficit_mwh"
	SurplusMWh          = "surplus_mwh"
	BatteryDeliveredMWh = "battery_delivered_mwh"
	UnservedMWh         = "unserved_mwh"
	SpilledMWh          = "spilled_mwh"
	BatteryStoredMWh    = "battery_stored_mwh"
	BatterySoC          = "battery_soc"
	// ElectrolyzerMWh is the electric energy drawn by the cell over one tick.
	ElectrolyzerMWh = "electrolyzer_energy_mwh"
)

// Controller owns the balancer and the pipeline and emits one
// metrics.TickRecord per tick.
type Controller struct {
	runID    string
	balancer *energy.Balancer
	pipeline *pipeline.Pipeline
	sink     metrics.MetricsSink
	bus      *eventbus.TypedBus[metrics.TickRecord]
	log      logger.Logger
	tick     time.Duration
}

// Option customises a Controller.
type Option func(*Controller)

// WithSink sets the telemetry sink.
func WithSink(s metrics.MetricsSink) Option {
	return func(c *Controller) {
		if s != nil {
			c.sink = s
		}
	}
}

// WithBus publishes every record on bus.
func WithBus(bus *eventbus.TypedBus[metrics.TickRecord]) Option {
	return func(c *Controller) { c.bus = bus }
}

// WithLogger sets the controller logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(c *Controller) {
		if id != "" {
			c.runID = id
		}
	}
}

// WithTickDuration sets the simulated length of a tick, used to convert the
// cell power into energy. It defaults to one hour.
func WithTickDuration(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.tick = d
		}
	}
}

// New returns a controller with a fresh run ID and a NopSink.
func New(b *energy.Balancer, p *pipeline.Pipeline, opts ...Option) (*Controller, error) {
	if b == nil || p == nil {
		return nil, simerr.Invalidf("controller requires a balancer and a pipeline")
	}
	c := &Controller{
		runID:    uuid.NewString(),
		balancer: b,
		pipeline: p,
		sink:     metrics.NopSink{},
		log:      logger.NopLogger{},
		tick:     time.Hour,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// RunID identifies the run in every record.
func (c *Controller) RunID() string { return c.runID }

// Step runs tick. Balancer errors abort the run; module failures and sink
// errors do not.
func (c *Controller) Step(ctx context.Context, tick uint64) (metrics.TickRecord, error) {
	if err := ctx.Err(); err != nil {
		return metrics.TickRecord{}, err
	}
	bal, err := c.balancer.Step(tick)
	if err != nil {
		return metrics.TickRecord{}, fmt.Errorf("balance tick %d: %w", tick, err)
	}
	res := c.pipeline.Step(tick)

	rec := metrics.TickRecord{
		RunID:        c.runID,
		Tick:         tick,
		Time:         bal.Time,
		Values:       c.values(bal, res),
		BatteryState: bal.Battery.String(),
		Unavailable:  unavailable(res),
	}

	c.recordFailures(rec, res)
	if err := c.sink.RecordTick(rec); err != nil {
		c.log.Warnf("record tick %d: %v", tick, err)
	}
	if c.bus != nil {
		c.bus.Publish(rec)
	}
	c.log.Debugw("tick", map[string]any{
		"tick":        tick,
		"battery":     rec.BatteryState,
		"unavailable": len(rec.Unavailable),
	})
	return rec, nil
}

// StepFunc adapts Step to the clock callback.
func (c *Controller) StepFunc(ctx context.Context, tick uint64) error {
	_, err := c.Step(ctx, tick)
	return err
}

func (c *Controller) values(bal energy.Balance, res pipeline.Result) map[string]float64 {
	out := make(map[string]float64, len(res.Values)+11)
	for k, v := range res.Values {
		out[k] = v
	}
	out[SupplyMWh] = bal.SupplyMWh
	out[DemandMWh] = bal.DemandMWh
	out[DeficitMWh] = bal.DeficitMWh
	out[SurplusMWh] = bal.SurplusMWh
	out[BatteryDeliveredMWh] = bal.DeliveredMWh
	out[UnservedMWh] = bal.UnservedMWh
	out[SpilledMWh] = bal.SpilledMWh
	out[BatteryStoredMWh] = bal.StoredMWh
	out[BatterySoC] = bal.SoC
	if p, ok := res.Values[state.ElectricPower.String()]; ok {
		out[ElectrolyzerMWh] = p * c.tick.Hours() / 1e6
	}
	return out
}

func (c *Controller) recordFailures(rec metrics.TickRecord, res pipeline.Result) {
	fr, ok := c.sink.(metrics.ModuleFailureRecorder)
	if !ok {
		return
	}
	for _, name := range rec.Unavailable {
		ev := metrics.ModuleFailureEvent{
			RunID:  rec.RunID,
			Tick:   rec.Tick,
			Module: name,
			Error:  res.Unavailable[name].Error(),
			Time:   rec.Time,
		}
		if err := fr.RecordModuleFailure(ev); err != nil {
			c.log.Warnf("record failure of %s: %v", name, err)
		}
	}
}

func unavailable(res pipeline.Result) []string {
	if len(res.Unavailable) == 0 {
		return nil
	}
	out := make([]string, 0, len(res.Unavailable))
	for name := range res.Unavailable {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
