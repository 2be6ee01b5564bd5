// Package energy balances exogenous supply and demand against a battery.
package energy

import (
	"math"
	"time"

	"github.com/kilianp07/h2grid/core/simerr"
)

// State is the operating mode of a battery after its last command.
type State int

const (
	Idle State = iota
	Charging
	Discharging
)

func (s State) String() string {
	switch s {
	case Charging:
		return "CHARGING"
	case Discharging:
		return "DISCHARGING"
	default:
		return "IDLE"
	}
}

// BatterySpec describes a stationary battery.
type BatterySpec struct {
	CapacityMWh    float64 `json:"capacity_mwh"`
	MaxChargeMW    float64 `json:"max_charge_mw"`
	MaxDischargeMW float64 `json:"max_discharge_mw"`
	InitialMWh     float64 `json:"initial_mwh"`
}

// Battery is a bounded energy reservoir. It is owned by the tick loop and
// is not safe for concurrent use.
type Battery struct {
	spec   BatterySpec
	hours  float64
	stored float64
	state  State
}

// NewBattery returns a battery whose rate limits apply over one tick of
// length tick.
func NewBattery(spec BatterySpec, tick time.Duration) (*Battery, error) {
	if spec.CapacityMWh <= 0 {
		return nil, simerr.Invalidf("battery capacity must be positive, got %g", spec.CapacityMWh)
	}
	if spec.MaxChargeMW <= 0 || spec.MaxDischargeMW <= 0 {
		return nil, simerr.Invalidf("battery rates must be positive, got %g/%g", spec.MaxChargeMW, spec.MaxDischargeMW)
	}
	if spec.InitialMWh < 0 || spec.InitialMWh > spec.CapacityMWh {
		return nil, simerr.Invalidf("initial energy %g outside [0, %g]", spec.InitialMWh, spec.CapacityMWh)
	}
	if tick <= 0 {
		return nil, simerr.Invalidf("tick duration must be positive, got %s", tick)
	}
	return &Battery{spec: spec, hours: tick.Hours(), stored: spec.InitialMWh}, nil
}

// Charge stores up to energy MWh and returns what was accepted after the
// rate and capacity limits.
func (b *Battery) Charge(energy float64) (float64, error) {
	if err := checkRequest("charge", energy); err != nil {
		return 0, err
	}
	delivered := math.Min(energy, math.Min(b.spec.MaxChargeMW*b.hours, b.spec.CapacityMWh-b.stored))
	delivered = math.Max(delivered, 0)
	b.stored = math.Min(b.stored+delivered, b.spec.CapacityMWh)
	b.state = Idle
	if delivered > 0 {
		b.state = Charging
	}
	return delivered, nil
}

// Discharge releases up to energy MWh and returns what was delivered after
// the rate and stored-energy limits.
func (b *Battery) Discharge(energy float64) (float64, error) {
	if err := checkRequest("discharge", energy); err != nil {
		return 0, err
	}
	delivered := math.Min(energy, math.Min(b.spec.MaxDischargeMW*b.hours, b.stored))
	delivered = math.Max(delivered, 0)
	b.stored = math.Max(b.stored-delivered, 0)
	b.state = Idle
	if delivered > 0 {
		b.state = Discharging
	}
	return delivered, nil
}

func checkRequest(op string, energy float64) error {
	if energy < 0 || math.IsNaN(energy) || math.IsInf(energy, 0) {
		return simerr.Invalidf("%s amount must be a non-negative finite value, got %g", op, energy)
	}
	return nil
}

// State returns the mode set by the last command.
func (b *Battery) State() State { return b.state }

// StoredEnergy returns the stored energy in MWh.
func (b *Battery) StoredEnergy() float64 { return b.stored }

// Capacity returns the capacity in MWh.
func (b *Battery) Capacity() float64 { return b.spec.CapacityMWh }

// StateOfCharge returns stored/capacity in [0, 1].
func (b *Battery) StateOfCharge() float64 { return b.stored / b.spec.CapacityMWh }
