package energy

import (
	"fmt"
	"math"
	"time"

	"github.com/kilianp07/h2grid/core/series"
	"github.com/kilianp07/h2grid/core/simerr"
)

// Balance reports one tick of the energy balance. Energies are in MWh.
type Balance struct {
	Tick      uint64
	Time      time.Time
	SupplyMWh float64
	DemandMWh float64
	// DeficitMWh is max(0, demand − supply).
	DeficitMWh float64
	// SurplusMWh is max(0, supply − demand).
	SurplusMWh float64
	// DeliveredMWh is the energy the battery accepted or released.
	DeliveredMWh float64
	UnservedMWh  float64
	SpilledMWh   float64
	Battery      State
	StoredMWh    float64
	SoC          float64
}

// Balancer reads supply and demand each tick and commands the battery.
type Balancer struct {
	supply  *series.Series
	demand  *series.Series
	battery *Battery
}

// NewBalancer wires the two series to battery.
func NewBalancer(supply, demand *series.Series, battery *Battery) (*Balancer, error) {
	if supply.Len() == 0 || demand.Len() == 0 {
		return nil, simerr.Invalidf("supply and demand series must not be empty")
	}
	if battery == nil {
		return nil, simerr.Invalidf("balancer requires a battery")
	}
	return &Balancer{supply: supply, demand: demand, battery: battery}, nil
}

// Battery returns the commanded battery.
func (b *Balancer) Battery() *Battery { return b.battery }

// Step balances tick. A deficit discharges the battery; otherwise a surplus
// charges it.
func (b *Balancer) Step(tick uint64) (Balance, error) {
	sup, err := b.supply.At(tick)
	if err != nil {
		return Balance{}, fmt.Errorf("supply: %w", err)
	}
	dem, err := b.demand.At(tick)
	if err != nil {
		return Balance{}, fmt.Errorf("demand: %w", err)
	}
	res := Balance{
		Tick:      tick,
		Time:      sup.Time,
		SupplyMWh: series.ToMWh(sup.EnergyMJ),
		DemandMWh: series.ToMWh(dem.EnergyMJ),
	}
	res.DeficitMWh = math.Max(0, res.DemandMWh-res.SupplyMWh)
	res.SurplusMWh = math.Max(0, res.SupplyMWh-res.DemandMWh)

	switch {
	case res.DeficitMWh > 0:
		res.DeliveredMWh, err = b.battery.Discharge(res.DeficitMWh)
		res.UnservedMWh = res.DeficitMWh - res.DeliveredMWh
	case res.SurplusMWh > 0:
		res.DeliveredMWh, err = b.battery.Charge(res.SurplusMWh)
		res.SpilledMWh = res.SurplusMWh - res.DeliveredMWh
	}
	if err != nil {
		return Balance{}, err
	}
	res.Battery = b.battery.State()
	res.StoredMWh = b.battery.StoredEnergy()
	res.SoC = b.battery.StateOfCharge()
	return res, nil
}
