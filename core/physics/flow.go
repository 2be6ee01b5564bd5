package physics

import (
	"math"

	"github.com/kilianp07/h2grid/core/simerr"
	"github.com/kilianp07/h2grid/core/state"
)

// FaradayFlow returns the molar rate J/(z·F) for a reaction exchanging z
// electrons per molecule.
func FaradayFlow(c Constants, j, z float64) float64 {
	return j / (z * c.Faraday)
}

// HydrogenOutflow returns N_H2 = J/(2F).
func HydrogenOutflow(c Constants, j float64) float64 { return FaradayFlow(c, j, 2) }

// OxygenOutflow returns N_O2 = J/(4F).
func OxygenOutflow(c Constants, j float64) float64 { return FaradayFlow(c, j, 4) }

// WaterOutflow returns N_H2O,out = N_H2O,in − J/(2F). A negative result
// means the feed does not cover the water split at J.
func WaterOutflow(c Constants, j, inflow float64) float64 {
	return inflow - FaradayFlow(c, j, 2)
}

// FlowRates applies Faraday's law to the product and feed streams.
type FlowRates struct {
	C Constants
}

func (FlowRates) Name() string       { return NameFlowRates }
func (FlowRates) Requires() []string { return nil }
func (FlowRates) Writes() []state.Field {
	return []state.Field{state.HydrogenOutflow, state.OxygenOutflow, state.WaterOutflow}
}

func (f FlowRates) Compute(snap state.Snapshot) (Output, error) {
	r := snap.Reader()
	j := r.Get(state.CurrentDensity)
	in := r.Get(state.WaterInflow)
	if err := r.Err(); err != nil {
		return Output{}, err
	}
	out := newOutput()
	out.set(state.HydrogenOutflow, HydrogenOutflow(f.C, j))
	out.set(state.OxygenOutflow, OxygenOutflow(f.C, j))
	out.set(state.WaterOutflow, WaterOutflow(f.C, j, in))
	return out, nil
}

// EnergyEfficiency returns η_en = LHV·N_H2/(Q_electric + Q_heat,PEM + Q_heat,H2O).
func EnergyEfficiency(p EfficiencyParams, hydrogen, electric float64) (float64, error) {
	return ratio(p.LowerHeatingValue*hydrogen, electric+p.HeatPEM+p.HeatWater)
}

// ExergyEfficiency returns η_ex = E_H2·N_H2/(E_electric + E_heat,PEM + E_heat,H2O).
func ExergyEfficiency(p EfficiencyParams, hydrogen float64) (float64, error) {
	return ratio(p.HydrogenExergy*hydrogen, p.ElectricExergy+p.HeatExergyPEM+p.HeatExergyWater)
}

func ratio(num, den float64) (float64, error) {
	if den == 0 || math.IsNaN(den) || math.IsInf(den, 0) {
		return 0, simerr.Domainf("efficiency denominator %g", den)
	}
	return num / den, nil
}

// Efficiency evaluates the energy and exergy efficiency of hydrogen
// production. The hydrogen rate is recomputed from the tick's current density
// so it always matches the snapshot.
type Efficiency struct {
	C Constants
	P EfficiencyParams
}

func (Efficiency) Name() string { return NameEfficiency }

func (Efficiency) Requires() []string { return []string{NameElectrochemical} }

func (Efficiency) Writes() []state.Field { return nil }

func (e Efficiency) Compute(snap state.Snapshot) (Output, error) {
	r := snap.Reader()
	j := r.Get(state.CurrentDensity)
	q := r.Get(state.ElectricPower)
	if err := r.Err(); err != nil {
		return Output{}, err
	}
	h2 := HydrogenOutflow(e.C, j)
	en, err := EnergyEfficiency(e.P, h2, q)
	if err != nil {
		return Output{}, err
	}
	ex, err := ExergyEfficiency(e.P, h2)
	if err != nil {
		return Output{}, err
	}
	out := newOutput()
	out.Values["energy_efficiency"] = en
	out.Values["exergy_efficiency"] = ex
	return out, nil
}
