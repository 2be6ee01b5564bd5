package physics

import "github.com/kilianp07/h2grid/core/state"

// CellVoltage returns V = V0 + η_act,a + η_act,c + η_ohm.
func CellVoltage(v0, etaAnode, etaCathode, etaOhm float64) float64 {
	return v0 + etaAnode + etaCathode + etaOhm
}

// ElectricPower returns Q_electric = J·V·Area in W.
func ElectricPower(j, voltage, area float64) float64 {
	return j * voltage * area
}

// Electrochemical composes the cell voltage and the electric power drawn.
type Electrochemical struct {
	P ElectrochemicalParams
}

func (Electrochemical) Name() string { return NameElectrochemical }

func (Electrochemical) Requires() []string { return []string{NameActivation, NameOhmic} }

func (Electrochemical) Writes() []state.Field {
	return []state.Field{state.CellVoltage, state.ElectricPower}
}

func (m Electrochemical) Compute(snap state.Snapshot) (Output, error) {
	r := snap.Reader()
	j := r.Get(state.CurrentDensity)
	ea := r.Get(state.ActivationAnode)
	ec := r.Get(state.ActivationCathode)
	eo := r.Get(state.OhmicOverpotential)
	if err := r.Err(); err != nil {
		return Output{}, err
	}
	v := CellVoltage(m.P.ReversibleVoltage, ea, ec, eo)
	out := newOutput()
	out.set(state.CellVoltage, v)
	out.set(state.ElectricPower, ElectricPower(j, v, m.P.Area))
	return out, nil
}
