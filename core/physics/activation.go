package physics

import (
	"math"

	"github.com/kilianp07/h2grid/core/simerr"
	"github.com/kilianp07/h2grid/core/state"
)

// ExchangeCurrentDensity returns J0 = J_ref·exp(−E_act/(R·T)) for electrode e.
func ExchangeCurrentDensity(c Constants, p ActivationParams, e Electrode, temperature float64) (float64, error) {
	k, err := p.kinetics(e)
	if err != nil {
		return 0, err
	}
	if temperature <= 0 {
		return 0, simerr.Invalidf("temperature must be positive, got %g", temperature)
	}
	return k.ReferenceCurrent * math.Exp(-k.ActivationEnergy/(c.GasConstant*temperature)), nil
}

// ActivationOverpotential inverts the symmetric Butler–Volmer relation:
// η = (RT/F)·asinh(J/(2·J0)).
func ActivationOverpotential(c Constants, j, j0, temperature float64) (float64, error) {
	if j0 <= 0 || math.IsInf(j0, 0) || math.IsNaN(j0) {
		return 0, simerr.Domainf("exchange current density %g", j0)
	}
	eta := c.GasConstant * temperature / c.Faraday * math.Asinh(j/(2*j0))
	if math.IsNaN(eta) || math.IsInf(eta, 0) {
		return 0, simerr.Domainf("activation overpotential %g", eta)
	}
	return eta, nil
}

// ButlerVolmerCurrent evaluates
// J = J0·(exp(α·z·F·η/(RT)) − exp(−(1−α)·z·F·η/(RT))).
func ButlerVolmerCurrent(c Constants, j0, eta, alpha, z, temperature float64) float64 {
	f := z * c.Faraday * eta / (c.GasConstant * temperature)
	return j0 * (math.Exp(alpha*f) - math.Exp(-(1-alpha)*f))
}

// Activation computes the exchange current density and the activation
// overpotential of both electrodes.
type Activation struct {
	C Constants
	P ActivationParams
}

func (Activation) Name() string       { return NameActivation }
func (Activation) Requires() []string { return nil }
func (Activation) Writes() []state.Field {
	return []state.Field{state.ExchangeCurrentAnode, state.ExchangeCurrentCathode, state.ActivationAnode, state.ActivationCathode}
}

// Overpotential evaluates η_act for a single electrode.
func (a Activation) Overpotential(e Electrode, j, temperature float64) (float64, error) {
	j0, err := ExchangeCurrentDensity(a.C, a.P, e, temperature)
	if err != nil {
		return 0, err
	}
	return ActivationOverpotential(a.C, j, j0, temperature)
}

func (a Activation) Compute(snap state.Snapshot) (Output, error) {
	r := snap.Reader()
	t := r.Get(state.Temperature)
	j := r.Get(state.CurrentDensity)
	if err := r.Err(); err != nil {
		return Output{}, err
	}
	out := newOutput()
	for _, side := range []struct {
		e        Electrode
		exchange state.Field
		eta      state.Field
	}{
		{Anode, state.ExchangeCurrentAnode, state.ActivationAnode},
		{Cathode, state.ExchangeCurrentCathode, state.ActivationCathode},
	} {
		j0, err := ExchangeCurrentDensity(a.C, a.P, side.e, t)
		if err != nil {
			return Output{}, err
		}
		eta, err := ActivationOverpotential(a.C, j, j0, t)
		if err != nil {
			return Output{}, err
		}
		out.set(side.exchange, j0)
		out.set(side.eta, eta)
		out.Values["butler_volmer_"+string(side.e)] = ButlerVolmerCurrent(a.C, j0, eta, a.P.Transfer, a.P.Electron, t)
	}
	return out, nil
}
