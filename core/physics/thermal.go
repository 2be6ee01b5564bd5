package physics

import (
	"github.com/kilianp07/h2grid/core/simerr"
	"github.com/kilianp07/h2grid/core/state"
)

// EntropyGeneration returns σ_gen = 2F·(η_a + η_c + η_ohm).
func EntropyGeneration(c Constants, etaAnode, etaCathode, etaOhm float64) float64 {
	return 2 * c.Faraday * (etaAnode + etaCathode + etaOhm)
}

// CellHeat returns Q_heat = J/(2F)·(T·ΔS − σ_gen).
func CellHeat(c Constants, j, temperature, deltaS, sigmaGen float64) float64 {
	return j / (2 * c.Faraday) * (temperature*deltaS - sigmaGen)
}

// CarnotFactor returns 1 − T0/T.
func CarnotFactor(ambient, temperature float64) (float64, error) {
	if temperature <= 0 {
		return 0, simerr.Domainf("carnot factor at temperature %g", temperature)
	}
	return 1 - ambient/temperature, nil
}

// HeatExergy evaluates the entropy generated in the cell and the resulting
// heat and heat exergy flows.
type HeatExergy struct {
	C Constants
	P HeatExergyParams
}

func (HeatExergy) Name() string { return NameHeatExergy }

func (HeatExergy) Requires() []string { return []string{NameActivation, NameOhmic} }

func (HeatExergy) Writes() []state.Field { return nil }

func (h HeatExergy) Compute(snap state.Snapshot) (Output, error) {
	r := snap.Reader()
	t := r.Get(state.Temperature)
	j := r.Get(state.CurrentDensity)
	ea := r.Get(state.ActivationAnode)
	ec := r.Get(state.ActivationCathode)
	eo := r.Get(state.OhmicOverpotential)
	if err := r.Err(); err != nil {
		return Output{}, err
	}
	sigma := EntropyGeneration(h.C, ea, ec, eo)
	q := CellHeat(h.C, j, t, h.P.EntropyChange, sigma)
	carnot, err := CarnotFactor(h.P.AmbientTemperature, t)
	if err != nil {
		return Output{}, err
	}
	out := newOutput()
	out.Values["entropy_generation"] = sigma
	out.Values["heat_pem"] = q
	out.Values["heat_exergy_pem"] = q * carnot
	return out, nil
}

// StreamExergy returns E_total = E_chem + E_phy·T·(S − S0).
func StreamExergy(p ExergyParams, temperature float64) float64 {
	return p.Chemical + p.Physical*temperature*(p.Entropy-p.ReferenceEntropy)
}

// Exergy evaluates the total exergy of the product stream.
type Exergy struct {
	P ExergyParams
}

func (Exergy) Name() string          { return NameExergy }
func (Exergy) Requires() []string    { return nil }
func (Exergy) Writes() []state.Field { return nil }

func (e Exergy) Compute(snap state.Snapshot) (Output, error) {
	t, err := snap.Get(state.Temperature)
	if err != nil {
		return Output{}, err
	}
	out := newOutput()
	out.Values["exergy_total"] = StreamExergy(e.P, t)
	return out, nil
}

// ExchangerDuty returns Q = ε·Q_max.
func ExchangerDuty(p HeatExchangerParams) float64 {
	return p.Effectiveness * p.MaxDuty
}

// FeedWaterHeat returns Q_th = J/(2F)·(H_T − H_T0), the heat needed to bring
// the consumed feed water to operating temperature.
func FeedWaterHeat(c Constants, p HeatExchangerParams, j float64) float64 {
	return j / (2 * c.Faraday) * (p.OutletEnthalpy - p.InletEnthalpy)
}

// HeatExchanger evaluates the feed-water heat exchanger.
type HeatExchanger struct {
	C Constants
	P HeatExchangerParams
}

func (HeatExchanger) Name() string         { return NameHeatExchanger }
func (HeatExchanger) Requires() []string   { return nil }
func (HeatExchanger) Writes() []state.Field { return nil }

func (h HeatExchanger) Compute(snap state.Snapshot) (Output, error) {
	j, err := snap.Get(state.CurrentDensity)
	if err != nil {
		return Output{}, err
	}
	carnot, err := CarnotFactor(h.P.AmbientTemperature, h.P.SourceTemperature)
	if err != nil {
		return Output{}, err
	}
	qth := FeedWaterHeat(h.C, h.P, j)
	out := newOutput()
	out.Values["heat_exchanger_duty"] = ExchangerDuty(h.P)
	out.Values["heat_water"] = qth
	out.Values["heat_exergy_water"] = qth * carnot
	return out, nil
}
