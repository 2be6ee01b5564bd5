package physics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"github.com/kilianp07/h2grid/core/simerr"
	"github.com/kilianp07/h2grid/core/state"
)

// Conductivity returns the Springer membrane conductivity in S/m:
// σ = (0.5139·λ − 0.326)·exp(1268·(1/303 − 1/T)).
func Conductivity(lambda, temperature float64) (float64, error) {
	if temperature <= 0 {
		return 0, simerr.Invalidf("temperature must be positive, got %g", temperature)
	}
	sigma := (0.5139*lambda - 0.326) * math.Exp(1268*(1.0/303-1/temperature))
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return 0, simerr.Domainf("conductivity %g at lambda %g", sigma, lambda)
	}
	return sigma, nil
}

// MembraneResistance integrates 1/σ(λ(x)) over [0, L] with the trapezoidal
// rule on n equal subintervals. The result is an area-specific resistance in
// Ω·m².
func MembraneResistance(lambdaA, lambdaC, thickness, temperature float64, n int) (float64, error) {
	if n < 1 {
		return 0, simerr.Invalidf("subintervals must be >= 1, got %d", n)
	}
	if thickness <= 0 {
		return 0, simerr.Invalidf("membrane thickness must be positive, got %g", thickness)
	}
	xs := floats.Span(make([]float64, n+1), 0, thickness)
	inv := make([]float64, len(xs))
	for i, x := range xs {
		sigma, err := Conductivity(state.HydrationAt(lambdaA, lambdaC, thickness, x), temperature)
		if err != nil {
			return 0, err
		}
		inv[i] = 1 / sigma
	}
	r := integrate.Trapezoidal(xs, inv)
	if !(r > 0) || math.IsInf(r, 0) {
		return 0, simerr.Domainf("membrane resistance %g", r)
	}
	return r, nil
}

// OhmicOverpotential returns η_ohm = J·R_mem.
func OhmicOverpotential(j, resistance float64) (float64, error) {
	if resistance <= 0 {
		return 0, simerr.Invalidf("membrane resistance must be positive, got %g", resistance)
	}
	return j * resistance, nil
}

// Ohmic computes the membrane resistance and the ohmic overpotential.
type Ohmic struct {
	P OhmicParams
}

func (Ohmic) Name() string       { return NameOhmic }
func (Ohmic) Requires() []string { return nil }
func (Ohmic) Writes() []state.Field {
	return []state.Field{state.MembraneResistance, state.OhmicOverpotential}
}

func (o Ohmic) Compute(snap state.Snapshot) (Output, error) {
	r := snap.Reader()
	la := r.Get(state.LambdaAnode)
	lc := r.Get(state.LambdaCathode)
	l := r.Get(state.MembraneThickness)
	t := r.Get(state.Temperature)
	j := r.Get(state.CurrentDensity)
	if err := r.Err(); err != nil {
		return Output{}, err
	}
	res, err := MembraneResistance(la, lc, l, t, o.P.Subintervals)
	if err != nil {
		return Output{}, err
	}
	eta, err := OhmicOverpotential(j, res)
	if err != nil {
		return Output{}, err
	}
	out := newOutput()
	out.set(state.MembraneResistance, res)
	out.set(state.OhmicOverpotential, eta)
	if lx, err := snap.Get(state.LambdaX); err == nil {
		out.Values[state.LambdaX.String()] = lx
	}
	return out, nil
}

// Update recomputes R_mem and η_ohm from s and writes both back in one step.
func (o Ohmic) Update(s *state.State) error {
	out, err := o.Compute(s.Snapshot())
	if err != nil {
		return err
	}
	return s.Apply(out.Delta)
}
