// Package state holds the electrolyzer's shared physical state.
//
// A State is owned by a single tick loop. Physics code never mutates it
// directly: modules read an immutable Snapshot and return a Delta which the
// owner applies. The hydration profile value lambda_x is derived from
// lambda_anode, lambda_cathode, membrane_thickness and position and is
// refreshed by every write that touches one of them.
package state

import (
	"fmt"
	"math"

	"github.com/kilianp07/h2grid/core/simerr"
)

type record struct {
	values [numFields]float64
	set    [numFields]bool
}

func (r *record) get(f Field) (float64, error) {
	if !f.valid() {
		return 0, simerr.Invalidf("unknown state field %d", int(f))
	}
	if !r.set[f] {
		return 0, fmt.Errorf("%s: %w", f, simerr.ErrUninitialized)
	}
	return r.values[f], nil
}

// derive recomputes lambda_x from its four inputs. Missing inputs leave it
// uninitialized rather than stale.
func (r *record) derive() {
	if !r.set[LambdaAnode] || !r.set[LambdaCathode] || !r.set[MembraneThickness] || !r.set[Position] {
		r.values[LambdaX], r.set[LambdaX] = 0, false
		return
	}
	la, lc := r.values[LambdaAnode], r.values[LambdaCathode]
	r.values[LambdaX] = HydrationAt(la, lc, r.values[MembraneThickness], r.values[Position])
	r.set[LambdaX] = true
}

// HydrationAt evaluates the linear membrane water-content profile
// λ(x) = ((λa − λc)/L)·x + λc.
func HydrationAt(lambdaA, lambdaC, thickness, x float64) float64 {
	return (lambdaA-lambdaC)/thickness*x + lambdaC
}

// State is the mutable electrolyzer record. The zero value has every field
// uninitialized.
type State struct {
	rec record
}

// New builds a State from initial field values.
func New(initial map[Field]float64) (*State, error) {
	s := &State{}
	if err := s.Apply(Delta(initial)); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the value of f or ErrUninitialized if it was never set.
func (s *State) Get(f Field) (float64, error) { return s.rec.get(f) }

// Has reports whether f holds a value.
func (s *State) Has(f Field) bool { return f.valid() && s.rec.set[f] }

// Set writes a single field and refreshes derived values.
func (s *State) Set(f Field, v float64) error {
	if err := check(f, v); err != nil {
		return err
	}
	s.rec.values[f], s.rec.set[f] = v, true
	s.rec.derive()
	return nil
}

// UpdateCurrentDensity sets J.
func (s *State) UpdateCurrentDensity(v float64) error { return s.Set(CurrentDensity, v) }

// UpdateLambdaAnode sets the anode-side hydration and refreshes lambda_x.
func (s *State) UpdateLambdaAnode(v float64) error { return s.Set(LambdaAnode, v) }

// UpdateLambdaCathode sets the cathode-side hydration and refreshes lambda_x.
func (s *State) UpdateLambdaCathode(v float64) error { return s.Set(LambdaCathode, v) }

// UpdateThickness sets the membrane thickness and refreshes lambda_x.
func (s *State) UpdateThickness(v float64) error { return s.Set(MembraneThickness, v) }

// UpdatePosition sets the through-membrane position and refreshes lambda_x.
func (s *State) UpdatePosition(v float64) error { return s.Set(Position, v) }

// Apply writes every entry of d, then derives once. Nothing is written if
// any entry is rejected.
func (s *State) Apply(d Delta) error {
	for f, v := range d {
		if err := check(f, v); err != nil {
			return err
		}
	}
	for f, v := range d {
		s.rec.values[f], s.rec.set[f] = v, true
	}
	s.rec.derive()
	return nil
}

// Clear marks the given fields uninitialized so stale values from an earlier
// tick cannot be read. Derived fields cannot be cleared directly.
func (s *State) Clear(fields ...Field) error {
	for _, f := range fields {
		if !f.valid() {
			return simerr.Invalidf("unknown state field %d", int(f))
		}
		if f.Derived() {
			return simerr.Invalidf("%s is derived and cannot be cleared", f)
		}
	}
	for _, f := range fields {
		s.rec.values[f], s.rec.set[f] = 0, false
	}
	s.rec.derive()
	return nil
}

// Snapshot returns an immutable copy of the current state.
func (s *State) Snapshot() Snapshot { return Snapshot{rec: s.rec} }

func check(f Field, v float64) error {
	if !f.valid() {
		return simerr.Invalidf("unknown state field %d", int(f))
	}
	if f.Derived() {
		return simerr.Invalidf("%s is derived and cannot be assigned", f)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return simerr.Invalidf("%s must be finite, got %v", f, v)
	}
	switch f {
	case MembraneThickness, Temperature, MembraneResistance:
		if v <= 0 {
			return simerr.Invalidf("%s must be positive, got %g", f, v)
		}
	}
	return nil
}

// Delta is a set of field writes returned by a physics module.
type Delta map[Field]float64

// Merge copies other into d, overwriting shared keys.
func (d Delta) Merge(other Delta) {
	for f, v := range other {
		d[f] = v
	}
}
