// Package physics implements the PEM electrolyzer sub-models.
//
// Every physical quantity is exposed as a plain function. Modules wrap those
// functions: they read a state.Snapshot, never mutate it, and return the
// scalars they computed together with the state fields to fold back.
package physics

import (
	"sort"

	"github.com/kilianp07/h2grid/core/simerr"
	"github.com/kilianp07/h2grid/core/state"
)

// Module names.
const (
	NameActivation      = "activation"
	NameOhmic           = "ohmic"
	NameElectrochemical = "electrochemical"
	NameHeatExergy      = "heat_exergy"
	NameExergy          = "exergy"
	NameFlowRates       = "flow_rates"
	NameEfficiency      = "efficiency"
	NameHeatExchanger   = "heat_exchanger"
)

// Module is a stateless calculator evaluated once per tick.
type Module interface {
	Name() string
	// Requires lists the modules whose state writes this module reads.
	Requires() []string
	// Writes lists the state fields the module's delta may contain.
	Writes() []state.Field
	Compute(snap state.Snapshot) (Output, error)
}

// Output is the result of one module evaluation.
type Output struct {
	// Values are named telemetry scalars.
	Values map[string]float64
	// Delta holds the state fields to write back.
	Delta state.Delta
}

func newOutput() Output {
	return Output{Values: map[string]float64{}, Delta: state.Delta{}}
}

// set records a state field both in the delta and in the telemetry values.
func (o Output) set(f state.Field, v float64) {
	o.Delta[f] = v
	o.Values[f.String()] = v
}

var allocators = map[string]func(Params) Module{
	NameActivation:      func(p Params) Module { return Activation{C: p.Constants, P: p.Activation} },
	NameOhmic:           func(p Params) Module { return Ohmic{P: p.Ohmic} },
	NameElectrochemical: func(p Params) Module { return Electrochemical{P: p.Electrochemical} },
	NameHeatExergy:      func(p Params) Module { return HeatExergy{C: p.Constants, P: p.HeatExergy} },
	NameExergy:          func(p Params) Module { return Exergy{P: p.Exergy} },
	NameFlowRates:       func(p Params) Module { return FlowRates{C: p.Constants} },
	NameEfficiency:      func(p Params) Module { return Efficiency{C: p.Constants, P: p.Efficiency} },
	NameHeatExchanger:   func(p Params) Module { return HeatExchanger{C: p.Constants, P: p.HeatExchanger} },
}

// New returns the module registered under name.
func New(name string, p Params) (Module, error) {
	alloc, ok := allocators[name]
	if !ok {
		return nil, simerr.Invalidf("physics module %q is not available", name)
	}
	return alloc(p), nil
}

// Available lists the registered module names in lexical order.
func Available() []string {
	out := make([]string, 0, len(allocators))
	for n := range allocators {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// StandardLayout is the fixed evaluation order of the electrolyzer model.
// Modules within a stage read the same snapshot.
var StandardLayout = [][]string{
	{NameActivation},
	{NameOhmic},
	{NameElectrochemical},
	{NameHeatExergy, NameExergy, NameFlowRates, NameEfficiency, NameHeatExchanger},
}

// Stages builds modules for the given layout after validating p.
func Stages(p Params, layout [][]string) ([][]Module, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	stages := make([][]Module, len(layout))
	for i, names := range layout {
		stages[i] = make([]Module, 0, len(names))
		for _, n := range names {
			m, err := New(n, p)
			if err != nil {
				return nil, err
			}
			stages[i] = append(stages[i], m)
		}
	}
	return stages, nil
}
