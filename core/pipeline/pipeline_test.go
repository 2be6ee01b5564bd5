package pipeline

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremon "github.com/kilianp07/h2grid/core/monitoring"
	"github.com/kilianp07/h2grid/core/physics"
	"github.com/kilianp07/h2grid/core/simerr"
	"github.com/kilianp07/h2grid/core/state"
)

func params() physics.Params {
	return physics.Params{
		Constants: physics.Constants{Faraday: 96500, GasConstant: 8.314},
		Activation: physics.ActivationParams{
			Anode:    physics.ElectrodeKinetics{ReferenceCurrent: 0.1, ActivationEnergy: 80000},
			Cathode:  physics.ElectrodeKinetics{ReferenceCurrent: 0.1, ActivationEnergy: 80000},
			Transfer: 0.5,
			Electron: 2,
		},
		Ohmic:           physics.OhmicParams{Subintervals: 1000},
		Electrochemical: physics.ElectrochemicalParams{ReversibleVoltage: 1.23, Area: 1},
		HeatExergy:      physics.HeatExergyParams{EntropyChange: 10, AmbientTemperature: 300},
		Exergy:          physics.ExergyParams{Chemical: 100, Physical: 50, Entropy: 1, ReferenceEntropy: 0.8},
		Efficiency: physics.EfficiencyParams{
			LowerHeatingValue: 120, HeatPEM: 10, HeatWater: 10,
			HydrogenExergy: 10, ElectricExergy: 10, HeatExergyPEM: 10, HeatExergyWater: 10,
		},
		HeatExchanger: physics.HeatExchangerParams{
			Effectiveness: 0.8, MaxDuty: 100, OutletEnthalpy: 3000, InletEnthalpy: 2000,
			AmbientTemperature: 300, SourceTemperature: 400,
		},
	}
}

func initialState(t *testing.T) *state.State {
	t.Helper()
	st, err := state.New(state.Delta{
		state.Temperature:       300,
		state.CurrentDensity:    10,
		state.LambdaAnode:       20,
		state.LambdaCathode:     10,
		state.MembraneThickness: 0.01,
		state.Position:          0.001,
		state.WaterInflow:       20,
	})
	require.NoError(t, err)
	return st
}

func standard(t *testing.T, st *state.State) *Pipeline {
	t.Helper()
	stages, err := physics.Stages(params(), physics.StandardLayout)
	require.NoError(t, err)
	p, err := New(st, stages)
	require.NoError(t, err)
	return p
}

type fakeModule struct {
	name     string
	requires []string
	err      error
	panics   bool
	delta    state.Delta
	writes   []state.Field
}

func (f fakeModule) Name() string       { return f.name }
func (f fakeModule) Requires() []string { return f.requires }
func (f fakeModule) Writes() []state.Field {
	out := append([]state.Field(nil), f.writes...)
	for fld := range f.delta {
		out = append(out, fld)
	}
	return out
}
func (f fakeModule) Compute(state.Snapshot) (physics.Output, error) {
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return physics.Output{}, f.err
	}
	return physics.Output{Values: map[string]float64{f.name: 1}, Delta: f.delta}, nil
}

type recordMonitor struct {
	errs []error
	tags []map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}
func (r *recordMonitor) Recover()            {}
func (r *recordMonitor) Flush(time.Duration) {}

func TestEndToEndTick(t *testing.T) {
	st := initialState(t)
	p := standard(t, st)
	if _, ok := p.LastTick(); ok {
		t.Fatal("pipeline should start idle")
	}
	res := p.Step(0)
	require.Empty(t, res.Unavailable)

	for _, name := range []string{"membrane_resistance", "ohmic_overpotential", "cell_voltage", "electric_power"} {
		v, ok := res.Values[name]
		require.True(t, ok, name)
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), name)
		assert.Greater(t, v, 0.0, name)
	}
	assert.InDelta(t, 10/(2*96500.0), res.Values["hydrogen_outflow"], 1e-18)
	assert.InDelta(t, 300.0, res.Values["temperature"], 0)
	assert.InDelta(t, 11.0, res.Values["lambda_x"], 1e-12)

	v, err := st.Get(state.CellVoltage)
	require.NoError(t, err)
	assert.Equal(t, res.Values["cell_voltage"], v)
	assert.InDelta(t, 10*v, res.Values["electric_power"], 1e-12)

	tick, ok := p.LastTick()
	assert.True(t, ok)
	assert.Equal(t, uint64(0), tick)
}

func TestHeatExergyUsesSameTickOverpotentials(t *testing.T) {
	st := initialState(t)
	p := standard(t, st)
	p.Step(0)
	require.NoError(t, st.UpdateCurrentDensity(20))
	res := p.Step(1)
	require.Empty(t, res.Unavailable)
	sum := res.Values["activation_anode"] + res.Values["activation_cathode"] + res.Values["ohmic_overpotential"]
	assert.InEpsilon(t, 2*96500*sum, res.Values["entropy_generation"], 1e-12)
	assert.InDelta(t, 20*res.Values["membrane_resistance"], res.Values["ohmic_overpotential"], 1e-15)
}

func TestPartialFailureSkipsDependents(t *testing.T) {
	mon := &recordMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})

	prm := params()
	broken := fakeModule{name: physics.NameActivation, err: simerr.Domainf("sigma")}
	stages := [][]physics.Module{
		{broken},
		{physics.Ohmic{P: prm.Ohmic}},
		{physics.Electrochemical{P: prm.Electrochemical}},
		{physics.FlowRates{C: prm.Constants}, physics.Efficiency{C: prm.Constants, P: prm.Efficiency}},
	}
	p, err := New(initialState(t), stages)
	require.NoError(t, err)

	res := p.Step(3)
	assert.False(t, res.Available(physics.NameActivation))
	assert.False(t, res.Available(physics.NameElectrochemical))
	assert.False(t, res.Available(physics.NameEfficiency))
	assert.True(t, res.Available(physics.NameOhmic))
	assert.True(t, res.Available(physics.NameFlowRates))

	assert.ErrorIs(t, res.Unavailable[physics.NameActivation], simerr.ErrDomain)
	assert.ErrorIs(t, res.Unavailable[physics.NameElectrochemical], simerr.ErrUpstream)
	var me *simerr.ModuleError
	require.True(t, errors.As(res.Unavailable[physics.NameEfficiency], &me))
	assert.Equal(t, uint64(3), me.Tick)

	_, ok := res.Values["cell_voltage"]
	assert.False(t, ok)
	assert.Contains(t, res.Values, "membrane_resistance")
	assert.Contains(t, res.Values, "hydrogen_outflow")

	require.Len(t, mon.errs, 3)
	assert.Equal(t, physics.NameActivation, mon.tags[0]["module"])
	assert.Equal(t, "3", mon.tags[0]["tick"])
}

func TestPanicIsRecovered(t *testing.T) {
	stages := [][]physics.Module{{fakeModule{name: "boom", panics: true}, fakeModule{name: "ok"}}}
	p, err := New(initialState(t), stages)
	require.NoError(t, err)
	res := p.Step(0)
	require.Contains(t, res.Unavailable, "boom")
	assert.Contains(t, res.Unavailable["boom"].Error(), "panic")
	assert.Equal(t, 1.0, res.Values["ok"])
}

func TestRejectedDeltaMarksModuleUnavailable(t *testing.T) {
	bad := fakeModule{name: "bad", delta: state.Delta{state.LambdaX: 3}}
	p, err := New(initialState(t), [][]physics.Module{{bad}})
	require.NoError(t, err)
	res := p.Step(0)
	require.ErrorIs(t, res.Unavailable["bad"], simerr.ErrInvalidArgument)
	_, ok := res.Values["bad"]
	assert.False(t, ok)
}

func TestStagesSeeSnapshotOfPreviousStage(t *testing.T) {
	writer := fakeModule{name: "writer", delta: state.Delta{state.CellVoltage: 2}}
	prm := params()
	stages := [][]physics.Module{
		{writer, physics.Efficiency{C: prm.Constants, P: prm.Efficiency}},
	}
	_, err := New(initialState(t), stages)
	require.ErrorIs(t, err, simerr.ErrInvalidArgument)

	st := initialState(t)
	p, err := New(st, [][]physics.Module{{writer}, {fakeModule{name: "reader", requires: []string{"writer"}}}})
	require.NoError(t, err)
	res := p.Step(0)
	require.Empty(t, res.Unavailable)
	v, _ := st.Get(state.CellVoltage)
	assert.Equal(t, 2.0, v)
}

func TestNewValidation(t *testing.T) {
	_, err := New(nil, nil)
	require.ErrorIs(t, err, simerr.ErrInvalidArgument)
	dup := [][]physics.Module{{fakeModule{name: "a"}}, {fakeModule{name: "a"}}}
	_, err = New(initialState(t), dup)
	require.ErrorIs(t, err, simerr.ErrInvalidArgument)
}

func TestUninitializedInputFailsOnlyAffectedModules(t *testing.T) {
	st, err := state.New(state.Delta{state.Temperature: 300, state.CurrentDensity: 10})
	require.NoError(t, err)
	p := standard(t, st)
	res := p.Step(0)
	assert.ErrorIs(t, res.Unavailable[physics.NameOhmic], simerr.ErrUninitialized)
	assert.ErrorIs(t, res.Unavailable[physics.NameFlowRates], simerr.ErrUninitialized)
	assert.True(t, res.Available(physics.NameActivation))
	assert.True(t, res.Available(physics.NameExergy))
	assert.True(t, res.Available(physics.NameHeatExchanger))
}

func TestFailedModuleInvalidatesItsFields(t *testing.T) {
	st := initialState(t)
	p := standard(t, st)
	require.Empty(t, p.Step(0).Unavailable)
	_, err := st.Get(state.CellVoltage)
	require.NoError(t, err)

	// σ turns negative near the cathode, so ohmic and everything after it fail
	require.NoError(t, st.UpdateLambdaCathode(0.1))
	res := p.Step(1)
	assert.ErrorIs(t, res.Unavailable[physics.NameOhmic], simerr.ErrDomain)
	assert.ErrorIs(t, res.Unavailable[physics.NameElectrochemical], simerr.ErrUpstream)

	for _, f := range []state.Field{
		state.MembraneResistance, state.OhmicOverpotential, state.CellVoltage, state.ElectricPower,
	} {
		_, err := st.Get(f)
		assert.ErrorIs(t, err, simerr.ErrUninitialized, f.String())
	}
	assert.True(t, st.Has(state.ActivationAnode))
	assert.True(t, st.Has(state.HydrogenOutflow))
	assert.Contains(t, res.Values, "hydrogen_outflow")

	// recovering the input restores the chain on the next tick
	require.NoError(t, st.UpdateLambdaCathode(10))
	require.Empty(t, p.Step(2).Unavailable)
	assert.True(t, st.Has(state.CellVoltage))
}

func TestWaterShortageKeepsProductFlows(t *testing.T) {
	st := initialState(t)
	require.NoError(t, st.Set(state.WaterInflow, 1e-6))
	res := standard(t, st).Step(0)
	assert.True(t, res.Available(physics.NameFlowRates))
	assert.InDelta(t, 10/(2*96500.0), res.Values["hydrogen_outflow"], 1e-18)
	assert.InDelta(t, 10/(4*96500.0), res.Values["oxygen_outflow"], 1e-18)
	assert.Less(t, res.Values["water_outflow"], 0.0)
}

func TestOhmicRunsWithoutPosition(t *testing.T) {
	st, err := state.New(state.Delta{
		state.Temperature:       300,
		state.CurrentDensity:    10,
		state.LambdaAnode:       20,
		state.LambdaCathode:     10,
		state.MembraneThickness: 0.01,
		state.WaterInflow:       20,
	})
	require.NoError(t, err)
	res := standard(t, st).Step(0)
	require.Empty(t, res.Unavailable)
	assert.Contains(t, res.Values, "cell_voltage")
	assert.NotContains(t, res.Values, "lambda_x")
}
