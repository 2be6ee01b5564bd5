package config

import (
	"fmt"

	"github.com/kilianp07/h2grid/core/physics"
	"github.com/kilianp07/h2grid/core/state"
)

// GeneratorConfig describes the electrolyzer: its starting operating point
// and the parameters of every physics module.
type GeneratorConfig struct {
	// InitialState maps field names such as "temperature" to values.
	InitialState map[string]float64 `json:"initial_state"`
	Physics      physics.Params     `json:"physics"`
}

// DefaultInitialState is the reference operating point.
func DefaultInitialState() map[string]float64 {
	return map[string]float64{
		state.Temperature.String():       300,
		state.CurrentDensity.String():    10,
		state.WaterInflow.String():       20,
		state.LambdaAnode.String():       20,
		state.LambdaCathode.String():     10,
		state.MembraneThickness.String(): 0.01,
		state.Position.String():          0.001,
	}
}

// DefaultPhysics returns the reference parameter set.
func DefaultPhysics() physics.Params {
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

// Fields converts InitialState to typed fields.
func (c GeneratorConfig) Fields() (map[state.Field]float64, error) {
	out := make(map[state.Field]float64, len(c.InitialState))
	for name, v := range c.InitialState {
		f, err := state.ParseField(name)
		if err != nil {
			return nil, err
		}
		out[f] = v
	}
	return out, nil
}

// NewState builds the shared state at the configured operating point.
func (c GeneratorConfig) NewState() (*state.State, error) {
	fields, err := c.Fields()
	if err != nil {
		return nil, err
	}
	return state.New(fields)
}

// Validate checks that the initial state is accepted and the physics
// parameters can be evaluated.
func (c GeneratorConfig) Validate() error {
	if _, err := c.NewState(); err != nil {
		return fmt.Errorf("initial_state: %w", err)
	}
	if err := c.Physics.Validate(); err != nil {
		return fmt.Errorf("physics: %w", err)
	}
	return nil
}
