package physics

import "github.com/kilianp07/h2grid/core/simerr"

// Constants holds the physical constants shared by every module.
type Constants struct {
	Faraday     float64 `json:"faraday"`      // C/mol
	GasConstant float64 `json:"gas_constant"` // J/(mol·K)
}

// ElectrodeKinetics describes the Arrhenius dependence of one electrode's
// exchange current density.
type ElectrodeKinetics struct {
	ReferenceCurrent float64 `json:"reference_current"` // J_ref, A/m²
	ActivationEnergy float64 `json:"activation_energy"` // E_act, J/mol
}

// ActivationParams configures the activation overpotential module.
type ActivationParams struct {
	Anode    ElectrodeKinetics `json:"anode"`
	Cathode  ElectrodeKinetics `json:"cathode"`
	Transfer float64           `json:"transfer_coefficient"` // α
	Electron float64           `json:"electrons"`            // z
}

// OhmicParams configures the membrane resistance integration.
type OhmicParams struct {
	Subintervals int `json:"subintervals"`
}

// ElectrochemicalParams configures cell voltage and power.
type ElectrochemicalParams struct {
	ReversibleVoltage float64 `json:"reversible_voltage"` // V0, V
	Area              float64 `json:"area"`               // m²
}

// HeatExergyParams configures the cell heat balance.
type HeatExergyParams struct {
	EntropyChange      float64 `json:"entropy_change"`      // ΔS
	AmbientTemperature float64 `json:"ambient_temperature"` // T0, K
}

// ExergyParams configures the stream exergy balance.
type ExergyParams struct {
	Chemical         float64 `json:"chemical"`
	Physical         float64 `json:"physical"`
	Entropy          float64 `json:"entropy"`
	ReferenceEntropy float64 `json:"reference_entropy"`
}

// EfficiencyParams holds the auxiliary heat and exergy terms of the
// efficiency ratios.
type EfficiencyParams struct {
	LowerHeatingValue float64 `json:"lower_heating_value"`
	HeatPEM           float64 `json:"heat_pem"`
	HeatWater         float64 `json:"heat_water"`
	HydrogenExergy    float64 `json:"hydrogen_exergy"`
	ElectricExergy    float64 `json:"electric_exergy"`
	HeatExergyPEM     float64 `json:"heat_exergy_pem"`
	HeatExergyWater   float64 `json:"heat_exergy_water"`
}

// HeatExchangerParams configures the feed-water heat exchanger.
type HeatExchangerParams struct {
	Effectiveness      float64 `json:"effectiveness"`
	MaxDuty            float64 `json:"max_duty"`
	OutletEnthalpy     float64 `json:"outlet_enthalpy"` // H_T
	InletEnthalpy      float64 `json:"inlet_enthalpy"`  // H_T0
	AmbientTemperature float64 `json:"ambient_temperature"`
	SourceTemperature  float64 `json:"source_temperature"`
}

// Params bundles every module's parameters. It is built once at startup and
// never mutated.
type Params struct {
	Constants       Constants             `json:"constants"`
	Activation      ActivationParams      `json:"activation"`
	Ohmic           OhmicParams           `json:"ohmic"`
	Electrochemical ElectrochemicalParams `json:"electrochemical"`
	HeatExergy      HeatExergyParams      `json:"heat_exergy"`
	Exergy          ExergyParams          `json:"exergy"`
	Efficiency      EfficiencyParams      `json:"efficiency"`
	HeatExchanger   HeatExchangerParams   `json:"heat_exchanger"`
}

// Validate rejects parameter sets the modules cannot evaluate.
func (p Params) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"constants.faraday", p.Constants.Faraday},
		{"constants.gas_constant", p.Constants.GasConstant},
		{"activation.anode.reference_current", p.Activation.Anode.ReferenceCurrent},
		{"activation.cathode.reference_current", p.Activation.Cathode.ReferenceCurrent},
		{"activation.electrons", p.Activation.Electron},
		{"electrochemical.area", p.Electrochemical.Area},
		{"heat_exergy.ambient_temperature", p.HeatExergy.AmbientTemperature},
		{"heat_exchanger.ambient_temperature", p.HeatExchanger.AmbientTemperature},
		{"heat_exchanger.source_temperature", p.HeatExchanger.SourceTemperature},
	}
	for _, c := range positive {
		if c.v <= 0 {
			return simerr.Invalidf("%s must be positive, got %g", c.name, c.v)
		}
	}
	if p.Activation.Transfer <= 0 || p.Activation.Transfer >= 1 {
		return simerr.Invalidf("activation.transfer_coefficient must be in (0,1), got %g", p.Activation.Transfer)
	}
	if p.Ohmic.Subintervals < 1 {
		return simerr.Invalidf("ohmic.subintervals must be >= 1, got %d", p.Ohmic.Subintervals)
	}
	if p.HeatExchanger.Effectiveness < 0 || p.HeatExchanger.Effectiveness > 1 {
		return simerr.Invalidf("heat_exchanger.effectiveness must be in [0,1], got %g", p.HeatExchanger.Effectiveness)
	}
	return nil
}
