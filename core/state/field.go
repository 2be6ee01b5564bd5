package state

import (
	"strings"

	"github.com/kilianp07/h2grid/core/simerr"
)

// Field identifies one physical variable of the electrolyzer state.
type Field int

const (
	Temperature Field = iota
	CurrentDensity
	LambdaAnode
	LambdaCathode
	MembraneThickness
	Position
	LambdaX
	MembraneResistance
	OhmicOverpotential
	ExchangeCurrentAnode
	ExchangeCurrentCathode
	ActivationAnode
	ActivationCathode
	CellVoltage
	ElectricPower
	WaterInflow
	HydrogenOutflow
	OxygenOutflow
	WaterOutflow

	numFields
)

var fieldNames = [numFields]string{
	Temperature:            "temperature",
	CurrentDensity:         "current_density",
	LambdaAnode:            "lambda_anode",
	LambdaCathode:          "lambda_cathode",
	MembraneThickness:      "membrane_thickness",
	Position:               "position",
	LambdaX:                "lambda_x",
	MembraneResistance:     "membrane_resistance",
	OhmicOverpotential:     "ohmic_overpotential",
	ExchangeCurrentAnode:   "exchange_current_anode",
	ExchangeCurrentCathode: "exchange_current_cathode",
	ActivationAnode:        "activation_anode",
	ActivationCathode:      "activation_cathode",
	CellVoltage:            "cell_voltage",
	ElectricPower:          "electric_power",
	WaterInflow:            "water_inflow",
	HydrogenOutflow:        "hydrogen_outflow",
	OxygenOutflow:          "oxygen_outflow",
	WaterOutflow:           "water_outflow",
}

// String returns the telemetry name of the field.
func (f Field) String() string {
	if f < 0 || f >= numFields {
		return "unknown"
	}
	return fieldNames[f]
}

// Derived reports whether the field is computed from other fields and can
// never be assigned directly.
func (f Field) Derived() bool { return f == LambdaX }

// Input reports whether the field is supplied by configuration or the
// controller rather than written by a physics module.
func (f Field) Input() bool {
	switch f {
	case Temperature, CurrentDensity, LambdaAnode, LambdaCathode, MembraneThickness, Position, WaterInflow:
		return true
	}
	return false
}

func (f Field) valid() bool { return f >= 0 && f < numFields }

// ParseField resolves a telemetry name such as "current_density".
func ParseField(name string) (Field, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, s := range fieldNames {
		if s == n {
			return Field(i), nil
		}
	}
	return 0, simerr.Invalidf("unknown state field %q", name)
}

// Fields lists every field in declaration order.
func Fields() []Field {
	out := make([]Field, numFields)
	for i := range out {
		out[i] = Field(i)
	}
	return out
}
