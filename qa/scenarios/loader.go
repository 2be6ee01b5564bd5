package scenarios

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/h2grid/core/energy"
	"github.com/kilianp07/h2grid/core/series"
)

// Approx is an expected value with an absolute tolerance.
type Approx struct {
	Value     float64 `yaml:"value"`
	Tolerance float64 `yaml:"tolerance"`
}

// Range bounds an expected value.
type Range struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// BatteryDef mirrors energy.BatterySpec with yaml keys.
type BatteryDef struct {
	CapacityMWh    float64 `yaml:"capacity_mwh"`
	MaxChargeMW    float64 `yaml:"max_charge_mw"`
	MaxDischargeMW float64 `yaml:"max_discharge_mw"`
	InitialMWh     float64 `yaml:"initial_mwh"`
}

func (b BatteryDef) ToSpec() energy.BatterySpec {
	return energy.BatterySpec{
		CapacityMWh:    b.CapacityMWh,
		MaxChargeMW:    b.MaxChargeMW,
		MaxDischargeMW: b.MaxDischargeMW,
		InitialMWh:     b.InitialMWh,
	}
}

type Expected struct {
	// BatteryStates lists the battery state after each tick.
	BatteryStates []string `yaml:"battery_states"`
	// Unavailable lists the modules expected to fail on every tick.
	Unavailable []string `yaml:"unavailable"`
	// Values are checked on the last tick.
	Values map[string]Approx `yaml:"values"`
	// Absent names values that must be missing on the last tick.
	Absent      []string `yaml:"absent"`
	FinalSoC    *Range   `yaml:"final_soc,omitempty"`
	UnservedMWh *Approx  `yaml:"unserved_mwh,omitempty"`
	SpilledMWh  *Approx  `yaml:"spilled_mwh,omitempty"`
}

type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Ticks       uint64 `yaml:"ticks"`
	TickMinutes int    `yaml:"tick_minutes,omitempty"`
	// InitialState overrides fields of the reference operating point.
	InitialState map[string]float64 `yaml:"initial_state,omitempty"`
	Battery      *BatteryDef        `yaml:"battery,omitempty"`
	SupplyMJ     []float64          `yaml:"supply_mj"`
	DemandMJ     []float64          `yaml:"demand_mj"`
	Expected     Expected           `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Ticks == 0 {
		return nil, fmt.Errorf("%s: ticks must be positive", path)
	}
	return &sc, nil
}

// TickDuration returns the simulated length of one tick, one hour by default.
func (sc *Scenario) TickDuration() time.Duration {
	if sc.TickMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(sc.TickMinutes) * time.Minute
}

var scenarioStart = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

func (sc *Scenario) series(name string, mj []float64) *series.Series {
	step := sc.TickDuration()
	samples := make([]series.Sample, len(mj))
	for i, v := range mj {
		samples[i] = series.Sample{Time: scenarioStart.Add(time.Duration(i) * step), EnergyMJ: v}
	}
	return series.New(name, samples)
}
