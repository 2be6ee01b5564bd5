package scenarios

import (
	"context"
	"math"
	"sort"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/h2grid/config"
	"github.com/kilianp07/h2grid/core/energy"
	"github.com/kilianp07/h2grid/core/grid"
	coremetrics "github.com/kilianp07/h2grid/core/metrics"
	"github.com/kilianp07/h2grid/core/physics"
	"github.com/kilianp07/h2grid/core/pipeline"
	"github.com/kilianp07/h2grid/infra/logger"
	"github.com/kilianp07/h2grid/infra/metrics"
)

func RunScenario(t *testing.T, sc *Scenario) {
	reg := prometheus.NewRegistry()
	prom, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}

	gen := config.Default().Generator
	for k, v := range sc.InitialState {
		gen.InitialState[k] = v
	}
	st, err := gen.NewState()
	if err != nil {
		t.Fatalf("initial state: %v", err)
	}
	stages, err := physics.Stages(gen.Physics, physics.StandardLayout)
	if err != nil {
		t.Fatalf("stages: %v", err)
	}
	pipe, err := pipeline.New(st, stages, pipeline.WithLogger(logger.NopLogger{}))
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}

	spec := config.Default().Battery
	if sc.Battery != nil {
		spec = sc.Battery.ToSpec()
	}
	bat, err := energy.NewBattery(spec, sc.TickDuration())
	if err != nil {
		t.Fatalf("battery: %v", err)
	}
	bal, err := energy.NewBalancer(sc.series("supply", sc.SupplyMJ), sc.series("demand", sc.DemandMJ), bat)
	if err != nil {
		t.Fatalf("balancer: %v", err)
	}

	summary := grid.NewSummary(sc.TickDuration())
	ctrl, err := grid.New(bal, pipe,
		grid.WithSink(coremetrics.NewMultiSink(prom, summary)),
		grid.WithRunID(sc.Name),
		grid.WithTickDuration(sc.TickDuration()),
	)
	if err != nil {
		t.Fatalf("controller: %v", err)
	}

	var last coremetrics.TickRecord
	var states []string
	for tick := uint64(0); tick < sc.Ticks; tick++ {
		last, err = ctrl.Step(context.Background(), tick)
		if err != nil {
			t.Fatalf("tick %d: %v", tick, err)
		}
		states = append(states, last.BatteryState)
		if !sameModules(last.Unavailable, sc.Expected.Unavailable) {
			t.Errorf("tick %d unavailable %v, expected %v", tick, last.Unavailable, sc.Expected.Unavailable)
		}
	}
	checkExpected(t, sc, last, states, summary.Totals())

	if c, err := testutil.GatherAndCount(reg, "h2grid_module_failures_total"); err != nil {
		t.Errorf("gather: %v", err)
	} else if c != len(sc.Expected.Unavailable) {
		t.Errorf("expected %d failure series, got %d", len(sc.Expected.Unavailable), c)
	}
}

func checkExpected(t *testing.T, sc *Scenario, last coremetrics.TickRecord, states []string, totals grid.Totals) {
	t.Helper()
	exp := sc.Expected
	if len(exp.BatteryStates) > 0 {
		if len(exp.BatteryStates) != len(states) {
			t.Errorf("expected %d battery states, got %d", len(exp.BatteryStates), len(states))
		} else {
			for i := range states {
				if states[i] != exp.BatteryStates[i] {
					t.Errorf("tick %d battery %s, expected %s", i, states[i], exp.BatteryStates[i])
				}
			}
		}
	}
	for name, want := range exp.Values {
		got, ok := last.Values[name]
		if !ok {
			t.Errorf("value %s missing on last tick", name)
			continue
		}
		if !within(got, want) {
			t.Errorf("value %s = %g, expected %g ± %g", name, got, want.Value, want.Tolerance)
		}
	}
	for _, name := range exp.Absent {
		if _, ok := last.Values[name]; ok {
			t.Errorf("value %s present, expected absent", name)
		}
	}
	if exp.FinalSoC != nil && (totals.FinalSoC < exp.FinalSoC.Min || totals.FinalSoC > exp.FinalSoC.Max) {
		t.Errorf("final soc %g outside [%g, %g]", totals.FinalSoC, exp.FinalSoC.Min, exp.FinalSoC.Max)
	}
	if exp.UnservedMWh != nil && !within(totals.UnservedMWh, *exp.UnservedMWh) {
		t.Errorf("unserved %g MWh, expected %g", totals.UnservedMWh, exp.UnservedMWh.Value)
	}
	if exp.SpilledMWh != nil && !within(totals.SpilledMWh, *exp.SpilledMWh) {
		t.Errorf("spilled %g MWh, expected %g", totals.SpilledMWh, exp.SpilledMWh.Value)
	}
}

func within(got float64, want Approx) bool {
	tol := want.Tolerance
	if tol == 0 {
		tol = 1e-9
	}
	return math.Abs(got-want.Value) <= tol
}

func sameModules(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	w := append([]string(nil), want...)
	sort.Strings(w)
	for i := range got {
		if got[i] != w[i] {
			return false
		}
	}
	return true
}
