package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/kilianp07/h2grid/core/metrics"
)

func newTestPromSink(t *testing.T, reg prometheus.Registerer) *PromSink {
	t.Helper()
	sinkIf, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sink, ok := sinkIf.(*PromSink)
	if !ok {
		t.Fatalf("expected PromSink")
	}
	return sink
}

func TestPromSink_RecordTick(t *testing.T) {
	sink := newTestPromSink(t, prometheus.NewRegistry())
	rec := coremetrics.TickRecord{
		Tick:         0,
		Values:       map[string]float64{"cell_voltage": 1.75, "temperature": 300},
		BatteryState: "DISCHARGING",
		Unavailable:  []string{"efficiency"},
	}
	if err := sink.RecordTick(rec); err != nil {
		t.Fatalf("record: %v", err)
	}

	expected := `
# HELP h2grid_value Latest value of each named simulation quantity
# TYPE h2grid_value gauge
h2grid_value{name="cell_voltage"} 1.75
h2grid_value{name="temperature"} 300
`
	if err := testutil.CollectAndCompare(sink.values, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected values: %v", err)
	}
	if v := testutil.ToFloat64(sink.battery.WithLabelValues("DISCHARGING")); v != 1 {
		t.Errorf("discharging gauge = %v", v)
	}
	if v := testutil.ToFloat64(sink.battery.WithLabelValues("IDLE")); v != 0 {
		t.Errorf("idle gauge = %v", v)
	}
	if v := testutil.ToFloat64(sink.failures.WithLabelValues("efficiency")); v != 1 {
		t.Errorf("failure counter = %v", v)
	}
	if v := testutil.ToFloat64(sink.ticks); v != 1 {
		t.Errorf("ticks = %v", v)
	}
}

func TestPromSink_DropsStaleValues(t *testing.T) {
	sink := newTestPromSink(t, prometheus.NewRegistry())
	_ = sink.RecordTick(coremetrics.TickRecord{Values: map[string]float64{"cell_voltage": 1.75, "electric_power": 17.5}})
	_ = sink.RecordTick(coremetrics.TickRecord{Values: map[string]float64{"electric_power": 18}})

	if c := testutil.CollectAndCount(sink.values); c != 1 {
		t.Fatalf("expected 1 series, got %d", c)
	}
	if v := testutil.ToFloat64(sink.values.WithLabelValues("electric_power")); v != 18 {
		t.Errorf("electric_power = %v", v)
	}
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := newTestPromSink(t, reg)
	second := newTestPromSink(t, reg)
	_ = first.RecordTick(coremetrics.TickRecord{})
	_ = second.RecordTick(coremetrics.TickRecord{})
	if v := testutil.ToFloat64(first.ticks); v != 2 {
		t.Errorf("ticks = %v, want shared counter", v)
	}
}
