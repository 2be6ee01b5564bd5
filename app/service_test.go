package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/h2grid/config"
	"github.com/kilianp07/h2grid/core/factory"
	coremetrics "github.com/kilianp07/h2grid/core/metrics"
	"github.com/kilianp07/h2grid/infra/mqtt"
	"github.com/kilianp07/h2grid/internal/eventbus"
)

func writeSeries(t *testing.T, dir, name, column string, mj ...string) string {
	t.Helper()
	data := "Datetime," + column + "\n"
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, v := range mj {
		data += start.Add(time.Duration(i)*time.Hour).Format("2006-01-02 15:04:05") + "," + v + "\n"
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Series.SupplyPath = writeSeries(t, dir, "supply.csv", "Energy Supplied (MJ)", "7200", "0", "3600")
	cfg.Series.DemandPath = writeSeries(t, dir, "demand.csv", "Energy Demand (MJ)", "3600", "3600", "3600")
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "nop"}}
	cfg.Metrics.PrometheusPort = ""
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return &cfg
}

func TestServiceRunsMaxTicks(t *testing.T) {
	bus := eventbus.NewTyped[coremetrics.TickRecord]()
	sub := bus.SubscribeBuffered(16)
	svc, err := New(testConfig(t), WithMaxTicks(4), WithBus(bus))
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()

	require.NoError(t, svc.Run(context.Background()))

	totals := svc.Summary.Totals()
	assert.Equal(t, uint64(4), totals.Ticks)
	assert.Zero(t, totals.DegradedTicks)
	// supply wraps: 2 + 0 + 1 + 2 MWh
	assert.InDelta(t, 5.0, totals.SuppliedMWh, 1e-9)
	assert.InDelta(t, 4.0, totals.DemandedMWh, 1e-9)
	assert.Greater(t, totals.HydrogenMol, 0.0)
	assert.Len(t, sub, 4)
}

func TestServiceWithoutSinks(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "missing"}}
	_, err := New(cfg)
	assert.Error(t, err)

	svc, err := New(cfg, WithoutSinks(), WithMaxTicks(1))
	require.NoError(t, err)
	require.NoError(t, svc.Run(context.Background()))
	assert.Equal(t, uint64(1), svc.Summary.Totals().Ticks)
	assert.NoError(t, svc.Close())
}

func TestServiceMissingSeries(t *testing.T) {
	cfg := testConfig(t)
	cfg.Series.SupplyPath = filepath.Join(t.TempDir(), "nope.csv")
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestServiceStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Simulation.TickIntervalMS = 5
	svc, err := New(cfg, WithoutSinks())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, svc.Run(ctx))
	assert.Greater(t, svc.Summary.Totals().Ticks, uint64(0))
}

type closingSink struct {
	coremetrics.NopSink
	closed *int
}

func (c closingSink) Close() error {
	*c.closed++
	return nil
}

var closedSinks int

func init() {
	_ = coremetrics.RegisterMetricsSink("app-closing", func(map[string]any) (coremetrics.MetricsSink, error) {
		return closingSink{closed: &closedSinks}, nil
	})
}

func TestServiceClosesSinksWhenMQTTFails(t *testing.T) {
	closedSinks = 0
	cfg := testConfig(t)
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "app-closing"}}
	// TLS without certificates fails before any connection attempt
	cfg.MQTT = mqtt.Config{Broker: "tcp://127.0.0.1:1883", UseTLS: true}
	cfg.MQTT.SetDefaults()

	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mqtt client")
	assert.Equal(t, 1, closedSinks)
}
