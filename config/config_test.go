package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/h2grid/core/simerr"
	"github.com/kilianp07/h2grid/core/state"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, "config.yaml", `simulation:
  tick_interval_ms: 250
  max_ticks: 48
generator:
  initial_state:
    current_density: 12
  physics:
    ohmic:
      subintervals: 200
battery:
  capacity_mwh: 8
series:
  supply_path: "supply.csv"
  demand_path: "demand.csv"
mqtt:
  broker: "tcp://localhost:1883"
  topic_prefix: "site/pem"
metrics:
  prometheus_port: ":9100"
  sinks:
    - type: "nop"
logging:
  level: "debug"
  file: "logs/h2grid.log"
  max_backups: 5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"interval", cfg.Simulation.Interval(), 250 * time.Millisecond},
		{"tick_duration", cfg.Simulation.TickDuration(), time.Hour},
		{"max_ticks", cfg.Simulation.MaxTicks, uint64(48)},
		{"current_density", cfg.Generator.InitialState["current_density"], 12.0},
		{"temperature default", cfg.Generator.InitialState["temperature"], 300.0},
		{"subintervals", cfg.Generator.Physics.Ohmic.Subintervals, 200},
		{"faraday default", cfg.Generator.Physics.Constants.Faraday, 96500.0},
		{"capacity", cfg.Battery.CapacityMWh, 8.0},
		{"charge rate default", cfg.Battery.MaxChargeMW, 1.0},
		{"supply column", cfg.Series.SupplyColumn, "Energy Supplied (MJ)"},
		{"demand column", cfg.Series.DemandColumn, "Energy Demand (MJ)"},
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"topic_prefix", cfg.MQTT.TopicPrefix, "site/pem"},
		{"mqtt retries default", cfg.MQTT.MaxRetries, 3},
		{"prometheus_port", cfg.Metrics.PrometheusPort, ":9100"},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"level", cfg.Logging.Level, "debug"},
		{"log file", cfg.Logging.File, "logs/h2grid.log"},
		{"log backups", cfg.Logging.MaxBackups, 5},
		{"log size default", cfg.Logging.MaxSizeMB, 10},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: got %v want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"series": {"supply_path": "s.csv", "demand_path": "d.csv"}}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 4.32, cfg.Battery.CapacityMWh)
	assert.Empty(t, cfg.MQTT.Sensors, "mqtt defaults only apply when a broker is set")
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.yaml", `series:
  supply_path: "s.csv"
  demand_path: "d.csv"
`)
	t.Setenv("H2_BATTERY__CAPACITY_MWH", "10")
	t.Setenv("H2_SIMULATION__MAX_TICKS", "5")
	t.Setenv("H2_LOGGING__LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10.0, cfg.Battery.CapacityMWh)
	assert.Equal(t, uint64(5), cfg.Simulation.MaxTicks)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoadErrors(t *testing.T) {
	base := "series:\n  supply_path: s.csv\n  demand_path: d.csv\n"
	tests := []struct {
		name string
		data string
	}{
		{"missing series", "logging:\n  level: info\n"},
		{"bad level", base + "logging:\n  level: loud\n"},
		{"negative rotation", base + "logging:\n  file: a.log\n  max_age_days: -1\n"},
		{"zero capacity", base + "battery:\n  capacity_mwh: -1\n"},
		{"bad thickness", base + "generator:\n  initial_state:\n    membrane_thickness: 0\n"},
		{"unknown field", base + "generator:\n  initial_state:\n    pressure: 3\n"},
		{"derived field", base + "generator:\n  initial_state:\n    lambda_x: 3\n"},
		{"subintervals", base + "generator:\n  physics:\n    ohmic:\n      subintervals: -2\n"},
		{"negative interval", base + "simulation:\n  tick_interval_ms: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "config.yaml", tt.data))
			assert.Error(t, err)
		})
	}

	_, err := Load(writeConfig(t, "config.toml", ""))
	assert.Error(t, err)
}

func TestGeneratorNewState(t *testing.T) {
	g := GeneratorConfig{InitialState: DefaultInitialState()}
	st, err := g.NewState()
	require.NoError(t, err)
	lx, err := st.Get(state.LambdaX)
	require.NoError(t, err)
	assert.InDelta(t, 11.0, lx, 1e-9)

	g.InitialState["bogus"] = 1
	_, err = g.NewState()
	assert.True(t, errors.Is(err, simerr.ErrInvalidArgument))
}

func TestDefaultPhysicsValid(t *testing.T) {
	assert.NoError(t, DefaultPhysics().Validate())
}
