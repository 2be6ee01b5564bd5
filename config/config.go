package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/h2grid/core/energy"
	"github.com/kilianp07/h2grid/core/metrics"
	"github.com/kilianp07/h2grid/infra/mqtt"
)

// EnvPrefix prefixes environment overrides, e.g. H2_BATTERY__CAPACITY_MWH.
const EnvPrefix = "H2_"

type Config struct {
	Simulation SimulationConfig   `json:"simulation"`
	Generator  GeneratorConfig    `json:"generator"`
	Battery    energy.BatterySpec `json:"battery"`
	Series     SeriesConfig       `json:"series"`
	// MQTT is optional; an empty broker disables the sensor publisher.
	MQTT    mqtt.Config    `json:"mqtt"`
	Metrics metrics.Config `json:"metrics"`
	Logging LoggingConfig  `json:"logging"`
	Sentry  SentryConfig   `json:"sentry"`
}

// Default returns the configuration of the reference electrolyzer and
// battery. Loaded files are merged over it.
func Default() Config {
	return Config{
		Simulation: SimulationConfig{TickMinutes: 60},
		Generator: GeneratorConfig{
			InitialState: DefaultInitialState(),
			Physics:      DefaultPhysics(),
		},
		Battery: energy.BatterySpec{CapacityMWh: 4.32, MaxChargeMW: 1, MaxDischargeMW: 1},
		Series:  SeriesConfig{},
	}
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	prefix := strings.ToLower(EnvPrefix)
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), prefix)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills the settings left empty by the loaded file.
func (c *Config) SetDefaults() {
	c.Simulation.SetDefaults()
	c.Series.SetDefaults()
	c.Logging.SetDefaults()
	if c.MQTT.Broker != "" {
		c.MQTT.SetDefaults()
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Simulation.Validate(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}
	if err := c.Generator.Validate(); err != nil {
		return fmt.Errorf("generator: %w", err)
	}
	if _, err := energy.NewBattery(c.Battery, c.Simulation.TickDuration()); err != nil {
		return fmt.Errorf("battery: %w", err)
	}
	if err := c.Series.Validate(); err != nil {
		return fmt.Errorf("series: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
