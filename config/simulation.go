package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/h2grid/core/series"
)

// SimulationConfig controls the tick loop.
type SimulationConfig struct {
	// TickIntervalMS is the wall-clock pause between ticks; 0 runs flat out.
	TickIntervalMS int `json:"tick_interval_ms"`
	// TickMinutes is the simulated time covered by one tick and one dataset row.
	TickMinutes int `json:"tick_minutes"`
	// MaxTicks stops the run after that many ticks; 0 runs until canceled.
	MaxTicks uint64 `json:"max_ticks"`
}

// SetDefaults applies sane defaults.
func (c *SimulationConfig) SetDefaults() {
	if c.TickMinutes == 0 {
		c.TickMinutes = 60
	}
}

// Validate checks mandatory fields.
func (c SimulationConfig) Validate() error {
	if c.TickIntervalMS < 0 {
		return fmt.Errorf("tick_interval_ms must be >= 0, got %d", c.TickIntervalMS)
	}
	if c.TickMinutes <= 0 {
		return fmt.Errorf("tick_minutes must be positive, got %d", c.TickMinutes)
	}
	return nil
}

// Interval returns the wall-clock pause between ticks.
func (c SimulationConfig) Interval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// TickDuration returns the simulated duration of one tick.
func (c SimulationConfig) TickDuration() time.Duration {
	return time.Duration(c.TickMinutes) * time.Minute
}

// SeriesConfig locates the supply and demand datasets.
type SeriesConfig struct {
	SupplyPath   string `json:"supply_path"`
	DemandPath   string `json:"demand_path"`
	SupplyColumn string `json:"supply_column"`
	DemandColumn string `json:"demand_column"`
}

// SetDefaults applies the column names of the bundled datasets.
func (c *SeriesConfig) SetDefaults() {
	if c.SupplyColumn == "" {
		c.SupplyColumn = series.SupplyColumn
	}
	if c.DemandColumn == "" {
		c.DemandColumn = series.DemandColumn
	}
}

// Validate checks mandatory fields.
func (c SeriesConfig) Validate() error {
	if c.SupplyPath == "" || c.DemandPath == "" {
		return fmt.Errorf("supply_path and demand_path are required")
	}
	return nil
}
