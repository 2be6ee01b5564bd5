package mqtt

import (
	"encoding/json"
	"time"

	"github.com/kilianp07/h2grid/core/factory"
	coremetrics "github.com/kilianp07/h2grid/core/metrics"
	coremqtt "github.com/kilianp07/h2grid/core/mqtt"
)

// Units of the quantities the electrolyzer sensors report.
var Units = map[string]string{
	"temperature":         "K",
	"electric_power":      "W",
	"current_density":     "A/m2",
	"cell_voltage":        "V",
	"hydrogen_outflow":    "mol/s",
	"oxygen_outflow":      "mol/s",
	"water_inflow":        "mol/s",
	"water_outflow":       "mol/s",
	"membrane_resistance": "ohm m2",
	"battery_soc":         "",
	"battery_stored_mwh":  "MWh",
}

// Reading is the JSON payload of one sensor message.
type Reading struct {
	RunID   string    `json:"run_id"`
	Tick    uint64    `json:"tick"`
	Sensor  string    `json:"sensor"`
	Value   float64   `json:"value"`
	Unit    string    `json:"unit,omitempty"`
	SimTime time.Time `json:"sim_time"`
	TS      time.Time `json:"ts"`
}

// SensorPublisher publishes selected tick values, one topic per sensor.
type SensorPublisher struct {
	pub     coremqtt.Publisher
	prefix  string
	sensors []string
	now     func() time.Time
}

// NewSensorPublisher returns a sink publishing sensors under prefix.
func NewSensorPublisher(pub coremqtt.Publisher, prefix string, sensors []string) *SensorPublisher {
	return &SensorPublisher{
		pub:     pub,
		prefix:  prefix,
		sensors: append([]string(nil), sensors...),
		now:     time.Now,
	}
}

// Topic returns the topic a sensor is published on.
func (s *SensorPublisher) Topic(sensor string) string {
	if s.prefix == "" {
		return sensor
	}
	return s.prefix + "/" + sensor
}

// RecordTick publishes every configured sensor present in rec. Sensors whose
// module was unavailable are skipped. The first publish error is returned
// after all sensors have been tried.
func (s *SensorPublisher) RecordTick(rec coremetrics.TickRecord) error {
	var first error
	ts := s.now()
	for _, name := range s.sensors {
		v, ok := rec.Values[name]
		if !ok {
			continue
		}
		payload, err := json.Marshal(Reading{
			RunID:   rec.RunID,
			Tick:    rec.Tick,
			Sensor:  name,
			Value:   v,
			Unit:    Units[name],
			SimTime: rec.Time,
			TS:      ts,
		})
		if err != nil {
			return err
		}
		if err := s.pub.Publish(s.Topic(name), payload); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close disconnects the underlying client when it supports it.
func (s *SensorPublisher) Close() error {
	if d, ok := s.pub.(interface{ Disconnect() }); ok {
		d.Disconnect()
	}
	return nil
}

func init() {
	_ = coremetrics.RegisterMetricsSink("mqtt", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		c.SetDefaults()
		cli, err := NewPahoClient(c)
		if err != nil {
			return nil, err
		}
		return NewSensorPublisher(cli, c.TopicPrefix, c.Sensors), nil
	})
}
