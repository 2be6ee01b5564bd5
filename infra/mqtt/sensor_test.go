package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/h2grid/core/factory"
	coremetrics "github.com/kilianp07/h2grid/core/metrics"
)

func TestSensorPublisherTopicsAndPayload(t *testing.T) {
	mock := NewMockPublisher()
	sp := NewSensorPublisher(mock, "h2grid/pem", []string{"temperature", "cell_voltage", "hydrogen_outflow"})
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	sp.now = func() time.Time { return fixed }

	sim := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := coremetrics.TickRecord{
		RunID:       "run-1",
		Tick:        4,
		Time:        sim,
		Values:      map[string]float64{"temperature": 300, "hydrogen_outflow": 5.18e-5, "ohmic_overpotential": 0.1},
		Unavailable: []string{"electrochemical"},
	}
	require.NoError(t, sp.RecordTick(rec))

	assert.Equal(t, []string{"h2grid/pem/temperature", "h2grid/pem/hydrogen_outflow"}, mock.Topics())

	var r Reading
	require.NoError(t, json.Unmarshal(mock.Messages[0].Payload, &r))
	assert.Equal(t, "run-1", r.RunID)
	assert.Equal(t, uint64(4), r.Tick)
	assert.Equal(t, "temperature", r.Sensor)
	assert.Equal(t, 300.0, r.Value)
	assert.Equal(t, "K", r.Unit)
	assert.True(t, r.SimTime.Equal(sim))
	assert.True(t, r.TS.Equal(fixed))
}

func TestSensorPublisherContinuesAfterFailure(t *testing.T) {
	mock := NewMockPublisher()
	mock.FailTopics["p/temperature"] = true
	sp := NewSensorPublisher(mock, "p", []string{"temperature", "cell_voltage"})

	err := sp.RecordTick(coremetrics.TickRecord{Values: map[string]float64{"temperature": 300, "cell_voltage": 1.75}})
	assert.Error(t, err)
	assert.Equal(t, []string{"p/cell_voltage"}, mock.Topics())
}

func TestSensorPublisherTopicWithoutPrefix(t *testing.T) {
	sp := NewSensorPublisher(NewMockPublisher(), "", nil)
	assert.Equal(t, "temperature", sp.Topic("temperature"))
}

func TestMQTTSinkRegistered(t *testing.T) {
	mc := &mockClient{}
	withMockClient(t, mc)
	sink, err := coremetrics.NewMetricsSink([]factory.ModuleConfig{{
		Type: "mqtt",
		Conf: map[string]any{"broker": "tcp://localhost:1883", "topic_prefix": "site"},
	}})
	require.NoError(t, err)
	sp, ok := sink.(*SensorPublisher)
	require.True(t, ok, "got %T", sink)
	assert.Equal(t, "site/cell_voltage", sp.Topic("cell_voltage"))
	assert.Len(t, sp.sensors, len(DefaultSensors))
}
