// Package metrics defines the telemetry sink of the simulator. Each tick the
// controller hands a TickRecord to a MetricsSink; sinks such as the
// Prometheus, InfluxDB and MQTT implementations live in infra and register
// themselves by type name so NewMetricsSink can build them from
// configuration. Several configured sinks are combined in a MultiSink.
package metrics
