// Package metrics defines the sinks that record solution checks. Sinks such
// as the Prometheus, InfluxDB and MQTT implementations in infra/metrics are
// registered by type name and built from configuration; NewMetricsSink
// returns a MultiSink when several are configured.
package metrics
