// Package infra holds the adapters behind the core interfaces: the zerolog
// logger, the Prometheus, InfluxDB and MQTT metrics sinks, and the Sentry
// monitor. These packages depend only on the interfaces defined in core.
package infra
