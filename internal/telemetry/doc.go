// Package telemetry defines the motor telemetry data model shared by the
// collector and the monitor.
//
// It holds the per-motor sample, the CSV wire record exchanged over the
// serial link, and the JSON documents published to operators. The wire codec
// is strict on parse and allocation-free on serialize so the collector can
// re-render every cached record once per cycle.
package telemetry
