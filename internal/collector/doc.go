// Package collector implements the device-side telemetry loop.
//
// The collector polls every ESC channel once per cycle, caches the freshest
// sample per motor, and serves exactly one cached record per request
// trigger, rotating channels round-robin. It mirrors the firmware loop, so
// the whole cycle runs on a single goroutine: poll, re-render every record,
// then service at most one trigger. A burst of trigger bytes collapses to
// one service.
package collector
