// Package api exposes the monitor over HTTP: the live state table, the
// aggregate status document, a server-sent-events stream of everything the
// console prints, and the Prometheus scrape endpoint.
//
// Every JSON endpoint answers in the unified Response envelope. /health
// and /metrics are open; the /api/v1 endpoints are gated by bearer-token
// scopes when auth is configured.
package api
