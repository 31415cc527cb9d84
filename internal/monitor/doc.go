// Package monitor implements the companion-side health monitor.
//
// The monitor runs two loops against one state table: a fast poll loop that
// pulses the collector link, parses the record that comes back, and
// reclassifies every motor; and a slower snapshot loop that assembles the
// aggregate document, or the link-failure document when the collector has
// gone quiet. The table takes the write lock on the poll path only; the
// snapshot loop, the HTTP API, and the recorder all read.
package monitor
