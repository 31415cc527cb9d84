// Package esc defines the southbound decoder contract for vendor ESC
// telemetry channels.
//
// A Decoder hides the vendor wire protocol and hands the collector one
// Frame per poll. Implementations normalize their failures to the package
// sentinels so the collector can tell "nothing fresh" from "channel dead"
// without vendor knowledge.
package esc
