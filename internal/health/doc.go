// Package health classifies motors from their telemetry history.
//
// Classification is rule based: every registered rule is an independent
// down criterion, and a motor is down as soon as any one of them fires.
// Rules only judge fresh samples; a sample the collector marked stale is
// left to the staleness rule alone. Motors that have never reported get
// the unknown sentinel rather than a guess.
package health
