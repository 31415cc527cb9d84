package monitor

import (
	"time"

	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/health"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/telemetry"
)

// DocKind tags published documents for sinks that route by type.
type DocKind string

const (
	// DocStatusLine is a per-motor status line, one per motor per poll.
	DocStatusLine DocKind = "status"

	// DocSnapshot is the aggregate snapshot document.
	DocSnapshot DocKind = "snapshot"

	// DocLinkError replaces the snapshot while the collector link is down.
	DocLinkError DocKind = "link_error"
)

// DocSink receives rendered JSON documents. Implementations must not
// retain doc past the call.
type DocSink interface {
	Publish(kind DocKind, doc []byte) error
}

// EventSink records operational events. The journal implements this.
type EventSink interface {
	Event(kind string, motor int, detail map[string]interface{})
}

// StatsSink observes loop activity. The metrics set implements this.
type StatsSink interface {
	Pulse()
	LinkFailure()
	RecordParsed()
	RecordMalformed()
	LinkState(up bool)
	MotorSample(s telemetry.MotorSample)
	MotorStatus(motor int, st health.Status)
	StatusTransition(motor int, to health.Status)
}

// TransitionSink persists classification results. The recorder implements
// this; errors are journaled by the monitor and never stop a loop.
type TransitionSink interface {
	StatusChanged(tr Transition) error
	SnapshotTaken(at time.Time, rows []MotorHealthState) error
}

type nopEvents struct{}

func (nopEvents) Event(string, int, map[string]interface{}) {}

type nopStats struct{}

func (nopStats) Pulse()                              {}
func (nopStats) LinkFailure()                        {}
func (nopStats) RecordParsed()                       {}
func (nopStats) RecordMalformed()                    {}
func (nopStats) LinkState(bool)                      {}
func (nopStats) MotorSample(telemetry.MotorSample)   {}
func (nopStats) MotorStatus(int, health.Status)      {}
func (nopStats) StatusTransition(int, health.Status) {}

type nopTransitions struct{}

func (nopTransitions) StatusChanged(Transition) error { return nil }
func (nopTransitions) SnapshotTaken(time.Time, []MotorHealthState) error {
	return nil
}
