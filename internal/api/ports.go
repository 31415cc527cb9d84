package api

import (
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/health"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/monitor"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/telemetry"
)

// TablePort is the read surface the HTTP server needs from the motor state
// table. The monitor's table satisfies it.
type TablePort interface {
	Len() int
	Statuses() []health.Status
	Rows() []monitor.MotorHealthState
	Motor(i int) (monitor.MotorHealthState, error)
	BuildSnapshot() telemetry.Snapshot
}

var _ TablePort = (*monitor.Table)(nil)
