package monitor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/health"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/telemetry"
)

// ErrMotorIndex reports a record whose motor index does not fit the table.
var ErrMotorIndex = errors.New("MOTOR_INDEX")

// MotorHealthState is one row of the state table.
type MotorHealthState struct {
	Sample   telemetry.MotorSample `json:"sample"`
	LastSeen time.Time             `json:"lastSeen"`
	Status   health.Status         `json:"status"`
	Seen     bool                  `json:"seen"`
}

// Transition records one status change found by a classification pass.
type Transition struct {
	Motor int
	From  health.Status
	To    health.Status
	Rules []string
	At    time.Time
}

// Table is the monitor's motor state. The poll loop is the only writer;
// the snapshot loop, the HTTP API, the metrics updater, and the recorder
// read concurrently.
type Table struct {
	mu      sync.RWMutex
	rows    []MotorHealthState
	history [][]health.RPMPoint
	histCap int
}

// NewTable sizes a table for motors rows. histCap bounds each motor's RPM
// history ring; zero disables history tracking entirely.
func NewTable(motors, histCap int) *Table {
	t := &Table{
		rows:    make([]MotorHealthState, motors),
		histCap: histCap,
	}
	for i := range t.rows {
		t.rows[i] = MotorHealthState{
			Sample: telemetry.MotorSample{MotorIndex: i},
			Status: health.StatusUnknown,
		}
	}
	if histCap > 0 {
		t.history = make([][]health.RPMPoint, motors)
	}
	return t
}

// Len reports the motor count.
func (t *Table) Len() int {
	return len(t.rows)
}

// Accept stores a freshly parsed sample and stamps its arrival time.
func (t *Table) Accept(s telemetry.MotorSample, at time.Time) error {
	if s.MotorIndex < 0 || s.MotorIndex >= len(t.rows) {
		return fmt.Errorf("%w: %d of %d motors", ErrMotorIndex, s.MotorIndex, len(t.rows))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	row := &t.rows[s.MotorIndex]
	row.Sample = s
	row.LastSeen = at
	row.Seen = true

	// Only fresh readings belong in the RPM history; a re-served cached
	// sample would make a healthy motor look pinned.
	if t.histCap > 0 && s.Updated {
		h := append(t.history[s.MotorIndex], health.RPMPoint{At: at, RPM: s.RPM})
		if len(h) > t.histCap {
			h = h[len(h)-t.histCap:]
		}
		t.history[s.MotorIndex] = h
	}
	return nil
}

// ClassifyAll reruns the rule engine over every motor and returns the
// transitions that occurred, in motor order.
func (t *Table) ClassifyAll(e *health.Engine, now time.Time) []Transition {
	t.mu.Lock()
	defer t.mu.Unlock()

	var transitions []Transition
	for i := range t.rows {
		row := &t.rows[i]
		in := health.Input{
			Sample:   row.Sample,
			Seen:     row.Seen,
			LastSeen: row.LastSeen,
			Now:      now,
		}
		if t.histCap > 0 {
			in.History = t.history[i]
		}

		status, rules := e.Classify(in)
		if status != row.Status {
			transitions = append(transitions, Transition{
				Motor: i,
				From:  row.Status,
				To:    status,
				Rules: rules,
				At:    now,
			})
			row.Status = status
		}
	}
	return transitions
}

// Statuses returns every motor's current status, in motor order.
func (t *Table) Statuses() []health.Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	statuses := make([]health.Status, len(t.rows))
	for i, row := range t.rows {
		statuses[i] = row.Status
	}
	return statuses
}

// Rows returns a copy of every row, in motor order.
func (t *Table) Rows() []MotorHealthState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rows := make([]MotorHealthState, len(t.rows))
	copy(rows, t.rows)
	return rows
}

// Motor returns one row by 0-based index.
func (t *Table) Motor(i int) (MotorHealthState, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if i < 0 || i >= len(t.rows) {
		return MotorHealthState{}, fmt.Errorf("%w: %d of %d motors", ErrMotorIndex, i, len(t.rows))
	}
	return t.rows[i], nil
}

// BuildSnapshot assembles the aggregate document from the current rows.
func (t *Table) BuildSnapshot() telemetry.Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := telemetry.NewSnapshot(len(t.rows))
	for i, row := range t.rows {
		snap.MotorStatusList[i] = row.Status.String()
		snap.ThrottleInPercentList[i] = row.Sample.ThrottleIn
		snap.ThrottleOutPercentList[i] = row.Sample.ThrottleOut
		snap.MotorRPMList[i] = row.Sample.RPM
		snap.VoltageList[i] = row.Sample.BusVoltage
		snap.TotalCurrentList[i] = row.Sample.BusCurrent
		snap.PhaseCurrentList[i] = row.Sample.PhaseCurrent
		snap.MosfetTempList[i] = row.Sample.MosfetTemp
	}
	return snap
}
