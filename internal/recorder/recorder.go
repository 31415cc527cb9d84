// Package recorder persists status transitions and periodic snapshots to
// Postgres for post-flight analysis. It hangs off the monitor as a
// transition sink; insert failures are reported back and journaled there,
// never escalated.
package recorder

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/monitor"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/telemetry"
)

const createTransitionsSQL = `CREATE TABLE IF NOT EXISTS motor_status_transitions (
	id BIGSERIAL PRIMARY KEY,
	at TIMESTAMPTZ NOT NULL,
	motor TEXT NOT NULL,
	from_status TEXT NOT NULL,
	to_status TEXT NOT NULL,
	rules TEXT NOT NULL
)`

const createSnapshotsSQL = `CREATE TABLE IF NOT EXISTS motor_snapshots (
	id BIGSERIAL PRIMARY KEY,
	at TIMESTAMPTZ NOT NULL,
	motor TEXT NOT NULL,
	status TEXT NOT NULL,
	throttle_in DOUBLE PRECISION NOT NULL,
	throttle_out DOUBLE PRECISION NOT NULL,
	rpm DOUBLE PRECISION NOT NULL,
	voltage DOUBLE PRECISION NOT NULL,
	total_current DOUBLE PRECISION NOT NULL,
	phase_current DOUBLE PRECISION NOT NULL,
	mosfet_temp DOUBLE PRECISION NOT NULL
)`

const insertTransitionSQL = `INSERT INTO motor_status_transitions (at, motor, from_status, to_status, rules) VALUES ($1,$2,$3,$4,$5)`

// Recorder writes monitor output to Postgres.
type Recorder struct {
	db *sql.DB
}

var _ monitor.TransitionSink = (*Recorder)(nil)

// Open connects to dsn via the pgx stdlib driver and ensures the schema
// exists. The caller closes the recorder on shutdown.
func Open(dsn string) (*Recorder, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r := New(db)
	if err := r.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

// New wraps an existing handle without touching the schema.
func New(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// Close releases the database handle.
func (r *Recorder) Close() error {
	return r.db.Close()
}

func (r *Recorder) ensureSchema() error {
	for _, ddl := range []string{createTransitionsSQL, createSnapshotsSQL} {
		if _, err := r.db.Exec(ddl); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// StatusChanged stores one classification transition.
func (r *Recorder) StatusChanged(tr monitor.Transition) error {
	_, err := r.db.Exec(insertTransitionSQL,
		tr.At,
		telemetry.MotorLabel(tr.Motor),
		tr.From.String(),
		tr.To.String(),
		strings.Join(tr.Rules, ","),
	)
	if err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}
	return nil
}

// SnapshotTaken stores one row per motor in a single multi-row insert.
func (r *Recorder) SnapshotTaken(at time.Time, rows []monitor.MotorHealthState) error {
	if len(rows) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString("INSERT INTO motor_snapshots (at, motor, status, throttle_in, throttle_out, rpm, voltage, total_current, phase_current, mosfet_temp) VALUES ")

	args := make([]any, 0, len(rows)*10)
	for i, row := range rows {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d,$%d)",
			len(args)+1, len(args)+2, len(args)+3, len(args)+4, len(args)+5,
			len(args)+6, len(args)+7, len(args)+8, len(args)+9, len(args)+10))

		args = append(args,
			at,
			telemetry.MotorLabel(i),
			row.Status.String(),
			row.Sample.ThrottleIn,
			row.Sample.ThrottleOut,
			row.Sample.RPM,
			row.Sample.BusVoltage,
			row.Sample.BusCurrent,
			row.Sample.PhaseCurrent,
			row.Sample.MosfetTemp,
		)
	}

	if _, err := r.db.Exec(b.String(), args...); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}
