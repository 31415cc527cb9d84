// Package journal records monitor events as NDJSON, one object per line,
// through a size-rotated file. The text log stays human oriented; anything
// an operator replays after an incident goes here.
package journal

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/telemetry"
)

// Event kinds written by the monitor.
const (
	EventRecordMalformed = "record_malformed"
	EventStatusChange    = "status_change"
	EventLinkLost        = "link_lost"
	EventLinkRestored    = "link_restored"
	EventSnapshotError   = "snapshot_error"
	EventEmitError       = "emit_error"
	EventRecorderError   = "recorder_error"
)

// Entry is one journal line.
type Entry struct {
	Timestamp time.Time              `json:"ts"`
	Kind      string                 `json:"kind"`
	Motor     string                 `json:"motor,omitempty"`
	Detail    map[string]interface{} `json:"detail,omitempty"`
}

// Logger appends entries to its writer. Write failures are reported on
// stderr and swallowed; the journal must never stall the poll loop.
type Logger struct {
	mu  sync.Mutex
	out io.WriteCloser
}

// New opens a journal at path, rotating at maxSizeMB and keeping maxBackups
// rotated files.
func New(path string, maxSizeMB, maxBackups int) *Logger {
	return &Logger{
		out: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
		},
	}
}

// NewWriter wraps an arbitrary writer. Tests use this.
func NewWriter(w io.WriteCloser) *Logger {
	return &Logger{out: w}
}

// Event writes one entry. motor is the 0-based index, or a negative value
// for events that concern no single motor.
func (l *Logger) Event(kind string, motor int, detail map[string]interface{}) {
	entry := Entry{
		Timestamp: time.Now().UTC(),
		Kind:      kind,
		Detail:    detail,
	}
	if motor >= 0 {
		entry.Motor = telemetry.MotorLabel(motor)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "journal: marshal %s entry: %v\n", kind, err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.out.Write(append(data, '\n')); err != nil {
		fmt.Fprintf(os.Stderr, "journal: write %s entry: %v\n", kind, err)
	}
}

// Close flushes and closes the underlying writer.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Close()
}
