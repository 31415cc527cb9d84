package monitor

import (
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/journal"
)

// Fanout serializes document publication across every sink so the two
// loops never interleave output. Sink failures are logged, journaled, and
// counted; they never propagate.
type Fanout struct {
	mu     sync.Mutex
	sinks  []DocSink
	events EventSink
	errs   atomic.Uint64
}

// NewFanout wires sinks behind one mutex. events may be nil.
func NewFanout(events EventSink, sinks ...DocSink) *Fanout {
	if events == nil {
		events = nopEvents{}
	}
	return &Fanout{sinks: sinks, events: events}
}

// Publish delivers doc to every sink in registration order.
func (f *Fanout) Publish(kind DocKind, doc []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.sinks {
		if err := s.Publish(kind, doc); err != nil {
			f.errs.Add(1)
			log.Printf("monitor: %s sink: %v", kind, err)
			f.events.Event(journal.EventEmitError, -1, map[string]interface{}{
				"kind":  string(kind),
				"error": err.Error(),
			})
		}
	}
}

// Errors reports how many sink deliveries have failed since start.
func (f *Fanout) Errors() uint64 {
	return f.errs.Load()
}

// WriterSink prints each document as one line, the operator console output.
type WriterSink struct {
	w io.Writer
}

// NewWriterSink wraps w, typically os.Stdout.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Publish writes doc and a newline.
func (s *WriterSink) Publish(kind DocKind, doc []byte) error {
	if _, err := s.w.Write(doc); err != nil {
		return err
	}
	_, err := s.w.Write([]byte{'\n'})
	return err
}
