package monitor

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/health"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/journal"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/telemetry"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/transport"
)

// Defaults applied by New when an Options field is zero.
const (
	DefaultPollInterval     = 100 * time.Millisecond
	DefaultSnapshotInterval = 500 * time.Millisecond
	DefaultReadTimeout      = 2 * time.Second
	DefaultCommTimeout      = 5 * time.Second
	DefaultTrigger          = '0'
)

// Options wires a Monitor.
type Options struct {
	// Link is the open collector link. The caller keeps ownership and
	// closes it on shutdown.
	Link transport.Conn

	// Table and Engine hold the motor state and the classification rules.
	Table  *Table
	Engine *health.Engine

	PollInterval     time.Duration
	SnapshotInterval time.Duration
	ReadTimeout      time.Duration
	CommTimeout      time.Duration
	Trigger          byte

	// Docs receive every published document. Events, Stats, and
	// Transitions may be nil; no-ops fill in.
	Docs        []DocSink
	Events      EventSink
	Stats       StatsSink
	Transitions TransitionSink
}

// Monitor drives the poll and snapshot loops.
type Monitor struct {
	link   transport.Conn
	rd     *bufio.Reader
	table  *Table
	engine *health.Engine

	pollInterval     time.Duration
	snapshotInterval time.Duration
	readTimeout      time.Duration
	commTimeout      time.Duration
	trigger          byte

	docs        *Fanout
	events      EventSink
	stats       StatsSink
	transitions TransitionSink

	// Link liveness, shared between the two loops.
	mu          sync.Mutex
	lastContact time.Time
	linkUp      bool
}

// New validates opts and builds a monitor. The link starts presumed alive:
// the comm timeout is measured from construction, so a dead collector is
// reported only after a full window, never at boot.
func New(opts Options) (*Monitor, error) {
	if opts.Link == nil {
		return nil, errors.New("monitor: link is required")
	}
	if opts.Table == nil {
		return nil, errors.New("monitor: table is required")
	}
	if opts.Engine == nil {
		return nil, errors.New("monitor: engine is required")
	}

	m := &Monitor{
		link:             opts.Link,
		rd:               bufio.NewReader(opts.Link),
		table:            opts.Table,
		engine:           opts.Engine,
		pollInterval:     opts.PollInterval,
		snapshotInterval: opts.SnapshotInterval,
		readTimeout:      opts.ReadTimeout,
		commTimeout:      opts.CommTimeout,
		trigger:          opts.Trigger,
		events:           opts.Events,
		stats:            opts.Stats,
		transitions:      opts.Transitions,
		lastContact:      time.Now(),
		linkUp:           true,
	}
	if m.pollInterval <= 0 {
		m.pollInterval = DefaultPollInterval
	}
	if m.snapshotInterval <= 0 {
		m.snapshotInterval = DefaultSnapshotInterval
	}
	if m.readTimeout <= 0 {
		m.readTimeout = DefaultReadTimeout
	}
	if m.commTimeout <= 0 {
		m.commTimeout = DefaultCommTimeout
	}
	if m.trigger == 0 {
		m.trigger = DefaultTrigger
	}
	if m.events == nil {
		m.events = nopEvents{}
	}
	if m.stats == nil {
		m.stats = nopStats{}
	}
	if m.transitions == nil {
		m.transitions = nopTransitions{}
	}
	m.docs = NewFanout(m.events, opts.Docs...)
	return m, nil
}

// Run drives both loops until ctx is canceled.
func (m *Monitor) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		tick := time.NewTicker(m.pollInterval)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				m.pollTick(time.Now())
			}
		}
	}()

	go func() {
		defer wg.Done()
		tick := time.NewTicker(m.snapshotInterval)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				m.snapshotTick(time.Now())
			}
		}
	}()

	wg.Wait()
	return ctx.Err()
}

// pollTick runs one poll cycle: pulse the link, fold the answer into the
// table, reclassify every motor, and publish one status line per motor.
// Classification runs even when the link is quiet; staleness has to keep
// advancing for silent motors.
func (m *Monitor) pollTick(now time.Time) {
	line, err := m.exchange()
	if err != nil {
		m.stats.LinkFailure()
	} else {
		m.acceptLine(line, now)
	}

	for _, tr := range m.table.ClassifyAll(m.engine, now) {
		m.events.Event(journal.EventStatusChange, tr.Motor, map[string]interface{}{
			"from":  tr.From.String(),
			"to":    tr.To.String(),
			"rules": tr.Rules,
		})
		m.stats.StatusTransition(tr.Motor, tr.To)
		if err := m.transitions.StatusChanged(tr); err != nil {
			m.events.Event(journal.EventRecorderError, tr.Motor, map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	for i, st := range m.table.Statuses() {
		m.stats.MotorStatus(i, st)
		doc, err := json.Marshal(telemetry.StatusLine{
			Motor:  telemetry.MotorLabel(i),
			Status: st.String(),
		})
		if err != nil {
			continue
		}
		m.docs.Publish(DocStatusLine, doc)
	}
}

// snapshotTick publishes the aggregate snapshot, or the link-failure
// document when the collector has been quiet past the comm timeout.
func (m *Monitor) snapshotTick(now time.Time) {
	up := now.Sub(m.contactAt()) <= m.commTimeout
	m.stats.LinkState(up)

	if !up {
		if m.setLinkUp(false) {
			m.events.Event(journal.EventLinkLost, -1, map[string]interface{}{
				"lastContact": m.contactAt().UTC().Format(time.RFC3339Nano),
			})
		}
		doc, err := json.Marshal(telemetry.LinkFailureDoc())
		if err != nil {
			return
		}
		m.docs.Publish(DocLinkError, doc)
		return
	}

	if m.setLinkUp(true) {
		m.events.Event(journal.EventLinkRestored, -1, nil)
	}

	snap := m.table.BuildSnapshot()
	doc, err := json.Marshal(snap)
	if err != nil {
		m.events.Event(journal.EventSnapshotError, -1, map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	m.docs.Publish(DocSnapshot, doc)

	if err := m.transitions.SnapshotTaken(now, m.table.Rows()); err != nil {
		m.events.Event(journal.EventRecorderError, -1, map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// exchange writes one trigger byte and reads one newline-terminated record
// under the read deadline. Deadlines run on the wall clock; a timeout also
// resets the buffered reader so a partial line cannot prepend itself to the
// next record.
func (m *Monitor) exchange() ([]byte, error) {
	if _, err := m.link.Write([]byte{m.trigger}); err != nil {
		return nil, fmt.Errorf("trigger write: %w", err)
	}
	m.stats.Pulse()

	if err := m.link.SetReadDeadline(time.Now().Add(m.readTimeout)); err != nil {
		return nil, fmt.Errorf("set read deadline: %w", err)
	}
	line, err := m.rd.ReadBytes('\n')
	if err != nil {
		m.rd.Reset(m.link)
		return nil, fmt.Errorf("record read: %w", err)
	}
	return line, nil
}

// acceptLine parses one record and folds it into the table. Malformed
// records and out-of-range motor indexes are counted, journaled, and
// dropped without touching any state.
func (m *Monitor) acceptLine(line []byte, now time.Time) {
	sample, err := telemetry.ParseRecord(line)
	if err != nil {
		m.stats.RecordMalformed()
		m.events.Event(journal.EventRecordMalformed, -1, map[string]interface{}{
			"error": err.Error(),
			"line":  truncate(line, 64),
		})
		return
	}

	if err := m.table.Accept(sample, now); err != nil {
		m.stats.RecordMalformed()
		m.events.Event(journal.EventRecordMalformed, -1, map[string]interface{}{
			"error":      err.Error(),
			"motorIndex": sample.MotorIndex,
		})
		return
	}

	m.stats.RecordParsed()
	m.stats.MotorSample(sample)
	m.touchContact(now)
}

// DocErrors reports how many document deliveries have failed since start.
func (m *Monitor) DocErrors() uint64 {
	return m.docs.Errors()
}

func (m *Monitor) touchContact(now time.Time) {
	m.mu.Lock()
	m.lastContact = now
	m.mu.Unlock()
}

func (m *Monitor) contactAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastContact
}

// setLinkUp flips the liveness flag and reports whether it changed.
func (m *Monitor) setLinkUp(up bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.linkUp == up {
		return false
	}
	m.linkUp = up
	return true
}

func truncate(b []byte, max int) string {
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}
