package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/esc"
	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/telemetry"
)

// DefaultCycleInterval paces the poll/serve loop when the config leaves it
// unset. Fast enough that a 10Hz monitor never waits a visible beat.
const DefaultCycleInterval = 2 * time.Millisecond

// Config carries the collector loop settings.
type Config struct {
	// Decoder is the vendor telemetry source.
	Decoder esc.Decoder

	// Link is the byte link to the monitor: trigger bytes in, records out.
	Link io.ReadWriter

	// Motors is the channel count served round-robin.
	Motors int

	// CycleInterval paces Step when running under Run. Zero means
	// DefaultCycleInterval.
	CycleInterval time.Duration
}

// Stats counts collector activity since start.
type Stats struct {
	Cycles       uint64
	PollFresh    uint64
	PollEmpty    uint64
	PollErrors   uint64
	TriggerBytes uint64
	Served       uint64
}

// Collector owns the per-motor sample cache and serves one wire record per
// request trigger. All cache state belongs to the cycle goroutine; only the
// trigger counter and stats are shared.
type Collector struct {
	dec    esc.Decoder
	link   io.ReadWriter
	motors int
	cycle  time.Duration

	started time.Time
	cursor  *Cursor
	cache   []telemetry.MotorSample
	records [][]byte

	pending atomic.Int64

	mu    sync.Mutex
	stats Stats
}

// New validates cfg and builds a collector with zero-value samples cached
// for every channel.
func New(cfg Config) (*Collector, error) {
	if cfg.Decoder == nil {
		return nil, errors.New("collector: decoder is required")
	}
	if cfg.Link == nil {
		return nil, errors.New("collector: link is required")
	}
	if cfg.Motors < 1 {
		return nil, fmt.Errorf("collector: motor count %d, want >= 1", cfg.Motors)
	}
	cycle := cfg.CycleInterval
	if cycle <= 0 {
		cycle = DefaultCycleInterval
	}

	c := &Collector{
		dec:     cfg.Decoder,
		link:    cfg.Link,
		motors:  cfg.Motors,
		cycle:   cycle,
		started: time.Now(),
		cursor:  NewCursor(cfg.Motors),
		cache:   make([]telemetry.MotorSample, cfg.Motors),
		records: make([][]byte, cfg.Motors),
	}
	for ch := range c.cache {
		c.cache[ch] = telemetry.MotorSample{MotorIndex: ch}
		c.records[ch] = make([]byte, 0, 96)
	}
	return c, nil
}

// Trigger records n request bytes from the monitor. Any byte is a request;
// the next Step serves at most one record no matter how many arrived.
func (c *Collector) Trigger(n int) {
	if n <= 0 {
		return
	}
	c.pending.Add(int64(n))
	c.mu.Lock()
	c.stats.TriggerBytes += uint64(n)
	c.mu.Unlock()
}

// Step runs one cycle: poll every channel, re-render every cached record,
// then service at most one pending trigger. Only a link write failure is an
// error; poll failures leave the channel's cache untouched.
func (c *Collector) Step(ctx context.Context) error {
	c.poll(ctx)
	c.render()
	err := c.serve()

	c.mu.Lock()
	c.stats.Cycles++
	c.mu.Unlock()
	return err
}

// Run paces Step on the cycle interval and pumps trigger bytes off the link
// until ctx is canceled or the link goes away. A closed link returns nil.
func (c *Collector) Run(ctx context.Context) error {
	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		c.pump(ctx)
	}()

	tick := time.NewTicker(c.cycle)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pumpDone:
			log.Printf("collector: link closed after %d served records", c.Snapshot().Served)
			return nil
		case <-tick.C:
			if err := c.Step(ctx); err != nil {
				return err
			}
		}
	}
}

// Snapshot returns a copy of the activity counters.
func (c *Collector) Snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// pump moves trigger bytes from the link into the pending counter. It exits
// on the first read error, which is how a hung-up monitor shows up.
func (c *Collector) pump(ctx context.Context) {
	buf := make([]byte, 64)
	for {
		n, err := c.link.Read(buf)
		if n > 0 {
			c.Trigger(n)
		}
		if err != nil {
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (c *Collector) poll(ctx context.Context) {
	armTime := float64(time.Since(c.started).Milliseconds())

	var fresh, empty, failed uint64
	for ch := 0; ch < c.motors; ch++ {
		frame, err := c.dec.Poll(ctx, ch)
		switch {
		case err == nil:
			c.cache[ch] = telemetry.MotorSample{
				MotorIndex:   ch,
				Updated:      true,
				ArmTimeMs:    armTime,
				ThrottleIn:   frame.ThrottleIn,
				ThrottleOut:  frame.ThrottleOut,
				RPM:          frame.RPM,
				BusVoltage:   frame.BusVoltage,
				BusCurrent:   frame.BusCurrent,
				PhaseCurrent: frame.PhaseCurrent,
				MosfetTemp:   frame.MosfetTemp,
				CapTemp:      frame.CapTemp,
				Fault:        frame.Fault,
			}
			fresh++
		case errors.Is(err, esc.ErrNoFrame):
			empty++
		default:
			failed++
		}
	}

	c.mu.Lock()
	c.stats.PollFresh += fresh
	c.stats.PollEmpty += empty
	c.stats.PollErrors += failed
	c.mu.Unlock()
}

func (c *Collector) render() {
	for ch := range c.records {
		c.records[ch] = telemetry.AppendRecord(c.records[ch][:0], c.cache[ch])
	}
}

func (c *Collector) serve() error {
	if c.pending.Swap(0) == 0 {
		return nil
	}

	ch := c.cursor.Next()
	if _, err := c.link.Write(c.records[ch]); err != nil {
		return fmt.Errorf("collector: serve channel %d: %w", ch, err)
	}
	c.cache[ch].Updated = false

	c.mu.Lock()
	c.stats.Served++
	c.mu.Unlock()
	return nil
}
