// Package fake provides a deterministic ESC decoder for tests and the
// collector simulator.
package fake

import (
	"context"
	"fmt"
	"sync"

	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/esc"
)

// Profile describes the steady-state readings a fake channel reports.
type Profile struct {
	ThrottleIn   float64
	ThrottleOut  float64
	RPM          float64
	BusVoltage   float64
	BusCurrent   float64
	PhaseCurrent float64
	MosfetTemp   float64
	CapTemp      float64
}

// DefaultProfile returns a plausible hover profile for channel ch. Channels
// get slightly different baselines so records are distinguishable in logs.
func DefaultProfile(ch int) Profile {
	n := float64(ch)
	return Profile{
		ThrottleIn:   45 + n,
		ThrottleOut:  44 + n,
		RPM:          4200 + 50*n,
		BusVoltage:   22.2,
		BusCurrent:   3.1 + 0.1*n,
		PhaseCurrent: 1.2 + 0.05*n,
		MosfetTemp:   42 + n,
		CapTemp:      38 + n,
	}
}

type channelMode int

const (
	modeNormal channelMode = iota
	modeFailed
	modeSilent
)

func (m channelMode) String() string {
	switch m {
	case modeFailed:
		return "failed"
	case modeSilent:
		return "silent"
	default:
		return "normal"
	}
}

// Decoder implements esc.Decoder with scriptable failure injection. It is
// safe to script from one goroutine while the collector polls from another.
type Decoder struct {
	mu       sync.Mutex
	profiles []Profile
	modes    []channelMode
	polls    []uint64
	closed   bool
}

var _ esc.Decoder = (*Decoder)(nil)

// New builds a decoder with DefaultProfile baselines for channels channels.
func New(channels int) *Decoder {
	profiles := make([]Profile, channels)
	for ch := range profiles {
		profiles[ch] = DefaultProfile(ch)
	}
	return NewWithProfiles(profiles)
}

// NewWithProfiles builds a decoder with one explicit profile per channel.
func NewWithProfiles(profiles []Profile) *Decoder {
	return &Decoder{
		profiles: profiles,
		modes:    make([]channelMode, len(profiles)),
		polls:    make([]uint64, len(profiles)),
	}
}

// Poll returns a frame synthesized from the channel profile. A small
// poll-count wobble keeps consecutive RPM readings from being identical.
func (d *Decoder) Poll(ctx context.Context, ch int) (esc.Frame, error) {
	select {
	case <-ctx.Done():
		return esc.Frame{}, ctx.Err()
	default:
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return esc.Frame{}, fmt.Errorf("%w: decoder closed", esc.ErrChannel)
	}
	if ch < 0 || ch >= len(d.profiles) {
		return esc.Frame{}, fmt.Errorf("%w: channel %d of %d", esc.ErrChannel, ch, len(d.profiles))
	}
	if d.modes[ch] == modeSilent {
		return esc.Frame{}, esc.ErrNoFrame
	}

	d.polls[ch]++
	wobble := float64(d.polls[ch] % 7)

	p := d.profiles[ch]
	frame := esc.Frame{
		ThrottleIn:   p.ThrottleIn,
		ThrottleOut:  p.ThrottleOut,
		RPM:          p.RPM + 1.5*wobble,
		BusVoltage:   p.BusVoltage - 0.01*wobble,
		BusCurrent:   p.BusCurrent,
		PhaseCurrent: p.PhaseCurrent,
		MosfetTemp:   p.MosfetTemp,
		CapTemp:      p.CapTemp,
	}

	if d.modes[ch] == modeFailed {
		// Commanded but not spinning: throttle holds, the motor does not.
		frame.RPM = wobble
		frame.PhaseCurrent = 0.02
		frame.BusCurrent = 0.3
		frame.Fault = true
	}

	return frame, nil
}

// FailMotor makes ch report a spun-down motor while throttle stays up.
func (d *Decoder) FailMotor(ch int) error {
	return d.setMode(ch, modeFailed)
}

// SilenceMotor makes ch stop producing frames entirely.
func (d *Decoder) SilenceMotor(ch int) error {
	return d.setMode(ch, modeSilent)
}

// RestoreMotor returns ch to its steady-state profile.
func (d *Decoder) RestoreMotor(ch int) error {
	return d.setMode(ch, modeNormal)
}

// ChannelState reports "normal", "failed", or "silent" for ch.
func (d *Decoder) ChannelState(ch int) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ch < 0 || ch >= len(d.modes) {
		return "unknown"
	}
	return d.modes[ch].String()
}

// Channels reports the channel count.
func (d *Decoder) Channels() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.profiles)
}

// Close marks the decoder dead; later polls return ErrChannel.
func (d *Decoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *Decoder) setMode(ch int, m channelMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ch < 0 || ch >= len(d.modes) {
		return fmt.Errorf("%w: channel %d of %d", esc.ErrChannel, ch, len(d.modes))
	}
	d.modes[ch] = m
	return nil
}
