package esc

import (
	"context"
	"errors"
)

// Normalized decoder errors.
var (
	// ErrNoFrame reports that a channel produced nothing fresh this poll.
	// Callers keep their cached sample and carry on.
	ErrNoFrame = errors.New("NO_FRAME")

	// ErrChannel reports a channel outside the decoder's range.
	ErrChannel = errors.New("BAD_CHANNEL")
)

// Frame carries one fresh reading from a vendor ESC channel.
type Frame struct {
	ThrottleIn   float64
	ThrottleOut  float64
	RPM          float64
	BusVoltage   float64
	BusCurrent   float64
	PhaseCurrent float64
	MosfetTemp   float64
	CapTemp      float64
	Fault        bool
}

// Decoder is the stable southbound contract between the collector and a
// vendor telemetry source.
type Decoder interface {
	// Poll returns a fresh frame for channel ch, ErrNoFrame when the
	// channel has nothing new, or ErrChannel when ch is out of range.
	Poll(ctx context.Context, ch int) (Frame, error)

	// Channels reports how many telemetry channels the decoder serves.
	Channels() int

	// Close releases the underlying link.
	Close() error
}
