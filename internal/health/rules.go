package health

import (
	"math"
	"time"

	"github.com/thiagolages/motorDownDetectionESCTelemetry/internal/telemetry"
)

// Input is the evidence one classification runs on.
type Input struct {
	// Sample is the most recent accepted record for the motor.
	Sample telemetry.MotorSample

	// Seen is false until the motor's first record arrives.
	Seen bool

	// LastSeen is the wall-clock arrival time of Sample.
	LastSeen time.Time

	// History holds recent RPM readings, oldest first. Only populated when
	// the stuck-rotor rule is enabled.
	History []RPMPoint

	// Now is the classification instant.
	Now time.Time
}

// RPMPoint is one timestamped RPM reading in a motor's history ring.
type RPMPoint struct {
	At  time.Time
	RPM float64
}

// Rule is a single down criterion. Rules are independent; the engine
// declares a motor down when any one of them fires.
type Rule interface {
	Name() string
	Fires(in Input, lim Limits) bool
}

// staleRule fires when no record has arrived for the motor within
// StaleAfter. It is the only rule that judges silent motors.
type staleRule struct{}

func (staleRule) Name() string { return "stale" }

func (staleRule) Fires(in Input, lim Limits) bool {
	return in.Now.Sub(in.LastSeen) > lim.StaleAfter
}

// rpmRule fires when the motor is commanded above the throttle floor but
// turning below the RPM floor.
type rpmRule struct{}

func (rpmRule) Name() string { return "rpm" }

func (rpmRule) Fires(in Input, lim Limits) bool {
	if !in.Sample.Updated {
		return false
	}
	return in.Sample.ThrottleOut > lim.ThrottleFloorPct && in.Sample.RPM < lim.RPMFloor
}

// stuckRPMRule fires when RPM has been pinned within epsilon of its first
// history reading for a full window while throttle is up. A healthy motor
// under load always jitters.
type stuckRPMRule struct{}

func (stuckRPMRule) Name() string { return "stuck_rpm" }

func (stuckRPMRule) Fires(in Input, lim Limits) bool {
	if !in.Sample.Updated {
		return false
	}
	if in.Sample.ThrottleOut <= lim.ThrottleFloorPct {
		return false
	}
	if len(in.History) < 2 {
		return false
	}
	if in.Now.Sub(in.History[0].At) < lim.StuckRPMWindow {
		return false
	}
	first := in.History[0].RPM
	for _, p := range in.History[1:] {
		if math.Abs(p.RPM-first) >= lim.StuckRPMEpsilon {
			return false
		}
	}
	return true
}

// windowRule fires when one reading leaves its configured band.
type windowRule struct {
	name   string
	value  func(telemetry.MotorSample) float64
	window func(Limits) Window
}

func (r windowRule) Name() string { return r.name }

func (r windowRule) Fires(in Input, lim Limits) bool {
	if !in.Sample.Updated {
		return false
	}
	return r.window(lim).Outside(r.value(in.Sample))
}

func voltageRule() Rule {
	return windowRule{
		name:   "voltage",
		value:  func(s telemetry.MotorSample) float64 { return s.BusVoltage },
		window: func(l Limits) Window { return l.Voltage },
	}
}

func totalCurrentRule() Rule {
	return windowRule{
		name:   "total_current",
		value:  func(s telemetry.MotorSample) float64 { return s.BusCurrent },
		window: func(l Limits) Window { return l.TotalCurrent },
	}
}

func phaseCurrentRule() Rule {
	return windowRule{
		name:   "phase_current",
		value:  func(s telemetry.MotorSample) float64 { return s.PhaseCurrent },
		window: func(l Limits) Window { return l.PhaseCurrent },
	}
}

func mosfetTempRule() Rule {
	return windowRule{
		name:   "mosfet_temp",
		value:  func(s telemetry.MotorSample) float64 { return s.MosfetTemp },
		window: func(l Limits) Window { return l.MosfetTemp },
	}
}
