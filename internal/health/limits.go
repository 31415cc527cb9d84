package health

import "time"

// Window is an inclusive [Min, Max] band for one reading. A disabled
// window never fires.
type Window struct {
	Enabled bool
	Min     float64
	Max     float64
}

// Outside reports whether v falls off the band. Disabled windows accept
// everything.
func (w Window) Outside(v float64) bool {
	if !w.Enabled {
		return false
	}
	return v < w.Min || v > w.Max
}

// Limits carries every tunable the rule engine reads.
type Limits struct {
	// StaleAfter is how long a motor may stay silent before the staleness
	// rule declares it down.
	StaleAfter time.Duration

	// RPMFloor and ThrottleFloorPct drive the reference rule: throttle
	// above the floor with RPM below the floor means the motor is not
	// turning despite being commanded to.
	RPMFloor         float64
	ThrottleFloorPct float64

	// StuckRPMWindow enables the stuck-rotor rule when non-zero: RPM pinned
	// within StuckRPMEpsilon for a full window, under throttle, fires.
	StuckRPMWindow  time.Duration
	StuckRPMEpsilon float64

	Voltage      Window
	TotalCurrent Window
	PhaseCurrent Window
	MosfetTemp   Window
}

// DefaultLimits returns the deployed hexacopter tuning. The windows carry
// the measured flight envelope but ship disabled; the staleness and RPM
// reference rules are the ones that catch a dead motor.
func DefaultLimits() Limits {
	return Limits{
		StaleAfter:       5 * time.Second,
		RPMFloor:         350,
		ThrottleFloorPct: 5.0,
		StuckRPMEpsilon:  1.0,
		Voltage:          Window{Min: 18.0, Max: 25.2},
		TotalCurrent:     Window{Min: 1.4, Max: 18.0},
		PhaseCurrent:     Window{Min: 0.18, Max: 9.0},
		MosfetTemp:       Window{Min: 20.0, Max: 75.0},
	}
}
