package telemetry

import "strconv"

// MotorLabel returns the 1-based motor number used in every operator-facing
// document. Internal indexes stay 0-based.
func MotorLabel(index int) string {
	return strconv.Itoa(index + 1)
}

// StatusLine is the per-motor status document emitted on every poll tick.
type StatusLine struct {
	Motor  string `json:"motor"`
	Status string `json:"status"`
}

// Snapshot is the aggregate document emitted on the snapshot tick. Every
// list holds one entry per motor, in channel order.
type Snapshot struct {
	MotorStatusList        []string  `json:"motorStatusList"`
	ThrottleInPercentList  []float64 `json:"throttleInPercentList"`
	ThrottleOutPercentList []float64 `json:"throttleOutPercentList"`
	MotorRPMList           []float64 `json:"motorRPMList"`
	VoltageList            []float64 `json:"voltageList"`
	TotalCurrentList       []float64 `json:"totalCurrentList"`
	PhaseCurrentList       []float64 `json:"phaseCurrentList"`
	MosfetTempList         []float64 `json:"mosfetTempList"`
}

// NewSnapshot returns a Snapshot with every list allocated for motors entries.
func NewSnapshot(motors int) Snapshot {
	return Snapshot{
		MotorStatusList:        make([]string, motors),
		ThrottleInPercentList:  make([]float64, motors),
		ThrottleOutPercentList: make([]float64, motors),
		MotorRPMList:           make([]float64, motors),
		VoltageList:            make([]float64, motors),
		TotalCurrentList:       make([]float64, motors),
		PhaseCurrentList:       make([]float64, motors),
		MosfetTempList:         make([]float64, motors),
	}
}

// ErrorDoc replaces the aggregate snapshot while the collector link is down.
type ErrorDoc struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// LinkFailureDoc is the document published when no record has arrived within
// the communication timeout.
func LinkFailureDoc() ErrorDoc {
	return ErrorDoc{
		Status:  "error",
		Message: "Failed to communicate with telemetry collector.",
	}
}
