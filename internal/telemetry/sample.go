package telemetry

// MotorSample is one decoded telemetry record for one motor. Field order
// matches the wire record.
type MotorSample struct {
	MotorIndex   int     `json:"motorIndex"`
	Updated      bool    `json:"updated"`
	ArmTimeMs    float64 `json:"armTimeMs"`
	ThrottleIn   float64 `json:"throttleIn"`
	ThrottleOut  float64 `json:"throttleOut"`
	RPM          float64 `json:"rpm"`
	BusVoltage   float64 `json:"busVoltage"`
	BusCurrent   float64 `json:"busCurrent"`
	PhaseCurrent float64 `json:"phaseCurrent"`
	MosfetTemp   float64 `json:"mosfetTemp"`
	CapTemp      float64 `json:"capTemp"`

	// Fault mirrors the vendor fault line at capture time. It is advisory
	// only and does not travel in the wire record.
	Fault bool `json:"fault,omitempty"`
}
