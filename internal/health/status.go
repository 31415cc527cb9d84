package health

// Status classifies one motor.
type Status string

const (
	// StatusNormal means every enabled rule passed.
	StatusNormal Status = "normal"

	// StatusDown means at least one rule fired.
	StatusDown Status = "down"

	// StatusUnknown is the sentinel for a motor that has never reported.
	// It never reappears once real data has arrived.
	StatusUnknown Status = "unknown"
)

// String returns the operator-facing form used in status documents.
func (s Status) String() string {
	return string(s)
}
