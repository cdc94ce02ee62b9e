package models

// Severity is a passive check outcome, wire-encoded as 0/1/2.
type Severity int

const (
	SeverityOK Severity = iota
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "OK"
	}
}

// CheckResult is one evaluated rule ready for delivery to the monitoring
// receiver.
type CheckResult struct {
	Host     string
	Service  string
	Severity Severity
	Message  string
}
