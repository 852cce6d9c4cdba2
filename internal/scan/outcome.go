// internal/scan/outcome.go
package scan

import "time"

// Status is the result of a scan request.
type Status int

const (
	Started Status = iota
	AlreadyRunning
	Cooldown
)

func (s Status) String() string {
	switch s {
	case Started:
		return "started"
	case AlreadyRunning:
		return "already_running"
	case Cooldown:
		return "cooldown"
	default:
		return "unknown"
	}
}

// Outcome is what RequestScan reports back. Remaining is set for Cooldown.
type Outcome struct {
	Status    Status
	Remaining time.Duration
}

// RemainingSeconds rounds Remaining up to whole seconds.
func (o Outcome) RemainingSeconds() int64 {
	if o.Remaining <= 0 {
		return 0
	}
	return int64((o.Remaining + time.Second - 1) / time.Second)
}
