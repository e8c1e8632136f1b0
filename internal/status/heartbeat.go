package status

import "time"

// Heartbeat decides when a periodic HEARTBEAT event is due.
// Not safe for concurrent use; owned by the daemon loop.
type Heartbeat struct {
	interval time.Duration
	last     time.Time
}

// NewHeartbeat creates a Heartbeat whose first beat is due one interval
// after start. An interval of 0 disables it.
func NewHeartbeat(interval time.Duration, start time.Time) *Heartbeat {
	return &Heartbeat{interval: interval, last: start}
}

// Check reports whether a heartbeat is due at now, and if so restarts the
// interval from now.
func (h *Heartbeat) Check(now time.Time) bool {
	if h.interval <= 0 {
		return false
	}
	if now.Sub(h.last) < h.interval {
		return false
	}
	h.last = now
	return true
}
