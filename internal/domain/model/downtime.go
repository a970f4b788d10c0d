package model

import "time"

// Downtime is one venue outage interval. ReconnectedAt is zero while the
// outage is ongoing.
type Downtime struct {
	Venue          string    `json:"venue"`
	DisconnectedAt time.Time `json:"disconnected_at"`
	ReconnectedAt  time.Time `json:"reconnected_at,omitempty"`
	Reason         string    `json:"reason"`
}

// Open reports whether the interval is still unmatched by a reconnect.
func (d Downtime) Open() bool { return d.ReconnectedAt.IsZero() }

// Duration is the outage length, zero while still open.
func (d Downtime) Duration() time.Duration {
	if d.Open() {
		return 0
	}
	return d.ReconnectedAt.Sub(d.DisconnectedAt)
}
