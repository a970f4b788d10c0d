package port

import (
	"context"
	"time"
)

// Tick is one top-of-book update as delivered by a venue feed. Instrument is
// already canonical (coin); the feed owns the native-symbol conversion.
type Tick struct {
	Venue      string
	Instrument string
	Bid        float64
	Ask        float64
	Last       float64
	Ts         int64 // unix ms
}

// PriceFeed is a streaming venue client. Subscribe is idempotent: a second
// call while a stream is already running returns the existing channel with a
// warning. The feed reconnects on its own and keeps the channel open until
// ctx is done.
type PriceFeed interface {
	Name() string
	Subscribe(ctx context.Context, coins []string) (<-chan Tick, error)
}

// HealthRecorder receives connection lifecycle events from feeds.
type HealthRecorder interface {
	RecordDisconnect(venue, reason string, at time.Time)
	RecordReconnect(venue string, at time.Time)
}
