package exchange

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"duoarb/internal/application/port"
)

// Session is one connected streaming attempt: dial, subscribe, pump until
// the connection dies. It must call up() once the stream is live so the
// runner can report recovery. The returned error is the close reason.
type Session func(ctx context.Context, up func()) error

// Runner drives a feed session forever with a fixed reconnect delay: no
// attempt cap, no backoff growth. Disconnects surface through the health
// record, never through a stopped retry loop.
type Runner struct {
	Venue  string
	Delay  time.Duration
	Health port.HealthRecorder
}

func (r *Runner) Run(ctx context.Context, session Session) {
	down := false

	for {
		if ctx.Err() != nil {
			return
		}

		log.Warn().Str("feed", r.Venue).Msg("ws connecting")
		err := session(ctx, func() {
			log.Info().Str("feed", r.Venue).Msg("ws connected & subscribed")
			if down {
				down = false
				if r.Health != nil {
					r.Health.RecordReconnect(r.Venue, time.Now())
				}
			}
		})

		if ctx.Err() != nil {
			return
		}

		reason := "connection closed"
		if err != nil {
			reason = err.Error()
		}
		if !down {
			down = true
			if r.Health != nil {
				r.Health.RecordDisconnect(r.Venue, reason, time.Now())
			}
		}

		log.Warn().Str("feed", r.Venue).Err(err).Dur("retry_in", r.Delay).
			Msg("ws disconnected, reconnecting")

		select {
		case <-ctx.Done():
			return
		case <-time.After(r.Delay):
		}
	}
}
