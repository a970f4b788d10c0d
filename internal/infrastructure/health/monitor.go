package health

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"duoarb/internal/domain/model"
)

// Archiver receives completed downtime intervals. Optional.
type Archiver interface {
	ArchiveDowntime(d model.Downtime)
}

// Monitor keeps per-venue downtime bookkeeping: at most one open interval
// per venue, completed intervals archived in order. Written from feed
// goroutines, read from the summary loop.
type Monitor struct {
	mu       sync.Mutex
	open     map[string]*model.Downtime
	archive  map[string][]model.Downtime
	archiver Archiver
}

func NewMonitor(archiver Archiver) *Monitor {
	return &Monitor{
		open:     make(map[string]*model.Downtime),
		archive:  make(map[string][]model.Downtime),
		archiver: archiver,
	}
}

// RecordDisconnect opens a downtime interval for the venue. A second
// disconnect while one is already open is ignored: the per-venue record is
// singular and the first reason stands.
func (m *Monitor) RecordDisconnect(venue, reason string, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.open[venue] != nil {
		log.Warn().Str("venue", venue).Msg("disconnect reported while outage already open, ignoring")
		return
	}
	m.open[venue] = &model.Downtime{
		Venue:          venue,
		DisconnectedAt: at,
		Reason:         reason,
	}
}

// RecordReconnect closes the venue's open interval and archives it. A
// reconnect with no open interval is ignored.
func (m *Monitor) RecordReconnect(venue string, at time.Time) {
	m.mu.Lock()
	d := m.open[venue]
	if d == nil {
		m.mu.Unlock()
		return
	}
	delete(m.open, venue)
	d.ReconnectedAt = at
	m.archive[venue] = append(m.archive[venue], *d)
	m.mu.Unlock()

	log.Info().Str("venue", venue).Dur("downtime", d.Duration()).Msg("venue recovered")
	if m.archiver != nil {
		m.archiver.ArchiveDowntime(*d)
	}
}

// History returns the archived intervals for a venue, oldest first.
func (m *Monitor) History(venue string) []model.Downtime {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Downtime, len(m.archive[venue]))
	copy(out, m.archive[venue])
	return out
}

// Stats are aggregate folds over the archive plus the open interval, if any.
type Stats struct {
	Disconnects   int
	TotalDowntime time.Duration
	Ongoing       bool
	OngoingSince  time.Time
}

func (m *Monitor) Stats(venue string) Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var s Stats
	for _, d := range m.archive[venue] {
		s.Disconnects++
		s.TotalDowntime += d.Duration()
	}
	if d := m.open[venue]; d != nil {
		s.Disconnects++
		s.Ongoing = true
		s.OngoingSince = d.DisconnectedAt
	}
	return s
}
