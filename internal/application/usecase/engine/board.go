package engine

import (
	"strings"
	"sync"

	"duoarb/internal/application/port"
	"duoarb/internal/domain/model"
)

// Board is the point-in-time price cache: the latest InstrumentPrice per
// (venue, instrument), superseded on every tick, never a series. Only the
// dispatcher loop writes it; feeds never touch it directly.
type Board struct {
	mu      sync.RWMutex
	venues  [2]string
	order   []string
	tracked map[string]struct{}
	prices  map[string]map[string]model.InstrumentPrice // venue -> instrument
}

func NewBoard(venueA, venueB string, instruments []string) *Board {
	order := make([]string, 0, len(instruments))
	tracked := make(map[string]struct{}, len(instruments))
	for _, s := range instruments {
		u := strings.ToUpper(strings.TrimSpace(s))
		if u == "" {
			continue
		}
		order = append(order, u)
		tracked[u] = struct{}{}
	}
	return &Board{
		venues:  [2]string{venueA, venueB},
		order:   order,
		tracked: tracked,
		prices: map[string]map[string]model.InstrumentPrice{
			venueA: make(map[string]model.InstrumentPrice, len(order)),
			venueB: make(map[string]model.InstrumentPrice, len(order)),
		},
	}
}

func (b *Board) Instruments() []string { return b.order }

// Counterpart returns the other venue's name.
func (b *Board) Counterpart(venue string) string {
	if venue == b.venues[0] {
		return b.venues[1]
	}
	return b.venues[0]
}

// Apply stores the tick as the latest price for its (venue, instrument)
// pair. Ticks for unknown venues or instruments are dropped.
func (b *Board) Apply(t port.Tick) bool {
	if t.Bid <= 0 || t.Ask <= 0 {
		return false
	}
	if _, ok := b.tracked[t.Instrument]; !ok {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	cache, ok := b.prices[t.Venue]
	if !ok {
		return false
	}
	cache[t.Instrument] = model.InstrumentPrice{
		Venue:      t.Venue,
		Instrument: t.Instrument,
		Bid:        t.Bid,
		Ask:        t.Ask,
		Last:       t.Last,
		ObservedAt: t.Ts,
	}
	return true
}

// Get is a non-blocking cache lookup; ok is false when no tick has ever
// been received for the instrument on that venue.
func (b *Board) Get(venue, instrument string) (model.InstrumentPrice, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	cache, ok := b.prices[venue]
	if !ok {
		return model.InstrumentPrice{}, false
	}
	p, ok := cache[instrument]
	return p, ok
}

// Seen counts instruments with at least one tick per venue, for the summary.
func (b *Board) Seen() map[string]int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]int, len(b.prices))
	for venue, cache := range b.prices {
		out[venue] = len(cache)
	}
	return out
}
