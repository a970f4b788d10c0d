package engine

import "time"

// Cooldown suppresses flash re-entry into an instrument that just closed a
// pairing. Each instrument moves through explicit states: eligible ->
// cooling (until the next-eligible time) -> eligible again, and attempts
// made while cooling add a strike; past maxStrikes the instrument is banned
// for the process lifetime.
type Cooldown struct {
	window     time.Duration
	maxStrikes int

	next    map[string]time.Time
	strikes map[string]int
	banned  map[string]struct{}
}

func NewCooldown(window time.Duration, maxStrikes int) *Cooldown {
	return &Cooldown{
		window:     window,
		maxStrikes: maxStrikes,
		next:       make(map[string]time.Time),
		strikes:    make(map[string]int),
		banned:     make(map[string]struct{}),
	}
}

// NoteClose starts the cooling window for the instrument.
func (c *Cooldown) NoteClose(instrument string, now time.Time) {
	c.next[instrument] = now.Add(c.window)
}

// Check reports whether the instrument may be entered. An attempt during the
// cooling window counts as a strike; reaching maxStrikes bans the instrument
// permanently.
func (c *Cooldown) Check(instrument string, now time.Time) (ok, banned bool) {
	if _, b := c.banned[instrument]; b {
		return false, true
	}
	until, has := c.next[instrument]
	if !has || !now.Before(until) {
		return true, false
	}

	c.strikes[instrument]++
	if c.strikes[instrument] >= c.maxStrikes {
		c.banned[instrument] = struct{}{}
		return false, true
	}
	return false, false
}

// Strikes returns the current strike count, for the summary.
func (c *Cooldown) Strikes(instrument string) int { return c.strikes[instrument] }

// Banned reports whether the instrument is permanently excluded.
func (c *Cooldown) Banned(instrument string) bool {
	_, b := c.banned[instrument]
	return b
}
