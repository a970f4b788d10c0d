package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"duoarb/internal/domain/model"
	"duoarb/internal/infrastructure/health"
)

const (
	ansiReset  = "\033[0m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiDim    = "\033[2m"
)

func colorize(s, c string) string { return c + s + ansiReset }

// Formatter renders the periodic summary line: slots, open pairings, skip
// counts and venue health. Read-only over engine state.
type Formatter struct {
	MaxPairings int
}

func NewFormatter(maxPairings int) *Formatter {
	return &Formatter{MaxPairings: maxPairings}
}

func (f *Formatter) Render(pairings []*model.OpenPairing, skips map[model.SkipReason]int, stats map[string]health.Stats) string {
	var sb strings.Builder
	sb.WriteString(colorize("[DUOARB] ", ansiDim))
	sb.WriteString(fmt.Sprintf("slots %d/%d", len(pairings), f.MaxPairings))

	for _, p := range pairings {
		sb.WriteString(colorize("  ||  ", ansiDim))
		sb.WriteString(fmt.Sprintf("%s L:%s S:%s ", p.Instrument, p.LongVenue, p.ShortVenue))
		sb.WriteString(colorize(fmt.Sprintf("entry=%+.3f%%", p.EntrySpreadPercent), ansiGreen))
	}

	if len(skips) > 0 {
		reasons := make([]string, 0, len(skips))
		for r := range skips {
			reasons = append(reasons, string(r))
		}
		sort.Strings(reasons)
		sb.WriteString(colorize("  ||  skips ", ansiDim))
		for i, r := range reasons {
			if i > 0 {
				sb.WriteString(" ")
			}
			sb.WriteString(colorize(fmt.Sprintf("%s=%d", r, skips[model.SkipReason(r)]), ansiYellow))
		}
	}

	venues := make([]string, 0, len(stats))
	for v := range stats {
		venues = append(venues, v)
	}
	sort.Strings(venues)
	for _, v := range venues {
		s := stats[v]
		sb.WriteString(colorize("  ||  ", ansiDim))
		state := colorize("up", ansiGreen)
		if s.Ongoing {
			state = colorize("down", ansiYellow)
		}
		sb.WriteString(fmt.Sprintf("%s %s dc=%d lost=%s", v, state, s.Disconnects, s.TotalDowntime.Round(time.Second)))
	}

	return sb.String()
}
