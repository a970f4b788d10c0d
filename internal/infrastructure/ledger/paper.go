package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"duoarb/internal/application/port"
	"duoarb/internal/domain/model"
)

// PriceSource answers latest cached prices; the engine's board implements it.
type PriceSource interface {
	Get(venue, instrument string) (model.InstrumentPrice, bool)
}

// Paper is an in-memory ledger: it tracks pairings and slot usage without
// placing orders anywhere. Pairing IDs are uuids; the book keeps insertion
// order, which is the "natural order" replacement evaluation iterates in.
type Paper struct {
	mu       sync.Mutex
	maxSlots int
	timeout  time.Duration
	prices   PriceSource
	repo     port.Repository

	open  map[string]*model.OpenPairing
	order []string // ids, oldest first
}

func NewPaper(maxSlots int, timeout time.Duration, prices PriceSource, repo port.Repository) *Paper {
	return &Paper{
		maxSlots: maxSlots,
		timeout:  timeout,
		prices:   prices,
		repo:     repo,
		open:     make(map[string]*model.OpenPairing),
	}
}

func (l *Paper) OpenPairing(ctx context.Context, opp model.Opportunity) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, p := range l.open {
		if p.Instrument == opp.Instrument {
			return "", fmt.Errorf("pairing already open for %s", opp.Instrument)
		}
	}
	if len(l.open) >= l.maxSlots {
		return "", fmt.Errorf("no free slot (%d/%d)", len(l.open), l.maxSlots)
	}

	p := &model.OpenPairing{
		ID:                 uuid.NewString(),
		Instrument:         opp.Instrument,
		LongVenue:          opp.BuyVenue,
		ShortVenue:         opp.SellVenue,
		LongEntryPrice:     opp.BuyPrice,
		ShortEntryPrice:    opp.SellPrice,
		EntrySpreadPercent: opp.GrossSpreadPercent,
		OpenedAt:           opp.DetectedAt,
		TimeoutAt:          opp.DetectedAt + l.timeout.Milliseconds(),
	}
	l.open[p.ID] = p
	l.order = append(l.order, p.ID)
	return p.ID, nil
}

func (l *Paper) ClosePairing(ctx context.Context, id string, exitBuy, exitSell float64, reason model.CloseReason) error {
	l.mu.Lock()
	p, ok := l.open[id]
	if !ok {
		l.mu.Unlock()
		return fmt.Errorf("pairing %s not open", id)
	}
	delete(l.open, id)
	for i, oid := range l.order {
		if oid == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	l.mu.Unlock()

	closed := model.ClosedPairing{
		OpenPairing:   *p,
		ExitBuyPrice:  exitBuy,
		ExitSellPrice: exitSell,
		Reason:        reason,
		ClosedAt:      time.Now().UnixMilli(),
	}
	if err := l.repo.InsertClosedPairing(ctx, closed); err != nil {
		log.Debug().Err(err).Str("pairing", id).Msg("closed pairing archive failed")
	}
	return nil
}

func (l *Paper) OpenPairings() []*model.OpenPairing {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*model.OpenPairing, 0, len(l.order))
	for _, id := range l.order {
		cp := *l.open[id]
		out = append(out, &cp)
	}
	return out
}

func (l *Paper) HasOpenPairing(instrument string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, p := range l.open {
		if p.Instrument == instrument {
			return true
		}
	}
	return false
}

func (l *Paper) CanOpenNew() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.open) < l.maxSlots
}

// PriceFor answers the exit prices for an open pairing: the ask on the short
// venue (to buy the short back) and the bid on the long venue (to sell the
// long). ok is false when the instrument has no open pairing or either
// quote is missing.
func (l *Paper) PriceFor(instrument string) (buy, sell float64, ok bool) {
	l.mu.Lock()
	var pairing *model.OpenPairing
	for _, p := range l.open {
		if p.Instrument == instrument {
			cp := *p
			pairing = &cp
			break
		}
	}
	l.mu.Unlock()

	if pairing == nil {
		return 0, 0, false
	}
	short, ok1 := l.prices.Get(pairing.ShortVenue, instrument)
	long, ok2 := l.prices.Get(pairing.LongVenue, instrument)
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	return short.Ask, long.Bid, true
}

// ExpireDue closes every pairing past its timeout and returns the closed
// records. Pairings without a current quote are closed at entry prices.
func (l *Paper) ExpireDue(ctx context.Context, now time.Time) []model.ClosedPairing {
	nowMs := now.UnixMilli()

	l.mu.Lock()
	var due []*model.OpenPairing
	for _, id := range l.order {
		if p := l.open[id]; p.TimeoutAt < nowMs {
			cp := *p
			due = append(due, &cp)
		}
	}
	l.mu.Unlock()

	var closed []model.ClosedPairing
	for _, p := range due {
		exitBuy, exitSell, ok := l.PriceFor(p.Instrument)
		if !ok {
			exitBuy, exitSell = p.ShortEntryPrice, p.LongEntryPrice
		}
		if err := l.ClosePairing(ctx, p.ID, exitBuy, exitSell, model.CloseTimeout); err != nil {
			log.Warn().Err(err).Str("pairing", p.ID).Msg("timeout close failed")
			continue
		}
		closed = append(closed, model.ClosedPairing{
			OpenPairing:   *p,
			ExitBuyPrice:  exitBuy,
			ExitSellPrice: exitSell,
			Reason:        model.CloseTimeout,
			ClosedAt:      nowMs,
		})
	}
	return closed
}

var _ port.Ledger = (*Paper)(nil)
