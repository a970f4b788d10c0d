package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"duoarb/internal/application/port"
	"duoarb/internal/domain/model"
	"duoarb/internal/infrastructure/health"
	"duoarb/internal/infrastructure/svc"
)

type ServiceDeps struct {
	Feeds       []port.PriceFeed // exactly two venues
	Instruments []string
	Board       *Board // shared with the ledger's price getter
	Ledger      port.Ledger
	Repo        port.Repository
	Health      *health.Monitor
	Sink        port.Sink

	Costs                    CostModel
	MinNetProfitPercent      float64
	MinProfitToNotifyPercent float64
	MaxPairings              int
	SummaryEvery             time.Duration
	Cooldown                 *Cooldown
}

// Service is the single dispatcher: ticks from both venues are merged into
// one ordered stream and each is processed to completion before the next.
// That discipline is what keeps the at-most-one-pairing-per-instrument
// invariant safe without per-instrument locking.
type Service struct {
	deps     ServiceDeps
	board    *Board
	detector *Detector
	slots    *SlotEngine
	fmt      *Formatter

	skips map[model.SkipReason]int
}

// pairingExpirer is implemented by ledgers that sweep timed-out pairings.
type pairingExpirer interface {
	ExpireDue(ctx context.Context, now time.Time) []model.ClosedPairing
}

func NewService(deps ServiceDeps) (*Service, error) {
	if len(deps.Feeds) != 2 {
		return nil, svc.ErrNoFeedsEnabled
	}

	return &Service{
		deps:     deps,
		board:    deps.Board,
		detector: NewDetector(deps.Board, deps.Costs, deps.MinNetProfitPercent),
		slots:    NewSlotEngine(deps.Ledger, deps.Costs, deps.MinProfitToNotifyPercent, deps.Cooldown),
		fmt:      NewFormatter(deps.MaxPairings),
		skips:    make(map[model.SkipReason]int),
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	merged := make(chan port.Tick, 1024)

	for _, feed := range s.deps.Feeds {
		ch, err := feed.Subscribe(ctx, s.deps.Instruments)
		if err != nil {
			// poison the group so feeds already started are cancelled
			// and waited out before Run returns
			subErr := err
			g.Go(func() error { return subErr })
			_ = g.Wait()
			return subErr
		}
		in := ch
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case t, ok := <-in:
					if !ok {
						return nil
					}
					select {
					case merged <- t:
					case <-ctx.Done():
						return ctx.Err()
					}
				}
			}
		})
		log.Info().Str("feed", feed.Name()).Int("instruments", len(s.deps.Instruments)).Msg("feed started")
	}

	g.Go(func() error {
		return s.dispatch(ctx, merged)
	})

	return g.Wait()
}

func (s *Service) dispatch(ctx context.Context, merged <-chan port.Tick) error {
	summary := time.NewTicker(s.deps.SummaryEvery)
	defer summary.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = s.deps.Sink.NewLine()
			return ctx.Err()

		case now := <-summary.C:
			s.onSummary(ctx, now)

		case t := <-merged:
			s.onTick(ctx, t)
		}
	}
}

func (s *Service) onTick(ctx context.Context, t port.Tick) {
	if !s.board.Apply(t) {
		return
	}

	if p, ok := s.board.Get(t.Venue, t.Instrument); ok {
		if err := s.deps.Repo.UpsertLatestPrice(ctx, p); err != nil {
			log.Debug().Err(err).Msg("latest price persist failed")
		}
	}

	opp, ok := s.detector.Evaluate(t)
	if !ok {
		return
	}
	if err := s.deps.Repo.InsertOpportunity(ctx, opp); err != nil {
		log.Debug().Err(err).Msg("opportunity persist failed")
	}

	decision, err := s.slots.Decide(ctx, opp)
	if err != nil {
		log.Error().Err(err).Str("instrument", opp.Instrument).Msg("slot decision failed")
		return
	}

	switch decision.Outcome {
	case OutcomeOpened:
		log.Info().Str("instrument", opp.Instrument).Str("pairing", decision.OpenedID).
			Str("buy", opp.BuyVenue).Str("sell", opp.SellVenue).
			Float64("net_pct", opp.NetProfitPercent).Msg("pairing opened")

	case OutcomeReplaced:
		log.Info().Str("instrument", opp.Instrument).
			Str("closed", decision.ClosedID).Str("opened", decision.OpenedID).
			Float64("net_pct", opp.NetProfitPercent).Msg("pairing replaced")

	case OutcomeSkipped:
		s.skips[decision.Skip.Reason]++
		if err := s.deps.Repo.InsertSkip(ctx, *decision.Skip); err != nil {
			log.Debug().Err(err).Msg("skip persist failed")
		}
		log.Info().Str("instrument", opp.Instrument).Str("reason", string(decision.Skip.Reason)).
			Float64("net_pct", opp.NetProfitPercent).
			Float64("blocker_pct", decision.Skip.BlockerProfitPercent).Msg("opportunity skipped")
	}
}

func (s *Service) onSummary(ctx context.Context, now time.Time) {
	if exp, ok := s.deps.Ledger.(pairingExpirer); ok {
		for _, closed := range exp.ExpireDue(ctx, now) {
			s.slots.NoteClosed(closed.Instrument, now)
			log.Warn().Str("instrument", closed.Instrument).Str("pairing", closed.ID).
				Msg("pairing timed out, closed")
		}
	}

	stats := make(map[string]health.Stats, len(s.deps.Feeds))
	for _, f := range s.deps.Feeds {
		stats[f.Name()] = s.deps.Health.Stats(f.Name())
	}

	line := s.fmt.Render(s.deps.Ledger.OpenPairings(), s.skips, stats)
	_ = s.deps.Sink.WriteSummary(now, line)
}
