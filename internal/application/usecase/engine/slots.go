package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"duoarb/internal/application/port"
	"duoarb/internal/domain/model"
)

type Outcome int

const (
	OutcomeOpened Outcome = iota
	OutcomeReplaced
	OutcomeDuplicate
	OutcomeSkipped
)

// Decision is what the slot engine did with one opportunity.
type Decision struct {
	Outcome  Outcome
	OpenedID string
	ClosedID string
	Skip     *model.SkippedOpportunity
}

// SlotEngine decides whether an opportunity gets a capital slot. It owns no
// pairing state: slot availability and the open book are read from the
// ledger on every decision, never cached.
type SlotEngine struct {
	ledger    port.Ledger
	costs     CostModel
	minNotify float64 // a pairing below this is not yet worth giving up
	cooldown  *Cooldown
}

func NewSlotEngine(ledger port.Ledger, costs CostModel, minNotifyPercent float64, cooldown *Cooldown) *SlotEngine {
	return &SlotEngine{ledger: ledger, costs: costs, minNotify: minNotifyPercent, cooldown: cooldown}
}

// Decide runs the slot policy for one opportunity:
//
//  1. instrument already entered -> silent discard, routine behavior
//  2. cooling or banned instrument -> typed skip
//  3. free slot -> open
//  4. slots full -> first-fit replacement over the ledger's natural order;
//     a pairing is sacrificed only when its current profit clears the
//     notify threshold and the new opportunity beats it
//  5. otherwise a typed skip: POSITION_NOT_PROFITABLE when a qualified
//     pairing blocked the replacement, NO_FREE_SLOTS when nothing on the
//     book was worth giving up
func (e *SlotEngine) Decide(ctx context.Context, opp model.Opportunity) (Decision, error) {
	if e.ledger.HasOpenPairing(opp.Instrument) {
		log.Debug().Str("instrument", opp.Instrument).Msg("pairing already open, opportunity discarded")
		return Decision{Outcome: OutcomeDuplicate}, nil
	}

	now := time.UnixMilli(opp.DetectedAt)
	if ok, banned := e.cooldown.Check(opp.Instrument, now); !ok {
		reason := model.SkipInstrumentOnCooldown
		if banned {
			reason = model.SkipInstrumentExcluded
		}
		return e.skip(opp, reason, 0), nil
	}

	if e.ledger.CanOpenNew() {
		id, err := e.ledger.OpenPairing(ctx, opp)
		if err != nil {
			return Decision{}, err
		}
		return Decision{Outcome: OutcomeOpened, OpenedID: id}, nil
	}

	// slots full: look for the first pairing worth sacrificing
	var blockerProfit float64
	sawQualified := false

	for _, p := range e.ledger.OpenPairings() {
		curBuy, curSell, ok := e.ledger.PriceFor(p.Instrument)
		if !ok {
			log.Warn().Str("instrument", p.Instrument).Str("pairing", p.ID).
				Msg("no current price for open pairing, skipped this pass")
			continue
		}

		profit := e.costs.PairingProfitPercent(p, curBuy, curSell)
		if profit < e.minNotify {
			continue
		}

		if opp.NetProfitPercent > profit {
			if err := e.ledger.ClosePairing(ctx, p.ID, curBuy, curSell, model.CloseReplaced); err != nil {
				return Decision{}, err
			}
			e.cooldown.NoteClose(p.Instrument, now)
			id, err := e.ledger.OpenPairing(ctx, opp)
			if err != nil {
				return Decision{}, err
			}
			return Decision{Outcome: OutcomeReplaced, OpenedID: id, ClosedID: p.ID}, nil
		}

		if !sawQualified {
			sawQualified = true
			blockerProfit = profit
		}
	}

	if sawQualified {
		return e.skip(opp, model.SkipPositionNotProfitable, blockerProfit), nil
	}
	return e.skip(opp, model.SkipNoFreeSlots, 0), nil
}

func (e *SlotEngine) skip(opp model.Opportunity, reason model.SkipReason, blockerProfit float64) Decision {
	return Decision{
		Outcome: OutcomeSkipped,
		Skip: &model.SkippedOpportunity{
			Opportunity:          opp,
			Reason:               reason,
			BlockerProfitPercent: blockerProfit,
			DetectedAt:           opp.DetectedAt,
		},
	}
}

// NoteClosed lets external close events (timeout, manual, convergence) start
// the instrument's cooldown the same way replacements do.
func (e *SlotEngine) NoteClosed(instrument string, at time.Time) {
	e.cooldown.NoteClose(instrument, at)
}
