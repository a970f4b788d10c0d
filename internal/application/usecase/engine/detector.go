package engine

import (
	"duoarb/internal/application/port"
	"duoarb/internal/domain/model"
)

// Detector turns a price tick into an opportunity, or nothing. It is a pure
// function of the two cached prices for the same instrument: no state of its
// own, called to completion for every tick in arrival order.
type Detector struct {
	board         *Board
	costs         CostModel
	minNetPercent float64 // below this the tick is silently ignored
}

func NewDetector(board *Board, costs CostModel, minNetPercent float64) *Detector {
	return &Detector{board: board, costs: costs, minNetPercent: minNetPercent}
}

// Evaluate inspects the tick against the counterpart venue's latest cached
// price. ok is false when no opportunity clears the threshold: missing
// counterpart and sub-threshold profit are both routine, silent outcomes.
func (d *Detector) Evaluate(t port.Tick) (model.Opportunity, bool) {
	other, found := d.board.Get(d.board.Counterpart(t.Venue), t.Instrument)
	if !found {
		return model.Opportunity{}, false
	}

	// direction: whichever ask undercuts the other's bid
	var buyVenue, sellVenue string
	var buyPrice, sellPrice float64
	switch {
	case t.Ask < other.Bid:
		buyVenue, buyPrice = t.Venue, t.Ask
		sellVenue, sellPrice = other.Venue, other.Bid
	case other.Ask < t.Bid:
		buyVenue, buyPrice = other.Venue, other.Ask
		sellVenue, sellPrice = t.Venue, t.Bid
	default:
		return model.Opportunity{}, false
	}

	net := d.costs.NetProfitPercent(buyVenue, buyPrice, sellVenue, sellPrice)
	if net < d.minNetPercent {
		return model.Opportunity{}, false
	}

	return model.Opportunity{
		Instrument:         t.Instrument,
		BuyVenue:           buyVenue,
		SellVenue:          sellVenue,
		BuyPrice:           buyPrice,
		SellPrice:          sellPrice,
		GrossSpreadPercent: GrossSpreadPercent(buyPrice, sellPrice),
		NetProfitPercent:   net,
		DetectedAt:         t.Ts,
	}, true
}
