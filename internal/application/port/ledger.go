package port

import (
	"context"

	"duoarb/internal/domain/model"
)

// Ledger owns open-pairing state. The engine never mutates pairings
// directly; it requests opens/closes and reads the current book.
type Ledger interface {
	// OpenPairing enters a long/short pairing from the opportunity and
	// returns its id. Fails if the instrument already has an open pairing
	// or no slot is free.
	OpenPairing(ctx context.Context, opp model.Opportunity) (string, error)

	// ClosePairing exits the pairing at the given prices.
	ClosePairing(ctx context.Context, id string, exitBuy, exitSell float64, reason model.CloseReason) error

	// OpenPairings returns the current book in the ledger's natural order.
	OpenPairings() []*model.OpenPairing

	// HasOpenPairing reports whether the instrument is already entered.
	HasOpenPairing(instrument string) bool

	// CanOpenNew reports whether a free capital slot exists.
	CanOpenNew() bool

	// PriceFor answers the current market prices used to re-evaluate an
	// open pairing: the price to buy back the short leg and the price the
	// long leg would sell at. ok is false when no quote is available.
	PriceFor(instrument string) (buy, sell float64, ok bool)
}
