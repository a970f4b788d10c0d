package model

// Venue identifiers as carried on ticks and pairings.
const (
	VenueBinance = "BINANCE"
	VenueBybit   = "BYBIT"
)

// InstrumentPrice is the latest observed top-of-book for one instrument on
// one venue. It is superseded by the next tick for the same (venue,
// instrument) pair, never merged and never kept as a series.
type InstrumentPrice struct {
	Venue      string  `json:"venue"`
	Instrument string  `json:"instrument"` // canonical coin, e.g. "BTC"
	Bid        float64 `json:"bid"`
	Ask        float64 `json:"ask"`
	Last       float64 `json:"last"`
	ObservedAt int64   `json:"ts_ms"`
}

// Opportunity is a cost-adjusted cross-venue arbitrage candidate. Immutable
// once built; it either turns into a ledger effect or a SkippedOpportunity.
type Opportunity struct {
	Instrument         string  `json:"instrument"`
	BuyVenue           string  `json:"buy_venue"`
	SellVenue          string  `json:"sell_venue"`
	BuyPrice           float64 `json:"buy_price"`
	SellPrice          float64 `json:"sell_price"`
	GrossSpreadPercent float64 `json:"gross_spread_percent"`
	NetProfitPercent   float64 `json:"net_profit_percent"`
	DetectedAt         int64   `json:"ts_ms"`
}

// SkipReason classifies why a considered opportunity was not acted on.
type SkipReason string

const (
	SkipNoFreeSlots           SkipReason = "NO_FREE_SLOTS"
	SkipPositionNotProfitable SkipReason = "POSITION_NOT_PROFITABLE"
	SkipInstrumentOnCooldown  SkipReason = "INSTRUMENT_ON_COOLDOWN"
	SkipInstrumentExcluded    SkipReason = "INSTRUMENT_EXCLUDED"
)

// SkippedOpportunity is the append-only record of a rejected trading
// decision. BlockerProfitPercent carries the current profit of the pairing
// that blocked a replacement (zero when not applicable).
type SkippedOpportunity struct {
	Opportunity          Opportunity `json:"opportunity"`
	Reason               SkipReason  `json:"reason"`
	BlockerProfitPercent float64     `json:"blocker_profit_percent,omitempty"`
	DetectedAt           int64       `json:"ts_ms"`
}
