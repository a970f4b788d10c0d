package model

// OpenPairing is one unit of deployed capital: a long on the cheap venue and
// a short on the expensive one, for the same instrument. Owned by the
// ledger; the engine only reads it. At most one open pairing exists per
// instrument at any time.
type OpenPairing struct {
	ID                 string  `json:"id"`
	Instrument         string  `json:"instrument"`
	LongVenue          string  `json:"long_venue"`  // bought here
	ShortVenue         string  `json:"short_venue"` // sold here
	LongEntryPrice     float64 `json:"long_entry_price"`
	ShortEntryPrice    float64 `json:"short_entry_price"`
	EntrySpreadPercent float64 `json:"entry_spread_percent"`
	OpenedAt           int64   `json:"opened_at"`
	TimeoutAt          int64   `json:"timeout_at"`
}

// CloseReason records why a pairing left the book.
type CloseReason string

const (
	CloseConverged CloseReason = "converged"
	CloseReplaced  CloseReason = "replaced"
	CloseTimeout   CloseReason = "timeout"
	CloseManual    CloseReason = "manual"
)

// ClosedPairing is the archived form of a pairing, kept for reporting only.
type ClosedPairing struct {
	OpenPairing
	ExitBuyPrice  float64     `json:"exit_buy_price"`
	ExitSellPrice float64     `json:"exit_sell_price"`
	Reason        CloseReason `json:"reason"`
	ClosedAt      int64       `json:"closed_at"`
}
