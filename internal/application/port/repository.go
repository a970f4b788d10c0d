package port

import (
	"context"

	"duoarb/internal/domain/model"
)

// Repository persists engine telemetry. Implementations must tolerate being
// called from the single dispatcher loop; none of these calls may block tick
// processing for long.
type Repository interface {
	// Latest top-of-book per (venue, instrument), superseding.
	UpsertLatestPrice(ctx context.Context, p model.InstrumentPrice) error

	// Emitted opportunities (accepted or not), append-only.
	InsertOpportunity(ctx context.Context, opp model.Opportunity) error

	// Skipped opportunities, append-only.
	InsertSkip(ctx context.Context, skip model.SkippedOpportunity) error

	// Completed venue downtime intervals.
	InsertDowntime(ctx context.Context, d model.Downtime) error

	// Archived pairings after close.
	InsertClosedPairing(ctx context.Context, p model.ClosedPairing) error

	Close() error
}
