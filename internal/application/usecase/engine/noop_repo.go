package engine

import (
	"context"

	"duoarb/internal/application/port"
	"duoarb/internal/domain/model"
)

type noopRepo struct{}

// NewNoopRepo returns a Repository that drops everything, for tests and
// storage-less runs.
func NewNoopRepo() port.Repository { return &noopRepo{} }

func (n *noopRepo) UpsertLatestPrice(ctx context.Context, p model.InstrumentPrice) error { return nil }
func (n *noopRepo) InsertOpportunity(ctx context.Context, opp model.Opportunity) error   { return nil }
func (n *noopRepo) InsertSkip(ctx context.Context, skip model.SkippedOpportunity) error  { return nil }
func (n *noopRepo) InsertDowntime(ctx context.Context, d model.Downtime) error           { return nil }
func (n *noopRepo) InsertClosedPairing(ctx context.Context, p model.ClosedPairing) error { return nil }
func (n *noopRepo) Close() error                                                         { return nil }
