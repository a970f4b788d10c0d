package composite

import (
	"context"

	"duoarb/internal/application/port"
	"duoarb/internal/domain/model"
)

// Repo fans every write out to all configured backends. The first error is
// kept, the rest still run.
type Repo struct {
	repos []port.Repository
}

func New(repos ...port.Repository) *Repo {
	out := make([]port.Repository, 0, len(repos))
	for _, r := range repos {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Repo{repos: out}
}

func (r *Repo) each(fn func(port.Repository) error) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := fn(repo); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) UpsertLatestPrice(ctx context.Context, p model.InstrumentPrice) error {
	return r.each(func(repo port.Repository) error { return repo.UpsertLatestPrice(ctx, p) })
}

func (r *Repo) InsertOpportunity(ctx context.Context, opp model.Opportunity) error {
	return r.each(func(repo port.Repository) error { return repo.InsertOpportunity(ctx, opp) })
}

func (r *Repo) InsertSkip(ctx context.Context, skip model.SkippedOpportunity) error {
	return r.each(func(repo port.Repository) error { return repo.InsertSkip(ctx, skip) })
}

func (r *Repo) InsertDowntime(ctx context.Context, d model.Downtime) error {
	return r.each(func(repo port.Repository) error { return repo.InsertDowntime(ctx, d) })
}

func (r *Repo) InsertClosedPairing(ctx context.Context, p model.ClosedPairing) error {
	return r.each(func(repo port.Repository) error { return repo.InsertClosedPairing(ctx, p) })
}

func (r *Repo) Close() error {
	return r.each(func(repo port.Repository) error { return repo.Close() })
}

var _ port.Repository = (*Repo)(nil)
