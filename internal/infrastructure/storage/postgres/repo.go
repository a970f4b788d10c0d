package postgres

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"

	"duoarb/internal/application/port"
	"duoarb/internal/domain/model"
)

// Repo keeps the long-lived audit subset in Postgres: skips, downtime and
// closed pairings. High-rate latest prices stay local.
type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS skipped_opportunities (
  id BIGSERIAL PRIMARY KEY,
  instrument TEXT NOT NULL,
  reason TEXT NOT NULL,
  net_profit_pct DOUBLE PRECISION NOT NULL,
  blocker_profit_pct DOUBLE PRECISION NOT NULL,
  ts_ms BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_skips_ts ON skipped_opportunities(ts_ms);

CREATE TABLE IF NOT EXISTS downtimes (
  id BIGSERIAL PRIMARY KEY,
  venue TEXT NOT NULL,
  disconnected_at BIGINT NOT NULL,
  reconnected_at BIGINT NOT NULL,
  duration_ms BIGINT NOT NULL,
  reason TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_downtimes_venue ON downtimes(venue);

CREATE TABLE IF NOT EXISTS closed_pairings (
  id TEXT PRIMARY KEY,
  instrument TEXT NOT NULL,
  long_venue TEXT NOT NULL,
  short_venue TEXT NOT NULL,
  entry_spread_pct DOUBLE PRECISION NOT NULL,
  reason TEXT NOT NULL,
  opened_at BIGINT NOT NULL,
  closed_at BIGINT NOT NULL
);
`)
	return err
}

func (r *Repo) UpsertLatestPrice(ctx context.Context, p model.InstrumentPrice) error {
	return nil
}

func (r *Repo) InsertOpportunity(ctx context.Context, opp model.Opportunity) error {
	return nil
}

func (r *Repo) InsertSkip(ctx context.Context, skip model.SkippedOpportunity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO skipped_opportunities(instrument, reason, net_profit_pct, blocker_profit_pct, ts_ms)
		VALUES($1, $2, $3, $4, $5)
	`, skip.Opportunity.Instrument, string(skip.Reason), skip.Opportunity.NetProfitPercent,
		skip.BlockerProfitPercent, skip.DetectedAt)
	return err
}

func (r *Repo) InsertDowntime(ctx context.Context, d model.Downtime) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO downtimes(venue, disconnected_at, reconnected_at, duration_ms, reason)
		VALUES($1, $2, $3, $4, $5)
	`, d.Venue, d.DisconnectedAt.UnixMilli(), d.ReconnectedAt.UnixMilli(), d.Duration().Milliseconds(), d.Reason)
	return err
}

func (r *Repo) InsertClosedPairing(ctx context.Context, p model.ClosedPairing) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO closed_pairings(id, instrument, long_venue, short_venue, entry_spread_pct, reason, opened_at, closed_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, p.ID, p.Instrument, p.LongVenue, p.ShortVenue, p.EntrySpreadPercent, string(p.Reason), p.OpenedAt, p.ClosedAt)
	return err
}

var _ port.Repository = (*Repo)(nil)
