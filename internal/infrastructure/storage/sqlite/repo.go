package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"duoarb/internal/application/port"
	"duoarb/internal/domain/model"
)

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) GetDB() *sql.DB { return r.db }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS latest_prices (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  venue TEXT NOT NULL,
  instrument TEXT NOT NULL,
  bid REAL NOT NULL,
  ask REAL NOT NULL,
  last REAL NOT NULL,
  ts_ms INTEGER NOT NULL,
  UNIQUE(venue, instrument)
);
CREATE INDEX IF NOT EXISTS idx_latest_instrument ON latest_prices(instrument);

CREATE TABLE IF NOT EXISTS opportunities (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  instrument TEXT NOT NULL,
  buy_venue TEXT NOT NULL,
  sell_venue TEXT NOT NULL,
  buy_price REAL NOT NULL,
  sell_price REAL NOT NULL,
  gross_spread_pct REAL NOT NULL,
  net_profit_pct REAL NOT NULL,
  ts_ms INTEGER NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_opps_instrument ON opportunities(instrument);
CREATE INDEX IF NOT EXISTS idx_opps_ts ON opportunities(ts_ms);

CREATE TABLE IF NOT EXISTS skipped_opportunities (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  instrument TEXT NOT NULL,
  buy_venue TEXT NOT NULL,
  sell_venue TEXT NOT NULL,
  net_profit_pct REAL NOT NULL,
  reason TEXT NOT NULL,
  blocker_profit_pct REAL NOT NULL,
  ts_ms INTEGER NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_skips_instrument ON skipped_opportunities(instrument);
CREATE INDEX IF NOT EXISTS idx_skips_reason ON skipped_opportunities(reason);
CREATE INDEX IF NOT EXISTS idx_skips_ts ON skipped_opportunities(ts_ms);

CREATE TABLE IF NOT EXISTS downtimes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  venue TEXT NOT NULL,
  disconnected_at INTEGER NOT NULL,
  reconnected_at INTEGER NOT NULL,
  duration_ms INTEGER NOT NULL,
  reason TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_downtimes_venue ON downtimes(venue);

CREATE TABLE IF NOT EXISTS closed_pairings (
  id TEXT PRIMARY KEY,
  instrument TEXT NOT NULL,
  long_venue TEXT NOT NULL,
  short_venue TEXT NOT NULL,
  long_entry_price REAL NOT NULL,
  short_entry_price REAL NOT NULL,
  entry_spread_pct REAL NOT NULL,
  exit_buy_price REAL NOT NULL,
  exit_sell_price REAL NOT NULL,
  reason TEXT NOT NULL,
  opened_at INTEGER NOT NULL,
  closed_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pairings_instrument ON closed_pairings(instrument);
CREATE INDEX IF NOT EXISTS idx_pairings_closed ON closed_pairings(closed_at);
`)
	return err
}

func (r *Repo) UpsertLatestPrice(ctx context.Context, p model.InstrumentPrice) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO latest_prices(venue, instrument, bid, ask, last, ts_ms)
		VALUES(?, ?, ?, ?, ?, ?)
		ON CONFLICT(venue, instrument) DO UPDATE SET
		bid=excluded.bid, ask=excluded.ask, last=excluded.last, ts_ms=excluded.ts_ms
	`, p.Venue, p.Instrument, p.Bid, p.Ask, p.Last, p.ObservedAt)
	return err
}

func (r *Repo) InsertOpportunity(ctx context.Context, opp model.Opportunity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO opportunities(instrument, buy_venue, sell_venue, buy_price, sell_price, gross_spread_pct, net_profit_pct, ts_ms, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, opp.Instrument, opp.BuyVenue, opp.SellVenue, opp.BuyPrice, opp.SellPrice,
		opp.GrossSpreadPercent, opp.NetProfitPercent, opp.DetectedAt, time.Now().UnixMilli())
	return err
}

func (r *Repo) InsertSkip(ctx context.Context, skip model.SkippedOpportunity) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO skipped_opportunities(instrument, buy_venue, sell_venue, net_profit_pct, reason, blocker_profit_pct, ts_ms, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?)
	`, skip.Opportunity.Instrument, skip.Opportunity.BuyVenue, skip.Opportunity.SellVenue,
		skip.Opportunity.NetProfitPercent, string(skip.Reason), skip.BlockerProfitPercent,
		skip.DetectedAt, time.Now().UnixMilli())
	return err
}

func (r *Repo) InsertDowntime(ctx context.Context, d model.Downtime) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO downtimes(venue, disconnected_at, reconnected_at, duration_ms, reason, created_at)
		VALUES(?, ?, ?, ?, ?, ?)
	`, d.Venue, d.DisconnectedAt.UnixMilli(), d.ReconnectedAt.UnixMilli(),
		d.Duration().Milliseconds(), d.Reason, time.Now().UnixMilli())
	return err
}

func (r *Repo) InsertClosedPairing(ctx context.Context, p model.ClosedPairing) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO closed_pairings(id, instrument, long_venue, short_venue, long_entry_price, short_entry_price, entry_spread_pct, exit_buy_price, exit_sell_price, reason, opened_at, closed_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Instrument, p.LongVenue, p.ShortVenue, p.LongEntryPrice, p.ShortEntryPrice,
		p.EntrySpreadPercent, p.ExitBuyPrice, p.ExitSellPrice, string(p.Reason), p.OpenedAt, p.ClosedAt)
	return err
}

var _ port.Repository = (*Repo)(nil)
