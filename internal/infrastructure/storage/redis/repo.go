package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"duoarb/internal/application/port"
	"duoarb/internal/domain/model"
)

// Repo publishes live engine state into Redis: a hash of latest prices for
// dashboards, plus a stream and a pub/sub channel carrying skip records for
// external consumers. Downtime and closed pairings stay in SQL.
type Repo struct {
	rdb        *redis.Client
	prefix     string
	ttl        time.Duration
	keyLatest  string // prefix + ":latest"
	skipStream string
	skipChan   string
}

func New(rdb *redis.Client, prefix string, ttl time.Duration, skipStream, skipChan string) *Repo {
	if strings.TrimSpace(skipStream) == "" {
		skipStream = prefix + ":skips"
	}
	if strings.TrimSpace(skipChan) == "" {
		skipChan = prefix + ":skips:pub"
	}
	return &Repo{
		rdb:        rdb,
		prefix:     prefix,
		ttl:        ttl,
		keyLatest:  prefix + ":latest",
		skipStream: skipStream,
		skipChan:   skipChan,
	}
}

func (r *Repo) UpsertLatestPrice(ctx context.Context, p model.InstrumentPrice) error {
	b, _ := json.Marshal(p)

	// Hash: field = "BINANCE:BTC" -> json
	field := fmt.Sprintf("%s:%s", p.Venue, p.Instrument)
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, r.keyLatest, field, string(b))
	if r.ttl > 0 {
		pipe.Expire(ctx, r.keyLatest, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *Repo) InsertOpportunity(ctx context.Context, opp model.Opportunity) error {
	// opportunities that get acted on show up as pairings; not mirrored here
	return nil
}

func (r *Repo) InsertSkip(ctx context.Context, skip model.SkippedOpportunity) error {
	// 1) Stream: XADD <stream> * instrument reason ...
	_, err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.skipStream,
		Values: map[string]any{
			"ts_ms":       skip.DetectedAt,
			"instrument":  skip.Opportunity.Instrument,
			"reason":      string(skip.Reason),
			"net_pct":     skip.Opportunity.NetProfitPercent,
			"blocker_pct": skip.BlockerProfitPercent,
		},
	}).Result()
	if err != nil {
		return err
	}

	// 2) PubSub: PUBLISH <channel> json
	b, _ := json.Marshal(skip)
	return r.rdb.Publish(ctx, r.skipChan, string(b)).Err()
}

func (r *Repo) InsertDowntime(ctx context.Context, d model.Downtime) error {
	return nil
}

func (r *Repo) InsertClosedPairing(ctx context.Context, p model.ClosedPairing) error {
	return nil
}

func (r *Repo) Close() error { return r.rdb.Close() }

var _ port.Repository = (*Repo)(nil)
