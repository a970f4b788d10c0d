package svc

import (
	"context"
	"fmt"
	"time"

	redisclient "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"duoarb/internal/application/port"
	"duoarb/internal/domain/model"
	"duoarb/internal/infrastructure/config"
	"duoarb/internal/infrastructure/exchange"
	"duoarb/internal/infrastructure/exchange/binance"
	"duoarb/internal/infrastructure/exchange/bybit"
	"duoarb/internal/infrastructure/health"
	compositerepo "duoarb/internal/infrastructure/storage/composite"
	postgresrepo "duoarb/internal/infrastructure/storage/postgres"
	redisrepo "duoarb/internal/infrastructure/storage/redis"
	sqliterepo "duoarb/internal/infrastructure/storage/sqlite"
)

// ServiceContext wires infrastructure once at startup: symbol converters,
// REST clients, storage backends, the health monitor, and the streaming
// feeds. The application layer takes its ports from here.
type ServiceContext struct {
	Config *config.Config

	Converter exchange.SymbolConverter
	Repo      port.Repository
	Health    *health.Monitor
	Feeds     []port.PriceFeed

	BinanceRest *binance.RestClient
	BybitRest   *bybit.RestClient

	closerChain []func() error
}

// downtimeArchiver forwards completed outage intervals to storage.
type downtimeArchiver struct {
	repo port.Repository
}

func (a *downtimeArchiver) ArchiveDowntime(d model.Downtime) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.repo.InsertDowntime(ctx, d); err != nil {
		log.Debug().Err(err).Str("venue", d.Venue).Msg("downtime persist failed")
	}
}

func New(cfg *config.Config) (*ServiceContext, error) {
	sc := &ServiceContext{Config: cfg}
	sc.Converter = exchange.NewSuffixConverter(cfg.Symbols.Quote)

	sc.BinanceRest = binance.NewRestClient(cfg.Exchange.Binance.RestURL, sc.Converter)
	sc.BybitRest = bybit.NewRestClient(cfg.Exchange.Bybit.RestURL, sc.Converter)

	if err := sc.initStorage(); err != nil {
		_ = sc.Close()
		return nil, fmt.Errorf("%w: %v", ErrStorageInitFailed, err)
	}

	sc.Health = health.NewMonitor(&downtimeArchiver{repo: sc.Repo})

	delay := time.Duration(cfg.Arbitrage.ReconnectDelaySec) * time.Second
	sc.Feeds = []port.PriceFeed{
		binance.NewTickerFeed(cfg.Exchange.Binance.WsURL, sc.Converter, delay, sc.Health),
		bybit.NewTickerFeed(cfg.Exchange.Bybit.WsURL, sc.Converter, delay, sc.Health),
	}

	return sc, nil
}

func (sc *ServiceContext) initStorage() error {
	cfg := sc.Config
	var repos []port.Repository

	sqlite, err := sqliterepo.New(cfg.Storage.SqlitePath)
	if err != nil {
		return fmt.Errorf("sqlite: %w", err)
	}
	sc.closerChain = append(sc.closerChain, sqlite.Close)
	repos = append(repos, sqlite)
	log.Info().Str("path", cfg.Storage.SqlitePath).Msg("sqlite storage ready")

	if cfg.Storage.PostgresDSN != "" {
		pg, err := postgresrepo.New(cfg.Storage.PostgresDSN)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		sc.closerChain = append(sc.closerChain, pg.Close)
		repos = append(repos, pg)
		log.Info().Msg("postgres storage ready")
	}

	if cfg.Storage.RedisAddr != "" {
		rdb := redisclient.NewClient(&redisclient.Options{
			Addr: cfg.Storage.RedisAddr,
			DB:   cfg.Storage.RedisDB,
		})
		rrepo := redisrepo.New(rdb,
			cfg.Storage.RedisPrefix,
			time.Duration(cfg.Storage.RedisTTLSec)*time.Second,
			cfg.Storage.SignalStream,
			cfg.Storage.SignalChan,
		)
		sc.closerChain = append(sc.closerChain, rrepo.Close)
		repos = append(repos, rrepo)
		log.Info().Str("addr", cfg.Storage.RedisAddr).Msg("redis storage ready")
	}

	sc.Repo = compositerepo.New(repos...)
	return nil
}

// CheckVenues pings both venue REST endpoints. Either failing means the
// process cannot safely start.
func (sc *ServiceContext) CheckVenues(ctx context.Context) error {
	if err := sc.BinanceRest.Ping(ctx); err != nil {
		return err
	}
	return sc.BybitRest.Ping(ctx)
}

// ResolveInstruments returns the tracked set: the configured list when
// given, otherwise the intersection of both venues' top-volume instruments,
// minus exclusions in either case.
func (sc *ServiceContext) ResolveInstruments(ctx context.Context) ([]string, error) {
	cfg := sc.Config

	excluded := make(map[string]struct{}, len(cfg.Symbols.Excluded))
	for _, c := range cfg.Symbols.Excluded {
		excluded[c] = struct{}{}
	}

	base := cfg.Symbols.List
	if len(base) == 0 {
		binanceTop, err := sc.BinanceRest.TopInstruments(ctx, cfg.App.TopInstruments)
		if err != nil {
			return nil, err
		}
		bybitTop, err := sc.BybitRest.TopInstruments(ctx, cfg.App.TopInstruments)
		if err != nil {
			return nil, err
		}
		onBybit := make(map[string]struct{}, len(bybitTop))
		for _, c := range bybitTop {
			onBybit[c] = struct{}{}
		}
		for _, c := range binanceTop {
			if _, ok := onBybit[c]; ok {
				base = append(base, c)
			}
		}
		log.Info().Int("binance", len(binanceTop)).Int("bybit", len(bybitTop)).
			Int("common", len(base)).Msg("instruments discovered")
	}

	out := make([]string, 0, len(base))
	for _, c := range base {
		if _, skip := excluded[c]; skip {
			log.Warn().Str("instrument", c).Msg("instrument excluded by config")
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no tradable instruments after exclusions")
	}
	return out, nil
}

// Close tears down storage in reverse init order.
func (sc *ServiceContext) Close() error {
	var firstErr error
	for i := len(sc.closerChain) - 1; i >= 0; i-- {
		if err := sc.closerChain[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
