package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"duoarb/internal/application/usecase/engine"
	"duoarb/internal/domain/model"
	"duoarb/internal/infrastructure/config"
	"duoarb/internal/infrastructure/ledger"
	"duoarb/internal/infrastructure/logger"
	"duoarb/internal/infrastructure/svc"
	"duoarb/internal/interfaces/console"
)

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Setup("info")
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}
	logger.Setup(cfg.App.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := svc.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("service context init failed")
	}
	defer sc.Close()

	// both venues must be reachable before streaming starts
	checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	err = sc.CheckVenues(checkCtx)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("venue health check failed, refusing to start")
	}

	instruments, err := sc.ResolveInstruments(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("instrument discovery failed")
	}

	board := engine.NewBoard(model.VenueBinance, model.VenueBybit, instruments)
	paper := ledger.NewPaper(
		cfg.Arbitrage.MaxPairings,
		time.Duration(cfg.Arbitrage.PositionTimeoutMin)*time.Minute,
		board,
		sc.Repo,
	)

	service, err := engine.NewService(engine.ServiceDeps{
		Feeds:       sc.Feeds,
		Instruments: instruments,
		Board:       board,
		Ledger:      paper,
		Repo:        sc.Repo,
		Health:      sc.Health,
		Sink:        console.NewSink(),
		Costs: engine.CostModel{
			TakerFeePercent: map[string]float64{
				model.VenueBinance: cfg.Exchange.Binance.TakerFeePercent,
				model.VenueBybit:   cfg.Exchange.Bybit.TakerFeePercent,
			},
			SlippagePercent: cfg.Arbitrage.SlippagePercent,
		},
		MinNetProfitPercent:      cfg.Arbitrage.MinNetProfitPercent,
		MinProfitToNotifyPercent: cfg.Arbitrage.MinProfitToNotifyPercent,
		MaxPairings:              cfg.Arbitrage.MaxPairings,
		SummaryEvery:             time.Duration(cfg.App.SummaryEveryMin) * time.Minute,
		Cooldown: engine.NewCooldown(
			time.Duration(cfg.Arbitrage.CooldownSec)*time.Second,
			cfg.Arbitrage.MaxStrikes,
		),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("engine init failed")
	}

	log.Info().
		Str("config", *configPath).
		Int("instruments", len(instruments)).
		Int("max_pairings", cfg.Arbitrage.MaxPairings).
		Float64("min_net_pct", cfg.Arbitrage.MinNetProfitPercent).
		Msg("duoarb started")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("engine exited")
	}
	log.Warn().Msg("exit")
}
