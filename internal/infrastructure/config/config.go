package config

import (
	"errors"
	"strings"

	"github.com/BurntSushi/toml"
)

type VenueConfig struct {
	Enabled         bool    `toml:"enabled"`
	WsURL           string  `toml:"ws_url"`
	RestURL         string  `toml:"rest_url"`
	TakerFeePercent float64 `toml:"taker_fee_percent"`
}

type Config struct {
	App struct {
		LogLevel        string `toml:"log_level"`
		SummaryEveryMin int    `toml:"summary_every_min"`
		TopInstruments  int    `toml:"top_instruments"`
	} `toml:"app"`

	Symbols struct {
		List     []string `toml:"list"`     // canonical coins; empty = discover
		Excluded []string `toml:"excluded"` // never traded, always skipped
		Quote    string   `toml:"quote"`    // venue symbol suffix, e.g. USDT
	} `toml:"symbols"`

	Arbitrage struct {
		MinNetProfitPercent      float64 `toml:"min_net_profit_percent"`
		SlippagePercent          float64 `toml:"slippage_percent"`
		MaxPairings              int     `toml:"max_pairings"`
		MinProfitToNotifyPercent float64 `toml:"min_profit_to_notify_percent"`
		ReconnectDelaySec        int     `toml:"reconnect_delay_sec"`
		PositionTimeoutMin       int     `toml:"position_timeout_min"`
		CooldownSec              int     `toml:"cooldown_sec"`
		MaxStrikes               int     `toml:"max_strikes"`
	} `toml:"arbitrage"`

	Exchange struct {
		Binance VenueConfig `toml:"binance"`
		Bybit   VenueConfig `toml:"bybit"`
	} `toml:"exchange"`

	Storage struct {
		SqlitePath   string `toml:"sqlite_path"`
		PostgresDSN  string `toml:"postgres_dsn"`
		RedisAddr    string `toml:"redis_addr"`
		RedisDB      int    `toml:"redis_db"`
		RedisPrefix  string `toml:"redis_prefix"`
		RedisTTLSec  int    `toml:"redis_ttl_sec"`
		SignalStream string `toml:"signal_stream"`
		SignalChan   string `toml:"signal_chan"`
	} `toml:"storage"`
}

func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.LogLevel == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.App.SummaryEveryMin <= 0 {
		cfg.App.SummaryEveryMin = 5
	}
	if cfg.App.TopInstruments <= 0 {
		cfg.App.TopInstruments = 20
	}
	if cfg.Symbols.Quote == "" {
		cfg.Symbols.Quote = "USDT"
	}
	if cfg.Arbitrage.MinNetProfitPercent <= 0 {
		cfg.Arbitrage.MinNetProfitPercent = 0.2
	}
	if cfg.Arbitrage.SlippagePercent < 0 {
		cfg.Arbitrage.SlippagePercent = 0
	}
	if cfg.Arbitrage.MaxPairings <= 0 {
		cfg.Arbitrage.MaxPairings = 3
	}
	if cfg.Arbitrage.MinProfitToNotifyPercent <= 0 {
		cfg.Arbitrage.MinProfitToNotifyPercent = 0.1
	}
	if cfg.Arbitrage.ReconnectDelaySec <= 0 {
		cfg.Arbitrage.ReconnectDelaySec = 5
	}
	if cfg.Arbitrage.PositionTimeoutMin <= 0 {
		cfg.Arbitrage.PositionTimeoutMin = 60
	}
	if cfg.Arbitrage.CooldownSec <= 0 {
		cfg.Arbitrage.CooldownSec = 30
	}
	if cfg.Arbitrage.MaxStrikes <= 0 {
		cfg.Arbitrage.MaxStrikes = 5
	}
	if cfg.Exchange.Binance.TakerFeePercent <= 0 {
		cfg.Exchange.Binance.TakerFeePercent = 0.05
	}
	if cfg.Exchange.Bybit.TakerFeePercent <= 0 {
		cfg.Exchange.Bybit.TakerFeePercent = 0.055
	}
	if cfg.Storage.SqlitePath == "" {
		cfg.Storage.SqlitePath = "data/duoarb.db"
	}
	if cfg.Storage.RedisPrefix == "" {
		cfg.Storage.RedisPrefix = "duoarb"
	}
}

func validate(cfg *Config) error {
	cfg.Symbols.List = normalizeSymbols(cfg.Symbols.List)
	cfg.Symbols.Excluded = normalizeSymbols(cfg.Symbols.Excluded)

	if !cfg.Exchange.Binance.Enabled || !cfg.Exchange.Bybit.Enabled {
		return errors.New("both exchange.binance and exchange.bybit must be enabled")
	}
	if strings.TrimSpace(cfg.Exchange.Binance.WsURL) == "" {
		return errors.New("exchange.binance.ws_url is empty")
	}
	if strings.TrimSpace(cfg.Exchange.Binance.RestURL) == "" {
		return errors.New("exchange.binance.rest_url is empty")
	}
	if strings.TrimSpace(cfg.Exchange.Bybit.WsURL) == "" {
		return errors.New("exchange.bybit.ws_url is empty")
	}
	if strings.TrimSpace(cfg.Exchange.Bybit.RestURL) == "" {
		return errors.New("exchange.bybit.rest_url is empty")
	}
	return nil
}

func normalizeSymbols(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, s := range in {
		u := strings.ToUpper(strings.TrimSpace(s))
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}
