package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
[exchange.binance]
enabled = true
ws_url = "wss://fstream.binance.com"
rest_url = "https://fapi.binance.com"

[exchange.bybit]
enabled = true
ws_url = "wss://stream.bybit.com/v5/public/linear"
rest_url = "https://api.bybit.com"
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.App.LogLevel != "info" {
		t.Errorf("default log level = %q", cfg.App.LogLevel)
	}
	if cfg.App.SummaryEveryMin != 5 {
		t.Errorf("default summary interval = %d", cfg.App.SummaryEveryMin)
	}
	if cfg.Symbols.Quote != "USDT" {
		t.Errorf("default quote = %q", cfg.Symbols.Quote)
	}
	if cfg.Arbitrage.MinNetProfitPercent != 0.2 {
		t.Errorf("default min net profit = %f", cfg.Arbitrage.MinNetProfitPercent)
	}
	if cfg.Arbitrage.MaxPairings != 3 {
		t.Errorf("default slot count = %d", cfg.Arbitrage.MaxPairings)
	}
	if cfg.Arbitrage.ReconnectDelaySec != 5 {
		t.Errorf("default reconnect delay = %d", cfg.Arbitrage.ReconnectDelaySec)
	}
	if cfg.Exchange.Binance.TakerFeePercent != 0.05 || cfg.Exchange.Bybit.TakerFeePercent != 0.055 {
		t.Errorf("default fees = %f / %f", cfg.Exchange.Binance.TakerFeePercent, cfg.Exchange.Bybit.TakerFeePercent)
	}
	if cfg.Storage.SqlitePath == "" {
		t.Error("sqlite path default missing")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
[app]
log_level = "debug"
summary_every_min = 1

[arbitrage]
min_net_profit_percent = 0.5
max_pairings = 7
`))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.App.LogLevel != "debug" || cfg.App.SummaryEveryMin != 1 {
		t.Errorf("app overrides lost: %+v", cfg.App)
	}
	if cfg.Arbitrage.MinNetProfitPercent != 0.5 || cfg.Arbitrage.MaxPairings != 7 {
		t.Errorf("arbitrage overrides lost: %+v", cfg.Arbitrage)
	}
}

func TestLoadNormalizesSymbols(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
[symbols]
list = [" btc ", "eth", "BTC", ""]
excluded = ["doge", "DOGE"]
`))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	wantList := []string{"BTC", "ETH"}
	if len(cfg.Symbols.List) != len(wantList) {
		t.Fatalf("list = %v, want %v", cfg.Symbols.List, wantList)
	}
	for i := range wantList {
		if cfg.Symbols.List[i] != wantList[i] {
			t.Errorf("list[%d] = %q, want %q", i, cfg.Symbols.List[i], wantList[i])
		}
	}
	if len(cfg.Symbols.Excluded) != 1 || cfg.Symbols.Excluded[0] != "DOGE" {
		t.Errorf("excluded = %v", cfg.Symbols.Excluded)
	}
}

func TestLoadRejectsDisabledVenue(t *testing.T) {
	_, err := Load(writeConfig(t, `
[exchange.binance]
enabled = true
ws_url = "wss://fstream.binance.com"
rest_url = "https://fapi.binance.com"

[exchange.bybit]
enabled = false
ws_url = "wss://stream.bybit.com/v5/public/linear"
rest_url = "https://api.bybit.com"
`))
	if err == nil {
		t.Fatal("a single-venue config must be rejected")
	}
}

func TestLoadRejectsMissingURL(t *testing.T) {
	_, err := Load(writeConfig(t, `
[exchange.binance]
enabled = true
ws_url = ""
rest_url = "https://fapi.binance.com"

[exchange.bybit]
enabled = true
ws_url = "wss://stream.bybit.com/v5/public/linear"
rest_url = "https://api.bybit.com"
`))
	if err == nil {
		t.Fatal("empty ws_url must be rejected")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("missing file must fail")
	}
}
