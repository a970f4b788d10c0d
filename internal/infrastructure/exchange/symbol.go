package exchange

import "strings"

// SymbolConverter maps between a venue's native instrument symbol and the
// canonical coin used to join both price caches. The mapping must be
// bijective over the tracked universe: Coin2Symbol(Symbol2Coin(s)) == s for
// every native symbol actually subscribed.
type SymbolConverter interface {
	// Symbol2Coin converts a native symbol to the canonical coin.
	// e.g. BTCUSDT -> BTC
	Symbol2Coin(symbol string) string

	// Coin2Symbol converts a canonical coin to the native symbol.
	// e.g. BTC -> BTCUSDT
	Coin2Symbol(coin string) string

	// SymbolSuffix returns the native suffix, e.g. USDT.
	SymbolSuffix() string
}

// SuffixConverter handles venues whose native symbol is coin+quote with no
// separator (Binance and Bybit linear perpetuals both quote this way).
type SuffixConverter struct {
	suffix string
}

func NewSuffixConverter(suffix string) *SuffixConverter {
	return &SuffixConverter{suffix: strings.ToUpper(strings.TrimSpace(suffix))}
}

func (c *SuffixConverter) SymbolSuffix() string { return c.suffix }

func (c *SuffixConverter) Symbol2Coin(symbol string) string {
	sym := strings.ToUpper(strings.TrimSpace(symbol))
	if sym == "" {
		return ""
	}
	return strings.TrimSuffix(sym, c.suffix)
}

func (c *SuffixConverter) Coin2Symbol(coin string) string {
	coin = strings.ToUpper(strings.TrimSpace(coin))
	if coin == "" {
		return ""
	}
	if strings.HasSuffix(coin, c.suffix) {
		return coin
	}
	return coin + c.suffix
}
