package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"duoarb/internal/infrastructure/exchange"
)

// RestClient covers the unauthenticated futures endpoints the engine needs:
// reachability ping and volume-ranked instrument discovery.
type RestClient struct {
	baseURL string
	conv    exchange.SymbolConverter
	client  *http.Client
}

func NewRestClient(baseURL string, conv exchange.SymbolConverter) *RestClient {
	if baseURL == "" {
		baseURL = "https://fapi.binance.com"
	}
	return &RestClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		conv:    conv,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Ping checks venue reachability. Any transport error or non-200 answer is
// wrapped as exchange.ErrVenueUnavailable.
func (c *RestClient) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "/fapi/v1/ping")
	return err
}

type ticker24h struct {
	Symbol      string `json:"symbol"`
	QuoteVolume string `json:"quoteVolume"`
}

// TopInstruments returns the n canonical coins with the highest 24h quote
// volume among the tracked quote currency's perpetuals.
func (c *RestClient) TopInstruments(ctx context.Context, n int) ([]string, error) {
	body, err := c.get(ctx, "/fapi/v1/ticker/24hr")
	if err != nil {
		return nil, err
	}

	var tickers []ticker24h
	if err := json.Unmarshal(body, &tickers); err != nil {
		return nil, fmt.Errorf("binance 24h ticker decode: %w", err)
	}

	type ranked struct {
		coin   string
		volume float64
	}
	out := make([]ranked, 0, len(tickers))
	suffix := c.conv.SymbolSuffix()
	for _, t := range tickers {
		if !strings.HasSuffix(t.Symbol, suffix) {
			continue
		}
		v, err := strconv.ParseFloat(t.QuoteVolume, 64)
		if err != nil || v <= 0 {
			continue
		}
		out = append(out, ranked{coin: c.conv.Symbol2Coin(t.Symbol), volume: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].volume > out[j].volume })

	if n > len(out) {
		n = len(out)
	}
	coins := make([]string, 0, n)
	for _, r := range out[:n] {
		coins = append(coins, r.coin)
	}
	return coins, nil
}

func (c *RestClient) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: binance %s: %v", exchange.ErrVenueUnavailable, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: binance %s: %v", exchange.ErrVenueUnavailable, path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: binance %s: http %d: %s", exchange.ErrVenueUnavailable, path, resp.StatusCode, string(body))
	}
	return body, nil
}
