package bybit

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

// RestClient covers the unauthenticated v5 market endpoints the engine
// needs: reachability check and turnover-ranked instrument discovery.
type RestClient struct {
	baseURL string
	conv    exchange.SymbolConverter
	client  *http.Client
}

func NewRestClient(baseURL string, conv exchange.SymbolConverter) *RestClient {
	if baseURL == "" {
		baseURL = "https://api.bybit.com"
	}
	return &RestClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		conv:    conv,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Ping checks venue reachability via the server-time endpoint.
func (c *RestClient) Ping(ctx context.Context) error {
	_, err := c.get(ctx, "/v5/market/time")
	return err
}

type tickersResp struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []struct {
			Symbol      string `json:"symbol"`
			Turnover24h string `json:"turnover24h"`
		} `json:"list"`
	} `json:"result"`
}

// TopInstruments returns the n canonical coins with the highest 24h turnover
// among the tracked quote currency's linear perpetuals.
func (c *RestClient) TopInstruments(ctx context.Context, n int) ([]string, error) {
	body, err := c.get(ctx, "/v5/market/tickers?category=linear")
	if err != nil {
		return nil, err
	}

	var resp tickersResp
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("bybit tickers decode: %w", err)
	}
	if resp.RetCode != 0 {
		return nil, fmt.Errorf("%w: bybit tickers: retCode %d: %s", exchange.ErrVenueUnavailable, resp.RetCode, resp.RetMsg)
	}

	type ranked struct {
		coin     string
		turnover float64
	}
	out := make([]ranked, 0, len(resp.Result.List))
	suffix := c.conv.SymbolSuffix()
	for _, t := range resp.Result.List {
		if !strings.HasSuffix(t.Symbol, suffix) {
			continue
		}
		v, err := strconv.ParseFloat(t.Turnover24h, 64)
		if err != nil || v <= 0 {
			continue
		}
		out = append(out, ranked{coin: c.conv.Symbol2Coin(t.Symbol), turnover: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].turnover > out[j].turnover })

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
		return nil, fmt.Errorf("%w: bybit %s: %v", exchange.ErrVenueUnavailable, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: bybit %s: %v", exchange.ErrVenueUnavailable, path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: bybit %s: http %d: %s", exchange.ErrVenueUnavailable, path, resp.StatusCode, string(body))
	}
	return body, nil
}
