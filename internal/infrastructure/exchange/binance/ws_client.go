package binance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"duoarb/internal/application/port"
	"duoarb/internal/domain/model"
	"duoarb/internal/infrastructure/exchange"
)

// TickerFeed streams USDT-margined perpetual tickers over the combined
// stream endpoint. Binance pushes server pings; the shared read loop answers
// them, and the feed also sends control pings on a fixed cadence.
type TickerFeed struct {
	wsURL  string // e.g. wss://fstream.binance.com
	conv   exchange.SymbolConverter
	runner *exchange.Runner

	mu      sync.Mutex
	out     chan port.Tick
	running bool
}

func NewTickerFeed(wsURL string, conv exchange.SymbolConverter, reconnectDelay time.Duration, health port.HealthRecorder) *TickerFeed {
	return &TickerFeed{
		wsURL: strings.TrimSpace(wsURL),
		conv:  conv,
		runner: &exchange.Runner{
			Venue:  model.VenueBinance,
			Delay:  reconnectDelay,
			Health: health,
		},
	}
}

func (f *TickerFeed) Name() string { return model.VenueBinance }

type binanceCombined struct {
	Stream string           `json:"stream"`
	Data   binanceTickerMsg `json:"data"`
}

type binanceTickerMsg struct {
	Symbol string `json:"s"`
	Last   string `json:"c"`
	Bid    string `json:"b"`
	Ask    string `json:"a"`
}

// Subscribe is idempotent: a second call while the stream is running returns
// the existing channel.
func (f *TickerFeed) Subscribe(ctx context.Context, coins []string) (<-chan port.Tick, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.running {
		log.Warn().Str("feed", f.Name()).Msg("subscribe called while already connected, ignoring")
		return f.out, nil
	}

	symbols := make([]string, 0, len(coins))
	for _, coin := range coins {
		if sym := f.conv.Coin2Symbol(coin); sym != "" {
			symbols = append(symbols, sym)
		}
	}

	wsURL, err := buildCombinedURL(f.wsURL, symbols)
	if err != nil {
		return nil, err
	}

	out := make(chan port.Tick, 1024)
	f.out = out
	f.running = true

	go func() {
		defer close(out)
		f.runner.Run(ctx, func(ctx context.Context, up func()) error {
			return f.session(ctx, wsURL, out, up)
		})
	}()
	return out, nil
}

func buildCombinedURL(base string, symbols []string) (string, error) {
	if base == "" {
		return "", errors.New("binance ws_url empty")
	}
	if len(symbols) == 0 {
		return "", errors.New("symbols empty")
	}

	streams := make([]string, 0, len(symbols))
	for _, s := range symbols {
		streams = append(streams, fmt.Sprintf("%s@ticker", strings.ToLower(s)))
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	u.Path = "/stream"
	u.RawQuery = "streams=" + strings.Join(streams, "/")
	return u.String(), nil
}

func (f *TickerFeed) session(ctx context.Context, wsURL string, out chan<- port.Tick, up func()) error {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.DefaultDialer.DialContext(cctx, wsURL, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// combined URL carries the subscriptions, the stream is live on dial
	up()

	return exchange.ReadLoop(ctx.Done(), conn, exchange.ControlPing, func(b []byte) {
		var msg binanceCombined
		if e := json.Unmarshal(b, &msg); e != nil {
			log.Error().Str("feed", f.Name()).Err(e).Msg("tick unmarshal failed, dropped")
			return
		}
		f.emit(ctx, out, msg.Data)
	})
}

func (f *TickerFeed) emit(ctx context.Context, out chan<- port.Tick, d binanceTickerMsg) {
	coin := f.conv.Symbol2Coin(d.Symbol)
	if coin == "" {
		return
	}
	bid, err1 := strconv.ParseFloat(strings.TrimSpace(d.Bid), 64)
	ask, err2 := strconv.ParseFloat(strings.TrimSpace(d.Ask), 64)
	if err1 != nil || err2 != nil || bid <= 0 || ask <= 0 {
		return
	}
	last, _ := strconv.ParseFloat(strings.TrimSpace(d.Last), 64)

	t := port.Tick{
		Venue:      f.Name(),
		Instrument: coin,
		Bid:        bid,
		Ask:        ask,
		Last:       last,
		Ts:         time.Now().UnixMilli(),
	}
	// never park on a full channel past shutdown
	select {
	case out <- t:
	case <-ctx.Done():
	}
}
