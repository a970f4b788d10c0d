package bybit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
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

// v5 allows at most 10 topics per subscribe request.
const subscribeBatchSize = 10

// TickerFeed streams linear perpetual tickers. Bybit expects a client-side
// JSON ping; ticker frames after the first are deltas that may omit fields,
// so the feed folds each frame over the last full quote per symbol.
type TickerFeed struct {
	wsURL  string // e.g. wss://stream.bybit.com/v5/public/linear
	conv   exchange.SymbolConverter
	runner *exchange.Runner

	mu      sync.Mutex
	out     chan port.Tick
	running bool

	quotes map[string]quote // native symbol -> last merged quote
}

type quote struct {
	bid, ask, last float64
}

func NewTickerFeed(wsURL string, conv exchange.SymbolConverter, reconnectDelay time.Duration, health port.HealthRecorder) *TickerFeed {
	return &TickerFeed{
		wsURL: strings.TrimSpace(wsURL),
		conv:  conv,
		runner: &exchange.Runner{
			Venue:  model.VenueBybit,
			Delay:  reconnectDelay,
			Health: health,
		},
		quotes: make(map[string]quote),
	}
}

func (f *TickerFeed) Name() string { return model.VenueBybit }

type bybitSubReq struct {
	Op   string   `json:"op"`
	Args []string `json:"args"`
}

type bybitTickerData struct {
	Symbol    string `json:"symbol"`
	LastPrice string `json:"lastPrice"`
	Bid1Price string `json:"bid1Price"`
	Ask1Price string `json:"ask1Price"`
}

type bybitTickerMsg struct {
	Topic string          `json:"topic"`
	Type  string          `json:"type"`
	Data  bybitTickerData `json:"data"`

	Success *bool  `json:"success,omitempty"`
	RetMsg  string `json:"ret_msg,omitempty"`
	Op      string `json:"op,omitempty"`
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
	if f.wsURL == "" {
		return nil, errors.New("bybit ws_url empty")
	}

	topics := make([]string, 0, len(coins))
	for _, coin := range coins {
		if sym := f.conv.Coin2Symbol(coin); sym != "" {
			topics = append(topics, "tickers."+sym)
		}
	}
	if len(topics) == 0 {
		return nil, errors.New("no valid symbols for bybit topics")
	}

	out := make(chan port.Tick, 1024)
	f.out = out
	f.running = true

	go func() {
		defer close(out)
		f.runner.Run(ctx, func(ctx context.Context, up func()) error {
			return f.session(ctx, topics, out, up)
		})
	}()
	return out, nil
}

func (f *TickerFeed) session(ctx context.Context, topics []string, out chan<- port.Tick, up func()) error {
	cctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.DefaultDialer.DialContext(cctx, f.wsURL, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	// subscribe in bursts the venue accepts
	for start := 0; start < len(topics); start += subscribeBatchSize {
		end := start + subscribeBatchSize
		if end > len(topics) {
			end = len(topics)
		}
		if err := conn.WriteJSON(bybitSubReq{Op: "subscribe", Args: topics[start:end]}); err != nil {
			return fmt.Errorf("subscribe: %w", err)
		}
	}
	up()

	ping := exchange.JSONPing(map[string]string{"op": "ping"})
	return exchange.ReadLoop(ctx.Done(), conn, ping, func(b []byte) {
		var msg bybitTickerMsg
		if e := json.Unmarshal(b, &msg); e != nil {
			log.Error().Str("feed", f.Name()).Err(e).Msg("tick unmarshal failed, dropped")
			return
		}

		// op acks (subscribe, pong)
		if msg.Success != nil {
			if !*msg.Success {
				log.Error().Str("feed", f.Name()).Str("ret_msg", msg.RetMsg).Msg("subscribe not success")
			}
			return
		}
		if msg.Data.Symbol == "" {
			return
		}
		f.emit(ctx, out, msg.Data)
	})
}

func (f *TickerFeed) emit(ctx context.Context, out chan<- port.Tick, d bybitTickerData) {
	sym := strings.ToUpper(strings.TrimSpace(d.Symbol))
	coin := f.conv.Symbol2Coin(sym)
	if coin == "" {
		return
	}

	f.mu.Lock()
	q := f.quotes[sym]
	if v, err := strconv.ParseFloat(strings.TrimSpace(d.Bid1Price), 64); err == nil && v > 0 {
		q.bid = v
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(d.Ask1Price), 64); err == nil && v > 0 {
		q.ask = v
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(d.LastPrice), 64); err == nil && v > 0 {
		q.last = v
	}
	f.quotes[sym] = q
	f.mu.Unlock()

	if q.bid <= 0 || q.ask <= 0 {
		// delta arrived before the first full snapshot
		return
	}

	t := port.Tick{
		Venue:      f.Name(),
		Instrument: coin,
		Bid:        q.bid,
		Ask:        q.ask,
		Last:       q.last,
		Ts:         time.Now().UnixMilli(),
	}
	// never park on a full channel past shutdown
	select {
	case out <- t:
	case <-ctx.Done():
	}
}
