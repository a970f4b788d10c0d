package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"duoarb/internal/infrastructure/exchange"
)

func TestTickerFeedStopsCleanlyWhileUndrained(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		frame := []byte(`{"stream":"btcusdt@ticker","data":{"s":"BTCUSDT","c":"43000.5","b":"43000","a":"43001"}}`)
		for {
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	feed := NewTickerFeed(wsURL, exchange.NewSuffixConverter("USDT"), 50*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	out, err := feed.Subscribe(ctx, []string{"BTC"})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	// one tick proves the stream is live, then stop draining
	select {
	case tk := <-out:
		if tk.Instrument != "BTC" || tk.Bid != 43000 || tk.Ask != 43001 {
			t.Errorf("unexpected tick: %+v", tk)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no tick received")
	}

	// the server floods until the channel buffer fills and the reader parks
	time.Sleep(150 * time.Millisecond)
	cancel()

	// the channel must close without anything still sending into it
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-out:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("feed channel did not close after cancel")
		}
	}
}
