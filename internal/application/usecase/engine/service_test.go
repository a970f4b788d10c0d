package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"duoarb/internal/application/port"
	"duoarb/internal/domain/model"
	"duoarb/internal/infrastructure/health"
)

type scriptedFeed struct {
	name  string
	ticks []port.Tick

	mu  sync.Mutex
	out chan port.Tick
}

func (f *scriptedFeed) Name() string { return f.name }

func (f *scriptedFeed) Subscribe(ctx context.Context, coins []string) (<-chan port.Tick, error) {
	out := make(chan port.Tick, len(f.ticks)+1)
	for _, t := range f.ticks {
		out <- t
	}
	f.mu.Lock()
	f.out = out
	f.mu.Unlock()
	// channel stays open: a real feed never closes until ctx is done
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out, nil
}

func (f *scriptedFeed) channel() chan port.Tick {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.out
}

type failingFeed struct {
	name string
	err  error
}

func (f *failingFeed) Name() string { return f.name }

func (f *failingFeed) Subscribe(ctx context.Context, coins []string) (<-chan port.Tick, error) {
	return nil, f.err
}

type nullSink struct {
	mu      sync.Mutex
	summary int
}

func (s *nullSink) WriteSummary(ts time.Time, line string) error {
	s.mu.Lock()
	s.summary++
	s.mu.Unlock()
	return nil
}

func (s *nullSink) NewLine() error { return nil }

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestServiceRequiresTwoFeeds(t *testing.T) {
	_, err := NewService(ServiceDeps{
		Feeds: []port.PriceFeed{&scriptedFeed{name: model.VenueBinance}},
	})
	if err == nil {
		t.Fatal("a single feed must be rejected")
	}
}

func TestServiceCancelsFirstFeedWhenSecondSubscribeFails(t *testing.T) {
	instruments := []string{"BTC"}
	board := NewBoard(model.VenueBinance, model.VenueBybit, instruments)
	first := &scriptedFeed{name: model.VenueBinance}
	errDial := errors.New("dial refused")

	svc, err := NewService(ServiceDeps{
		Feeds: []port.PriceFeed{
			first,
			&failingFeed{name: model.VenueBybit, err: errDial},
		},
		Instruments:              instruments,
		Board:                    board,
		Ledger:                   newMockLedger(3),
		Repo:                     NewNoopRepo(),
		Health:                   health.NewMonitor(nil),
		Sink:                     &nullSink{},
		Costs:                    testCosts(),
		MinNetProfitPercent:      0.2,
		MinProfitToNotifyPercent: 0.1,
		MaxPairings:              3,
		SummaryEvery:             time.Hour,
		Cooldown:                 NewCooldown(30*time.Second, 3),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- svc.Run(context.Background()) }()

	select {
	case got := <-done:
		if got != errDial {
			t.Errorf("run returned %v, want the subscribe error", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after subscribe failure")
	}

	// the first feed's context must be cancelled, closing its channel
	waitFor(t, func() bool {
		ch := first.channel()
		if ch == nil {
			return false
		}
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, "first feed channel to close")
}

func TestServiceOpensPairingFromCrossedBooks(t *testing.T) {
	instruments := []string{"BTC"}
	board := NewBoard(model.VenueBinance, model.VenueBybit, instruments)
	ledger := newMockLedger(3)
	// expose the ledger's book through the mock's price map so the summary
	// path stays consistent with the board
	ledger.prices["BTC"] = [2]float64{43000, 43000}

	svc, err := NewService(ServiceDeps{
		Feeds: []port.PriceFeed{
			&scriptedFeed{name: model.VenueBinance, ticks: []port.Tick{
				tick(model.VenueBinance, "BTC", 43000, 43010),
			}},
			&scriptedFeed{name: model.VenueBybit, ticks: []port.Tick{
				// bybit ask far under the binance bid: crossed books
				tick(model.VenueBybit, "BTC", 42500, 42510),
			}},
		},
		Instruments:              instruments,
		Board:                    board,
		Ledger:                   ledger,
		Repo:                     NewNoopRepo(),
		Health:                   health.NewMonitor(nil),
		Sink:                     &nullSink{},
		Costs:                    testCosts(),
		MinNetProfitPercent:      0.2,
		MinProfitToNotifyPercent: 0.1,
		MaxPairings:              3,
		SummaryEvery:             time.Hour,
		Cooldown:                 NewCooldown(30*time.Second, 3),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	waitFor(t, func() bool { return ledger.HasOpenPairing("BTC") }, "a pairing to open")

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop on cancel")
	}

	if len(ledger.opened) != 1 {
		t.Fatalf("expected one open, got %d", len(ledger.opened))
	}
	opened := ledger.opened[0]
	if opened.BuyVenue != model.VenueBybit || opened.SellVenue != model.VenueBinance {
		t.Errorf("direction wrong: buy=%s sell=%s", opened.BuyVenue, opened.SellVenue)
	}
}

func TestServiceIgnoresUncrossedBooks(t *testing.T) {
	instruments := []string{"BTC"}
	board := NewBoard(model.VenueBinance, model.VenueBybit, instruments)
	ledger := newMockLedger(3)

	svc, err := NewService(ServiceDeps{
		Feeds: []port.PriceFeed{
			&scriptedFeed{name: model.VenueBinance, ticks: []port.Tick{
				tick(model.VenueBinance, "BTC", 43000, 43001),
			}},
			&scriptedFeed{name: model.VenueBybit, ticks: []port.Tick{
				tick(model.VenueBybit, "BTC", 43000, 43001),
			}},
		},
		Instruments:              instruments,
		Board:                    board,
		Ledger:                   ledger,
		Repo:                     NewNoopRepo(),
		Health:                   health.NewMonitor(nil),
		Sink:                     &nullSink{},
		Costs:                    testCosts(),
		MinNetProfitPercent:      0.2,
		MinProfitToNotifyPercent: 0.1,
		MaxPairings:              3,
		SummaryEvery:             time.Hour,
		Cooldown:                 NewCooldown(30*time.Second, 3),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	// both books seeded on both venues, nothing crossed
	waitFor(t, func() bool {
		seen := board.Seen()
		return seen[model.VenueBinance] == 1 && seen[model.VenueBybit] == 1
	}, "both venues to tick")

	cancel()
	<-done

	if len(ledger.opened) != 0 {
		t.Errorf("identical books must open nothing: %v", ledger.opened)
	}
}
