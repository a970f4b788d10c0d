package engine

import (
	"testing"

	"duoarb/internal/application/port"
	"duoarb/internal/domain/model"
)

func newTestBoard() *Board {
	return NewBoard(model.VenueBinance, model.VenueBybit, []string{"BTC", "ETH"})
}

func TestBoardApplySupersedes(t *testing.T) {
	b := newTestBoard()

	if !b.Apply(tick(model.VenueBinance, "BTC", 43000, 43001)) {
		t.Fatal("valid tick rejected")
	}
	if !b.Apply(tick(model.VenueBinance, "BTC", 43100, 43101)) {
		t.Fatal("superseding tick rejected")
	}

	p, ok := b.Get(model.VenueBinance, "BTC")
	if !ok {
		t.Fatal("price missing after apply")
	}
	if p.Bid != 43100 || p.Ask != 43101 {
		t.Errorf("latest tick must win: got bid=%f ask=%f", p.Bid, p.Ask)
	}
}

func TestBoardVenuesAreIsolated(t *testing.T) {
	b := newTestBoard()
	b.Apply(tick(model.VenueBinance, "BTC", 43000, 43001))

	if _, ok := b.Get(model.VenueBybit, "BTC"); ok {
		t.Error("tick on one venue must not appear on the other")
	}
}

func TestBoardRejectsInvalidQuotes(t *testing.T) {
	b := newTestBoard()

	if b.Apply(tick(model.VenueBinance, "BTC", 0, 43001)) {
		t.Error("zero bid must be dropped")
	}
	if b.Apply(tick(model.VenueBinance, "BTC", 43000, -1)) {
		t.Error("negative ask must be dropped")
	}
	if b.Apply(port.Tick{Venue: "OKX", Instrument: "BTC", Bid: 1, Ask: 2}) {
		t.Error("unknown venue must be dropped")
	}
	if b.Apply(tick(model.VenueBinance, "DOGE", 0.1, 0.2)) {
		t.Error("untracked instrument must be dropped")
	}
	if _, ok := b.Get(model.VenueBinance, "BTC"); ok {
		t.Error("rejected ticks must leave the cache empty")
	}
}

func TestBoardCounterpart(t *testing.T) {
	b := newTestBoard()
	if got := b.Counterpart(model.VenueBinance); got != model.VenueBybit {
		t.Errorf("counterpart of %s = %s", model.VenueBinance, got)
	}
	if got := b.Counterpart(model.VenueBybit); got != model.VenueBinance {
		t.Errorf("counterpart of %s = %s", model.VenueBybit, got)
	}
}

func TestBoardSeenCounts(t *testing.T) {
	b := newTestBoard()
	b.Apply(tick(model.VenueBinance, "BTC", 43000, 43001))
	b.Apply(tick(model.VenueBinance, "ETH", 2300, 2301))
	b.Apply(tick(model.VenueBybit, "BTC", 43000, 43001))

	seen := b.Seen()
	if seen[model.VenueBinance] != 2 || seen[model.VenueBybit] != 1 {
		t.Errorf("seen counts wrong: %v", seen)
	}
}

func TestBoardNormalizesInstrumentList(t *testing.T) {
	b := NewBoard(model.VenueBinance, model.VenueBybit, []string{" btc ", "", "ETH"})
	want := []string{"BTC", "ETH"}
	got := b.Instruments()
	if len(got) != len(want) {
		t.Fatalf("instrument list %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("instrument[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
