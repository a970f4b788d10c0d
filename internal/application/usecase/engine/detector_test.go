package engine

import (
	"testing"

	"duoarb/internal/application/port"
	"duoarb/internal/domain/model"
)

func tick(venue, coin string, bid, ask float64) port.Tick {
	return port.Tick{
		Venue:      venue,
		Instrument: coin,
		Bid:        bid,
		Ask:        ask,
		Last:       (bid + ask) / 2,
		Ts:         1_700_000_000_000,
	}
}

func newTestDetector(minNet float64) (*Detector, *Board) {
	board := NewBoard(model.VenueBinance, model.VenueBybit, []string{"BTC", "ETH"})
	return NewDetector(board, testCosts(), minNet), board
}

func TestDetectorNoCounterpartNoOpportunity(t *testing.T) {
	det, board := newTestDetector(0.01)

	// only one venue has ever ticked
	bt := tick(model.VenueBinance, "BTC", 43000, 43001)
	board.Apply(bt)

	if _, ok := det.Evaluate(bt); ok {
		t.Fatal("opportunity emitted with empty counterpart cache")
	}
}

func TestDetectorEmitsWhenAskUndercutsBid(t *testing.T) {
	det, board := newTestDetector(0.01)

	board.Apply(tick(model.VenueBybit, "BTC", 43500, 43501))
	bt := tick(model.VenueBinance, "BTC", 43000, 43001)
	board.Apply(bt)

	opp, ok := det.Evaluate(bt)
	if !ok {
		t.Fatal("expected an opportunity")
	}
	if opp.BuyVenue != model.VenueBinance || opp.SellVenue != model.VenueBybit {
		t.Errorf("direction wrong: buy=%s sell=%s", opp.BuyVenue, opp.SellVenue)
	}
	if opp.BuyPrice != 43001 || opp.SellPrice != 43500 {
		t.Errorf("prices wrong: buy=%f sell=%f", opp.BuyPrice, opp.SellPrice)
	}
	if opp.NetProfitPercent >= opp.GrossSpreadPercent {
		t.Errorf("net must be below gross: net=%f gross=%f", opp.NetProfitPercent, opp.GrossSpreadPercent)
	}

	t.Logf("gross=%f%% net=%f%%", opp.GrossSpreadPercent, opp.NetProfitPercent)
}

func TestDetectorReverseDirection(t *testing.T) {
	det, board := newTestDetector(0.01)

	board.Apply(tick(model.VenueBybit, "ETH", 2290, 2291))
	bt := tick(model.VenueBinance, "ETH", 2310, 2311)
	board.Apply(bt)

	opp, ok := det.Evaluate(bt)
	if !ok {
		t.Fatal("expected an opportunity")
	}
	if opp.BuyVenue != model.VenueBybit || opp.SellVenue != model.VenueBinance {
		t.Errorf("direction wrong: buy=%s sell=%s", opp.BuyVenue, opp.SellVenue)
	}
}

func TestDetectorOverlappingBooksAreSilent(t *testing.T) {
	det, board := newTestDetector(0.01)

	// neither ask undercuts the other's bid
	board.Apply(tick(model.VenueBybit, "BTC", 43000, 43002))
	bt := tick(model.VenueBinance, "BTC", 43001, 43003)
	board.Apply(bt)

	if _, ok := det.Evaluate(bt); ok {
		t.Fatal("opportunity emitted without raw arbitrage")
	}
}

func TestDetectorSubThresholdIsSilent(t *testing.T) {
	// spread exists but net profit cannot clear a huge threshold
	det, board := newTestDetector(50)

	board.Apply(tick(model.VenueBybit, "BTC", 43500, 43501))
	bt := tick(model.VenueBinance, "BTC", 43000, 43001)
	board.Apply(bt)

	if _, ok := det.Evaluate(bt); ok {
		t.Fatal("sub-threshold opportunity must be silently dropped")
	}
}
