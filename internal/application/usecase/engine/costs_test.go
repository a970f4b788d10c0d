package engine

import (
	"testing"

	"duoarb/internal/domain/model"
)

func testCosts() CostModel {
	return CostModel{
		TakerFeePercent: map[string]float64{
			model.VenueBinance: 0.08,
			model.VenueBybit:   0.08,
		},
		SlippagePercent: 0.1,
	}
}

func TestCostModelAlwaysCostNegative(t *testing.T) {
	costs := testCosts()

	// gross spread 0.5%
	buy, sell := 100.0, 100.5
	gross := GrossSpreadPercent(buy, sell)
	net := costs.NetProfitPercent(model.VenueBinance, buy, model.VenueBybit, sell)

	if gross < 0.49 || gross > 0.51 {
		t.Fatalf("gross spread mismatch: expected ~0.5, got %f", gross)
	}
	if net >= gross {
		t.Errorf("net profit must be strictly below gross spread: net=%f gross=%f", net, gross)
	}

	t.Logf("gross=%f%% net=%f%%", gross, net)
}

func TestCostModelZeroSpreadGoesNegative(t *testing.T) {
	costs := testCosts()

	net := costs.NetProfitPercent(model.VenueBinance, 100, model.VenueBybit, 100)
	if net >= 0 {
		t.Errorf("zero spread must yield negative net profit, got %f", net)
	}
}

func TestEffectivePrices(t *testing.T) {
	costs := testCosts()

	if eb := costs.EffectiveBuy(model.VenueBinance, 100); eb <= 100 {
		t.Errorf("effective buy must be inflated, got %f", eb)
	}
	if es := costs.EffectiveSell(model.VenueBybit, 100); es >= 100 {
		t.Errorf("effective sell must be deflated, got %f", es)
	}
}

func TestPairingProfitAtUnchangedPrices(t *testing.T) {
	costs := testCosts()

	p := &model.OpenPairing{
		Instrument:      "BTC",
		LongVenue:       model.VenueBinance,
		ShortVenue:      model.VenueBybit,
		LongEntryPrice:  43000,
		ShortEntryPrice: 43100,
	}

	// exiting at the exact entry prices still pays four cost legs
	profit := costs.PairingProfitPercent(p, p.ShortEntryPrice, p.LongEntryPrice)

	entrySpread := GrossSpreadPercent(p.LongEntryPrice, p.ShortEntryPrice)
	if profit >= entrySpread {
		t.Errorf("pairing profit must not exceed entry spread: profit=%f spread=%f", profit, entrySpread)
	}
	t.Logf("entry spread=%f%% current profit=%f%%", entrySpread, profit)
}

func TestPairingProfitImprovesOnConvergence(t *testing.T) {
	costs := testCosts()

	p := &model.OpenPairing{
		Instrument:      "ETH",
		LongVenue:       model.VenueBybit,
		ShortVenue:      model.VenueBinance,
		LongEntryPrice:  2300,
		ShortEntryPrice: 2320,
	}

	atEntry := costs.PairingProfitPercent(p, 2320, 2300)
	converged := costs.PairingProfitPercent(p, 2310, 2310)
	if converged <= atEntry {
		t.Errorf("convergence must improve profit: entry=%f converged=%f", atEntry, converged)
	}
}
