package engine

import "duoarb/internal/domain/model"

// CostModel prices the two legs of a round trip. It is deliberately
// pessimistic: the full taker fee plus slippage is charged on both the buy
// and the sell side, so net profit always understates the raw spread.
type CostModel struct {
	TakerFeePercent map[string]float64 // per venue
	SlippagePercent float64
}

func (c CostModel) rate(venue string) float64 {
	return (c.TakerFeePercent[venue] + c.SlippagePercent) / 100
}

// EffectiveBuy inflates the quoted buy price by the venue's fee + slippage.
func (c CostModel) EffectiveBuy(venue string, price float64) float64 {
	return price * (1 + c.rate(venue))
}

// EffectiveSell deflates the quoted sell price by the venue's fee + slippage.
func (c CostModel) EffectiveSell(venue string, price float64) float64 {
	return price * (1 - c.rate(venue))
}

// GrossSpreadPercent is the raw cross-venue spread before costs.
func GrossSpreadPercent(buyPrice, sellPrice float64) float64 {
	return (sellPrice - buyPrice) / buyPrice * 100
}

// NetProfitPercent is the spread left after cost-adjusting both legs.
func (c CostModel) NetProfitPercent(buyVenue string, buyPrice float64, sellVenue string, sellPrice float64) float64 {
	buy := c.EffectiveBuy(buyVenue, buyPrice)
	sell := c.EffectiveSell(sellVenue, sellPrice)
	return (sell - buy) / buy * 100
}

// PairingProfitPercent re-evaluates an open pairing at current exit prices
// using the same double-leg model: the long leg sells at curSell, the short
// leg buys back at curBuy, both cost-adjusted, averaged across the legs.
func (c CostModel) PairingProfitPercent(p *model.OpenPairing, curBuy, curSell float64) float64 {
	longEntry := c.EffectiveBuy(p.LongVenue, p.LongEntryPrice)
	longExit := c.EffectiveSell(p.LongVenue, curSell)
	longLeg := (longExit - longEntry) / longEntry * 100

	shortEntry := c.EffectiveSell(p.ShortVenue, p.ShortEntryPrice)
	shortExit := c.EffectiveBuy(p.ShortVenue, curBuy)
	shortLeg := (shortEntry - shortExit) / shortExit * 100

	return (longLeg + shortLeg) / 2
}
