package strategy

import (
	"tradesim/market"
	"tradesim/portfolio"
)

// Strategy 信号源。实现只能读取 window 与快照，不得修改组合。
// window 为截至当日（含）的回看 K 线，最后一根即当日。
type Strategy interface {
	Name() string
	Signal(symbol string, window []market.Bar, snap portfolio.State) Intent
}

// BuyAndHold 空仓时以 Fraction 比例的现金买入，之后一直持有。
type BuyAndHold struct {
	Fraction float64
}

func (BuyAndHold) Name() string { return "buy_and_hold" }

func (b BuyAndHold) Signal(symbol string, window []market.Bar, snap portfolio.State) Intent {
	if len(window) == 0 || snap.Quantity(symbol) > 0 {
		return Hold()
	}
	return BuyFraction(b.Fraction)
}

func closes(window []market.Bar) []float64 {
	out := make([]float64, len(window))
	for i, b := range window {
		out[i] = b.Close
	}
	return out
}
