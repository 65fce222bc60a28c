package strategy

import (
	"github.com/markcheno/go-talib"

	"tradesim/market"
	"tradesim/portfolio"
)

// SMACross 均线交叉：快线上穿慢线且空仓时买入，下穿且持仓时清仓。
// window 至少需要 Slow+1 根 K 线才能判断交叉，不足时持有。
type SMACross struct {
	Fast     int
	Slow     int
	Fraction float64
}

func (SMACross) Name() string { return "sma_cross" }

func (s SMACross) Signal(symbol string, window []market.Bar, snap portfolio.State) Intent {
	if s.Fast < 1 || s.Slow <= s.Fast || len(window) <= s.Slow {
		return Hold()
	}
	px := closes(window)
	fast := talib.Sma(px, s.Fast)
	slow := talib.Sma(px, s.Slow)
	n := len(px) - 1

	held := snap.Quantity(symbol) > 0
	switch {
	case !held && fast[n-1] <= slow[n-1] && fast[n] > slow[n]:
		return BuyFraction(s.Fraction)
	case held && fast[n-1] >= slow[n-1] && fast[n] < slow[n]:
		return SellAll()
	}
	return Hold()
}
