package portfolio

import "tradesim/inventory"

// State 组合只读快照：现金、持仓、总权益与权益曲线。
type State struct {
	Cash      float64
	Equity    float64
	Positions map[string]inventory.Position

	marks map[string]float64
	curve []EquityPoint
}

// Quantity 持仓数量，无持仓为 0。
func (s State) Quantity(symbol string) int64 {
	return s.Positions[symbol].Quantity
}

// MarketValue 按最近估值价计算的持仓市值。
func (s State) MarketValue(symbol string) float64 {
	pos, ok := s.Positions[symbol]
	if !ok {
		return 0
	}
	mv, _ := pos.Valuation(s.marks[symbol])
	return mv
}

// Unrealized 按最近估值价计算的未实现盈亏。
func (s State) Unrealized(symbol string) float64 {
	pos, ok := s.Positions[symbol]
	if !ok {
		return 0
	}
	_, pnl := pos.Valuation(s.marks[symbol])
	return pnl
}

// Curve 权益曲线拷贝。
func (s State) Curve() []EquityPoint {
	return append([]EquityPoint(nil), s.curve...)
}

// CurveLen 权益点数量，等于已模拟的交易日数。
func (s State) CurveLen() int { return len(s.curve) }
