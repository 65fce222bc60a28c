package portfolio

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"tradesim/inventory"
	"tradesim/order"
)

var (
	ErrInsufficientCash = errors.New("fill exceeds available cash")
	ErrStaleMark        = errors.New("mark date does not advance equity curve")
	ErrInvalidCash      = errors.New("initial cash must be > 0")
)

// EquityPoint 权益曲线上的一点，每个交易日恰好一个。
type EquityPoint struct {
	Date  time.Time
	Value float64
	Cash  float64
}

// ClosedTrade 一次卖出结转的盈亏，PnL 已扣除该笔卖出的佣金与印花税。
type ClosedTrade struct {
	Date     time.Time
	Symbol   string
	Quantity int64
	Price    float64
	PnL      float64
}

// Manager 独占现金与持仓，只能通过 Apply(fill) 修改。
type Manager struct {
	initialCash float64
	cash        float64
	positions   map[string]*inventory.Position
	marks       map[string]float64
	equity      float64
	curve       []EquityPoint
	closed      []ClosedTrade
}

func NewManager(initialCash float64) (*Manager, error) {
	if initialCash <= 0 {
		return nil, fmt.Errorf("%w: %.2f", ErrInvalidCash, initialCash)
	}
	m := &Manager{initialCash: initialCash}
	m.Reset()
	return m, nil
}

// Reset 恢复初始资金并清空持仓、权益曲线和平仓记录。
func (m *Manager) Reset() {
	m.cash = m.initialCash
	m.equity = m.initialCash
	m.positions = make(map[string]*inventory.Position)
	m.marks = make(map[string]float64)
	m.curve = nil
	m.closed = nil
}

// Apply 记账一笔成交。
func (m *Manager) Apply(f order.Fill) error {
	delta := f.CashDelta()
	if m.cash+delta < 0 {
		return fmt.Errorf("%s %s %d: %w: cash %.2f delta %.4f", f.Symbol, f.Side, f.Quantity, ErrInsufficientCash, m.cash, delta)
	}
	switch f.Side {
	case order.SideBuy:
		pos := m.positions[f.Symbol]
		if pos == nil {
			pos = &inventory.Position{Symbol: f.Symbol}
		}
		if err := pos.Increase(f.Quantity, f.Price, f.Date, f.SettleDate); err != nil {
			return err
		}
		m.positions[f.Symbol] = pos
		m.cash += delta
	case order.SideSell:
		pos := m.positions[f.Symbol]
		if pos == nil {
			return fmt.Errorf("%s sell %d: %w", f.Symbol, f.Quantity, inventory.ErrInsufficientQuantity)
		}
		realized, err := pos.Decrease(f.Quantity, f.Price, f.Date)
		if err != nil {
			return err
		}
		m.cash += delta
		m.closed = append(m.closed, ClosedTrade{
			Date:     f.Date,
			Symbol:   f.Symbol,
			Quantity: f.Quantity,
			Price:    f.Price,
			PnL:      realized - f.Fees(),
		})
		if pos.Quantity == 0 {
			delete(m.positions, f.Symbol)
		}
	default:
		return fmt.Errorf("unknown side %q", f.Side)
	}
	return nil
}

// MarkToMarket 以收盘价估值并追加一个权益点。closes 中缺失的标的沿用上次估值价。
func (m *Manager) MarkToMarket(date time.Time, closes map[string]float64) (float64, error) {
	if n := len(m.curve); n > 0 && !date.After(m.curve[n-1].Date) {
		return m.equity, fmt.Errorf("%w: %s <= %s", ErrStaleMark, date.Format(time.DateOnly), m.curve[n-1].Date.Format(time.DateOnly))
	}
	for sym, px := range closes {
		m.marks[sym] = px
	}
	m.equity = m.cash + m.holdingsValue()
	m.curve = append(m.curve, EquityPoint{Date: date, Value: m.equity, Cash: m.cash})
	return m.equity, nil
}

func (m *Manager) holdingsValue() float64 {
	// 按代码排序累加，保证浮点求和顺序固定
	var total float64
	for _, sym := range m.symbols() {
		pos := m.positions[sym]
		mv, _ := pos.Valuation(m.markPrice(sym))
		total += mv
	}
	return total
}

func (m *Manager) markPrice(symbol string) float64 {
	if px, ok := m.marks[symbol]; ok {
		return px
	}
	return m.positions[symbol].AvgCost
}

func (m *Manager) symbols() []string {
	syms := make([]string, 0, len(m.positions))
	for sym := range m.positions {
		syms = append(syms, sym)
	}
	sort.Strings(syms)
	return syms
}

func (m *Manager) Cash() float64 { return m.cash }

// Equity 最近一次估值后的总权益。
func (m *Manager) Equity() float64 { return m.equity }

// Holding 当前持仓数量。
func (m *Manager) Holding(symbol string) int64 {
	if pos := m.positions[symbol]; pos != nil {
		return pos.Quantity
	}
	return 0
}

// Sellable date 当日已结算可卖数量。
func (m *Manager) Sellable(symbol string, date time.Time) int64 {
	if pos := m.positions[symbol]; pos != nil {
		return pos.Settled(date)
	}
	return 0
}

// Position 返回持仓拷贝。
func (m *Manager) Position(symbol string) (inventory.Position, bool) {
	pos := m.positions[symbol]
	if pos == nil {
		return inventory.Position{}, false
	}
	return pos.Clone(), true
}

// Curve 权益曲线拷贝。
func (m *Manager) Curve() []EquityPoint {
	return append([]EquityPoint(nil), m.curve...)
}

// ClosedTrades 平仓记录拷贝。
func (m *Manager) ClosedTrades() []ClosedTrade {
	return append([]ClosedTrade(nil), m.closed...)
}

// Snapshot 返回只读快照，策略不会也无法通过它修改组合。
func (m *Manager) Snapshot() State {
	positions := make(map[string]inventory.Position, len(m.positions))
	marks := make(map[string]float64, len(m.positions))
	for sym, pos := range m.positions {
		positions[sym] = pos.Clone()
		marks[sym] = m.markPrice(sym)
	}
	return State{
		Cash:      m.cash,
		Equity:    m.equity,
		Positions: positions,
		marks:     marks,
		curve:     m.curve[:len(m.curve):len(m.curve)],
	}
}
