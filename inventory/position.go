package inventory

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInsufficientQuantity = errors.New("insufficient settled quantity")
	ErrInvalidQuantity      = errors.New("quantity must be > 0")
)

// Lot 一笔买入形成的持仓批次。Settles 之后（含当日）方可卖出；零值表示结算日超出日历。
type Lot struct {
	Quantity int64
	Price    float64
	Acquired time.Time
	Settles  time.Time
}

// Position 单一标的持仓：加权平均成本、已实现盈亏和按买入日期排列的批次。
type Position struct {
	Symbol      string
	Quantity    int64
	AvgCost     float64
	RealizedPnL float64
	Lots        []Lot
}

// Increase 买入加仓并更新加权平均成本。
func (p *Position) Increase(qty int64, price float64, acquired, settles time.Time) error {
	if qty <= 0 {
		return fmt.Errorf("%s increase %d: %w", p.Symbol, qty, ErrInvalidQuantity)
	}
	totalValue := p.AvgCost*float64(p.Quantity) + price*float64(qty)
	p.Quantity += qty
	p.AvgCost = totalValue / float64(p.Quantity)
	p.Lots = append(p.Lots, Lot{Quantity: qty, Price: price, Acquired: acquired, Settles: settles})
	return nil
}

// Decrease 卖出减仓，按平均成本法结转已实现盈亏，先进先出消耗已结算批次。
// 返回本次已实现盈亏（不含费用）。
func (p *Position) Decrease(qty int64, price float64, date time.Time) (float64, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("%s decrease %d: %w", p.Symbol, qty, ErrInvalidQuantity)
	}
	if settled := p.Settled(date); qty > settled {
		return 0, fmt.Errorf("%s decrease %d > settled %d: %w", p.Symbol, qty, settled, ErrInsufficientQuantity)
	}
	realized := (price - p.AvgCost) * float64(qty)
	p.RealizedPnL += realized
	p.Quantity -= qty

	remaining := qty
	i := 0
	for remaining > 0 && i < len(p.Lots) {
		lot := &p.Lots[i]
		if lot.Quantity <= remaining {
			remaining -= lot.Quantity
			i++
			continue
		}
		lot.Quantity -= remaining
		remaining = 0
	}
	p.Lots = append(p.Lots[:0], p.Lots[i:]...)
	if p.Quantity == 0 {
		p.AvgCost = 0
		p.Lots = nil
	}
	return realized, nil
}

// Settled 在 date 当日可卖出的数量。
func (p *Position) Settled(date time.Time) int64 {
	var n int64
	for _, lot := range p.Lots {
		if lot.Settles.IsZero() || lot.Settles.After(date) {
			// 批次按买入日期排列，结算日单调，后续批次同样未结算
			break
		}
		n += lot.Quantity
	}
	return n
}

// Valuation 基于收盘价计算市值与未实现盈亏。
func (p *Position) Valuation(close float64) (marketValue, unrealized float64) {
	marketValue = float64(p.Quantity) * close
	unrealized = (close - p.AvgCost) * float64(p.Quantity)
	return marketValue, unrealized
}

// Clone 深拷贝，供只读快照使用。
func (p *Position) Clone() Position {
	c := *p
	c.Lots = append([]Lot(nil), p.Lots...)
	return c
}
