package order

import "fmt"

// LotConstraint 买入必须为整手；卖出允许零股（一次性卖出零头）。
type LotConstraint struct {
	LotSize int64
}

// Validate 检查数量是否满足整手规则。
func (c LotConstraint) Validate(side Side, qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("qty %d must be > 0", qty)
	}
	if side == SideBuy && c.LotSize > 1 && qty%c.LotSize != 0 {
		return fmt.Errorf("qty %d not aligned to lot size %d", qty, c.LotSize)
	}
	return nil
}

// RoundDown 向下取整到整手。
func (c LotConstraint) RoundDown(qty int64) int64 {
	if c.LotSize <= 1 || qty <= 0 {
		if qty < 0 {
			return 0
		}
		return qty
	}
	return qty / c.LotSize * c.LotSize
}
