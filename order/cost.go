package order

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// CostModel 交易成本：佣金（含最低收费）与卖出印花税。
// 金额在 decimal 中计算后一次性转换为 float64，保证同一笔成交在撮合校验与记账时得到完全相同的数值。
type CostModel struct {
	CommissionRate float64
	MinFee         float64
	StampDutyRate  float64
}

// Validate 费率不得为负。
func (c CostModel) Validate() error {
	if c.CommissionRate < 0 || c.MinFee < 0 || c.StampDutyRate < 0 {
		return fmt.Errorf("cost model rates must be >= 0: %+v", c)
	}
	return nil
}

// Breakdown 计算成交金额、佣金、印花税。
func (c CostModel) Breakdown(side Side, qty int64, price float64) (amount, commission, stamp float64) {
	notional := decimal.NewFromInt(qty).Mul(decimal.NewFromFloat(price))
	fee := notional.Mul(decimal.NewFromFloat(c.CommissionRate))
	fee = decimal.Max(fee, decimal.NewFromFloat(c.MinFee))
	if qty <= 0 {
		fee = decimal.Zero
	}
	amount = notional.InexactFloat64()
	commission = fee.InexactFloat64()
	if side == SideSell {
		stamp = notional.Mul(decimal.NewFromFloat(c.StampDutyRate)).InexactFloat64()
	}
	return amount, commission, stamp
}

// BuyCost 买入所需现金（成交金额 + 佣金）。
func (c CostModel) BuyCost(qty int64, price float64) float64 {
	amount, commission, _ := c.Breakdown(SideBuy, qty, price)
	return amount + commission
}

// PriceLimit 涨跌停价格带，Pct 为 0 表示不限制。
type PriceLimit struct {
	Pct float64
}

// Band 返回以前收盘为基准的上下限，按 0.01 最小价位四舍五入；没有前收盘或未启用时 ok=false。
func (p PriceLimit) Band(prevClose float64) (lower, upper float64, ok bool) {
	if p.Pct <= 0 || prevClose <= 0 {
		return 0, 0, false
	}
	prev := decimal.NewFromFloat(prevClose)
	pct := decimal.NewFromFloat(p.Pct)
	lower = prev.Mul(decimal.NewFromInt(1).Sub(pct)).Round(2).InexactFloat64()
	upper = prev.Mul(decimal.NewFromInt(1).Add(pct)).Round(2).InexactFloat64()
	return lower, upper, true
}

// Tradable 收盘封涨停时买不进，封跌停时卖不出。
func (p PriceLimit) Tradable(side Side, close, prevClose float64) bool {
	lower, upper, ok := p.Band(prevClose)
	if !ok {
		return true
	}
	if side == SideBuy {
		return close < upper
	}
	return close > lower
}

// Clamp 将价格限制在价格带内。
func (p PriceLimit) Clamp(price, prevClose float64) float64 {
	lower, upper, ok := p.Band(prevClose)
	if !ok {
		return price
	}
	if price > upper {
		return upper
	}
	if price < lower {
		return lower
	}
	return price
}
