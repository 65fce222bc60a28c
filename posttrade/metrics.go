package posttrade

import (
	"math"

	"tradesim/portfolio"
)

// DefaultPeriodsPerYear 日线年化系数。
const DefaultPeriodsPerYear = 252

// DailyReturns 相邻权益点的简单收益率，长度为 len(curve)-1。
// 前值非正时该期收益记为 0。
func DailyReturns(curve []portfolio.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Value
		if prev > 0 {
			out[i-1] = curve[i].Value/prev - 1
		}
	}
	return out
}

// TotalReturn final/initial - 1；initial 非正时为 0。
func TotalReturn(initial, final float64) float64 {
	if initial <= 0 {
		return 0
	}
	return final/initial - 1
}

// AnnualizedReturn 按几何方式把 periods 期的总收益折算为年化收益。
func AnnualizedReturn(total float64, periods, periodsPerYear int) float64 {
	if periods <= 0 || periodsPerYear <= 0 {
		return 0
	}
	growth := 1 + total
	if growth <= 0 {
		return -1
	}
	return math.Pow(growth, float64(periodsPerYear)/float64(periods)) - 1
}

// Sharpe mean/stdev*sqrt(periodsPerYear)，使用样本标准差；样本不足或波动为 0 时为 0。
func Sharpe(returns []float64, periodsPerYear int) float64 {
	if len(returns) < 2 || periodsPerYear <= 0 || constant(returns) {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))
	var ss float64
	for _, r := range returns {
		d := r - mean
		ss += d * d
	}
	sd := math.Sqrt(ss / float64(len(returns)-1))
	if sd == 0 || math.IsNaN(sd) || math.IsInf(sd, 0) {
		return 0
	}
	return mean / sd * math.Sqrt(float64(periodsPerYear))
}

// 求均值的舍入误差会让常数序列得到极小的非零标准差
func constant(xs []float64) bool {
	for _, x := range xs[1:] {
		if x != xs[0] {
			return false
		}
	}
	return true
}

// MaxDrawdown 相对历史峰值的最大回撤比例，取值 [0,1]。
func MaxDrawdown(curve []portfolio.EquityPoint) float64 {
	var peak, mdd float64
	for _, p := range curve {
		if p.Value > peak {
			peak = p.Value
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - p.Value) / peak; dd > mdd {
			mdd = dd
		}
	}
	return math.Min(mdd, 1)
}

// WinRate 已实现盈亏为正的平仓占比；无平仓时为 0。
func WinRate(closed []portfolio.ClosedTrade) float64 {
	if len(closed) == 0 {
		return 0
	}
	wins := 0
	for _, c := range closed {
		if c.PnL > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(closed))
}
