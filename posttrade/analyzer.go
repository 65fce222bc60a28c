package posttrade

import (
	"time"

	"tradesim/order"
)

// CloseSource 提供成交日之后第 n 个交易日的收盘价。
type CloseSource interface {
	CloseAfter(symbol string, date time.Time, n int) (float64, bool)
}

// DriftStats 成交后价格漂移统计，用于评估入场/出场时机
type DriftStats struct {
	Horizon       int
	TotalFills    int
	AnalyzedFills int
	AdverseRate   float64 // 成交后价格朝不利方向移动的比例
	AvgDrift      float64 // 有利为正
}

// Drift 计算每笔成交在 horizon 个交易日后的漂移。
// 买入后上涨、卖出后下跌记为有利；超出数据末尾的成交不参与统计。
func Drift(fills []order.Fill, src CloseSource, horizon int) DriftStats {
	stats := DriftStats{Horizon: horizon, TotalFills: len(fills)}
	if src == nil || horizon <= 0 {
		return stats
	}

	var adverse int
	var total float64
	for _, f := range fills {
		if f.Price <= 0 {
			continue
		}
		later, ok := src.CloseAfter(f.Symbol, f.Date, horizon)
		if !ok {
			continue
		}
		var drift float64
		if f.Side == order.SideBuy {
			drift = (later - f.Price) / f.Price
		} else {
			drift = (f.Price - later) / f.Price
		}
		stats.AnalyzedFills++
		total += drift
		if drift < 0 {
			adverse++
		}
	}

	if stats.AnalyzedFills > 0 {
		stats.AdverseRate = float64(adverse) / float64(stats.AnalyzedFills)
		stats.AvgDrift = total / float64(stats.AnalyzedFills)
	}
	return stats
}
