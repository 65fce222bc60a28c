package market

import "time"

// Bar 日线 OHLCV。Date 只保留日期部分（UTC 零点）。
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Day 将任意时间归一化为 UTC 当日零点，作为日历键。
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Quote 是撮合某一交易日请求所需的行情视图。
// HasBar 为 false 表示该标的当日无 K 线（停牌/缺数据）。
type Quote struct {
	Symbol    string
	Date      time.Time
	Bar       Bar
	HasBar    bool
	PrevClose float64 // 0 表示没有前收盘（序列首日）
}
