package sim

import (
	"time"

	"github.com/stretchr/testify/require"

	"tradesim/config"
	"tradesim/market"
	"tradesim/portfolio"
	"tradesim/strategy"
)

var t0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func day(i int) time.Time { return t0.AddDate(0, 0, i) }

func bar(i int, c float64) market.Bar {
	return market.Bar{Date: day(i), Open: c, High: c, Low: c, Close: c, Volume: 1e6}
}

func flatSeries(t require.TestingT, sym string, n int, px float64) *market.Series {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = px
	}
	return closeSeries(t, sym, closes...)
}

func closeSeries(t require.TestingT, sym string, closes ...float64) *market.Series {
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = bar(i, c)
	}
	s, err := market.NewSeries(sym, bars)
	require.NoError(t, err)
	return s
}

func universe(t require.TestingT, series ...*market.Series) *market.Universe {
	u, err := market.NewUniverse(series...)
	require.NoError(t, err)
	return u
}

func runConfig() config.RunConfig {
	r := config.DefaultRun()
	r.RunID = "test"
	r.InitialCash = 100000
	r.CommissionRate = 0.0003
	r.MinFee = 5
	r.StampDutyRate = 0.001
	r.LookbackWindow = 5
	return r
}

// scripted 按日期返回预设意图，未设定的日期持有
type scripted map[time.Time]strategy.Intent

func (scripted) Name() string { return "scripted" }

func (s scripted) Signal(_ string, window []market.Bar, _ portfolio.State) strategy.Intent {
	return s[window[len(window)-1].Date]
}

// windowRecorder 记录每次看到的窗口长度
type windowRecorder struct{ lens *[]int }

func (windowRecorder) Name() string { return "window-recorder" }

func (w windowRecorder) Signal(_ string, window []market.Bar, _ portfolio.State) strategy.Intent {
	*w.lens = append(*w.lens, len(window))
	return strategy.Hold()
}

// stopAfter 在第 n 根 K 线后触发 Sweeper.Stop
type stopAfter struct {
	sw   *Sweeper
	bars *int
	n    int
}

func (stopAfter) Name() string { return "stop-after" }

func (s stopAfter) Signal(string, []market.Bar, portfolio.State) strategy.Intent {
	*s.bars++
	if *s.bars >= s.n {
		s.sw.Stop()
	}
	return strategy.Hold()
}
