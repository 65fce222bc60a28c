package posttrade

import (
	"fmt"
	"io"

	"tradesim/portfolio"
)

// Input 计算汇总指标所需的一次运行结果。
type Input struct {
	InitialCash    float64
	Curve          []portfolio.EquityPoint
	Closed         []portfolio.ClosedTrade
	TradeCount     int // 成交笔数
	PeriodsPerYear int // 0 时使用 DefaultPeriodsPerYear
	// StartMarked 曲线首点是交易开始前的初始估值（如 env.Reset），不计为一个周期
	StartMarked bool
}

// Summary 一次运行的汇总指标。
type Summary struct {
	InitialCash      float64
	FinalEquity      float64
	Bars             int
	TotalReturn      float64
	AnnualizedReturn float64
	Sharpe           float64
	MaxDrawdown      float64
	WinRate          float64
	TradeCount       int
	ClosedTrades     int
}

// Summarize 空曲线时权益视为初始资金，所有比率为 0。
func Summarize(in Input) Summary {
	ppy := in.PeriodsPerYear
	if ppy <= 0 {
		ppy = DefaultPeriodsPerYear
	}
	final := in.InitialCash
	if n := len(in.Curve); n > 0 {
		final = in.Curve[n-1].Value
	}
	total := TotalReturn(in.InitialCash, final)
	periods := len(in.Curve)
	if in.StartMarked && periods > 0 {
		periods--
	}
	return Summary{
		InitialCash:      in.InitialCash,
		FinalEquity:      final,
		Bars:             periods,
		TotalReturn:      total,
		AnnualizedReturn: AnnualizedReturn(total, periods, ppy),
		Sharpe:           Sharpe(DailyReturns(in.Curve), ppy),
		MaxDrawdown:      MaxDrawdown(in.Curve),
		WinRate:          WinRate(in.Closed),
		TradeCount:       in.TradeCount,
		ClosedTrades:     len(in.Closed),
	}
}

// Print 输出可读的汇总报告。
func (s Summary) Print(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"bars            %d\n"+
			"initial equity  %.2f\n"+
			"final equity    %.2f\n"+
			"total return    %.2f%%\n"+
			"annualized      %.2f%%\n"+
			"sharpe          %.3f\n"+
			"max drawdown    %.2f%%\n"+
			"win rate        %.2f%% (%d closed)\n"+
			"trades          %d\n",
		s.Bars, s.InitialCash, s.FinalEquity,
		s.TotalReturn*100, s.AnnualizedReturn*100, s.Sharpe,
		s.MaxDrawdown*100, s.WinRate*100, s.ClosedTrades, s.TradeCount)
	return err
}
