package sim

import (
	"context"
	"fmt"
	"time"

	"tradesim/config"
	"tradesim/infrastructure/logger"
	"tradesim/infrastructure/monitor"
	"tradesim/market"
	"tradesim/order"
	"tradesim/portfolio"
	"tradesim/posttrade"
	"tradesim/strategy"
)

// DefaultDriftHorizon 成交后漂移统计的默认观察期（交易日）。
const DefaultDriftHorizon = 5

// Options Backtester 的可选依赖。
type Options struct {
	Logger  *logger.Logger
	Monitor *monitor.Monitor
	// Stop 每根 K 线检查一次，返回 true 时停止回放
	Stop func() bool
	// StartDate 之前的交易日只作为回看窗口，不产生信号和权益点
	StartDate    time.Time
	DriftHorizon int
}

// Result 一次回放的完整输出。
type Result struct {
	RunID        string
	Strategy     string
	Curve        []portfolio.EquityPoint
	Trades       []TradeEvent
	Warnings     []Warning
	Orders       []order.Order
	ClosedTrades []portfolio.ClosedTrade
	Summary      posttrade.Summary
	Drift        posttrade.DriftStats
	Cancelled    bool
}

// Fills 成交记录，按发生顺序。
func (r Result) Fills() []order.Fill {
	var out []order.Fill
	for _, ev := range r.Trades {
		if ev.Fill != nil {
			out = append(out, *ev.Fill)
		}
	}
	return out
}

// Rejections 拒单记录，按发生顺序。
func (r Result) Rejections() []*order.Rejection {
	var out []*order.Rejection
	for _, ev := range r.Trades {
		if ev.Rejection != nil {
			out = append(out, ev.Rejection)
		}
	}
	return out
}

// Backtester 按交易日历逐日回放：信号 -> 换算 -> 撮合 -> 记账 -> 估值。
type Backtester struct {
	session  *Session
	strategy strategy.Strategy
	opts     Options
}

// New 组装回测器，配置错误在此返回。
func New(cfg config.RunConfig, u *market.Universe, strat strategy.Strategy, opts Options) (*Backtester, error) {
	if strat == nil {
		return nil, fmt.Errorf("backtest %s: strategy is required", cfg.RunID)
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	// 该回测的所有日志都带上策略名
	log = log.WithFields(map[string]interface{}{"strategy": strat.Name()})
	session, err := NewSession(cfg, u, log, opts.Monitor)
	if err != nil {
		return nil, err
	}
	if opts.DriftHorizon <= 0 {
		opts.DriftHorizon = DefaultDriftHorizon
	}
	opts.StartDate = market.Day(opts.StartDate)
	return &Backtester{session: session, strategy: strat, opts: opts}, nil
}

// Session 暴露底层状态，供测试与检查使用。
func (b *Backtester) Session() *Session { return b.session }

// Run 从初始状态完整回放一次；重复调用得到相同结果。
// Stop 触发时返回已完成部分且 Cancelled=true；ctx 取消时同样返回部分结果并附带 ctx.Err()。
func (b *Backtester) Run(ctx context.Context) (Result, error) {
	s := b.session
	s.Reset()
	cfg := s.Config()
	u := s.Universe()
	symbols := u.Symbols()

	s.log.LogRun("start", cfg.RunID, map[string]interface{}{
		"symbols": len(symbols),
		"bars":    len(u.Calendar()),
	})

	var runErr error
	cancelled := false
	for _, date := range u.Calendar() {
		if date.Before(b.opts.StartDate) {
			continue
		}
		if err := ctx.Err(); err != nil {
			runErr, cancelled = err, true
			break
		}
		if b.opts.Stop != nil && b.opts.Stop() {
			cancelled = true
			break
		}
		if err := b.step(date, symbols); err != nil {
			s.mon.RecordRun("failed")
			return Result{}, err
		}
	}

	status := "completed"
	if cancelled {
		status = "cancelled"
	}
	res := b.result(cfg, cancelled)
	s.mon.RecordRun(status)
	s.log.LogRun("finish", cfg.RunID, map[string]interface{}{
		"status":       status,
		"final_equity": res.Summary.FinalEquity,
		"trades":       res.Summary.TradeCount,
		"rejections":   len(res.Trades) - res.Summary.TradeCount,
		"warnings":     len(res.Warnings),
	})
	return res, runErr
}

func (b *Backtester) step(date time.Time, symbols []string) error {
	s := b.session
	lookback := s.Config().LookbackWindow
	for _, sym := range symbols {
		series, _ := s.Universe().Series(sym)
		idx, ok := series.IndexOf(date)
		if !ok {
			s.Skip(date, sym, "missing bar")
			continue
		}
		window := series.Window(idx, lookback)
		intent := b.strategy.Signal(sym, window, s.Snapshot())
		if _, _, err := s.Execute(date, sym, intent); err != nil {
			return err
		}
	}
	if _, err := s.Mark(date); err != nil {
		return err
	}
	s.mon.RecordBar()
	return nil
}

func (b *Backtester) result(cfg config.RunConfig, cancelled bool) Result {
	s := b.session
	res := Result{
		RunID:        cfg.RunID,
		Strategy:     b.strategy.Name(),
		Curve:        s.Curve(),
		Trades:       s.Trades(),
		Warnings:     s.Warnings(),
		Orders:       s.Orders(),
		ClosedTrades: s.ClosedTrades(),
		Cancelled:    cancelled,
	}
	fills := res.Fills()
	res.Summary = posttrade.Summarize(posttrade.Input{
		InitialCash:    cfg.InitialCash,
		Curve:          res.Curve,
		Closed:         res.ClosedTrades,
		TradeCount:     len(fills),
		PeriodsPerYear: cfg.PeriodsPerYear,
	})
	res.Drift = posttrade.Drift(fills, s.Universe(), b.opts.DriftHorizon)
	return res
}
