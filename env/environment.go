package env

import (
	"errors"
	"fmt"
	"math"
	"time"

	"tradesim/config"
	"tradesim/infrastructure/logger"
	"tradesim/infrastructure/monitor"
	"tradesim/market"
	"tradesim/order"
	"tradesim/portfolio"
	"tradesim/posttrade"
	"tradesim/sim"
	"tradesim/strategy"
)

var (
	ErrNotReady      = errors.New("environment not reset")
	ErrEpisodeDone   = errors.New("episode finished, call Reset")
	ErrInvalidAction = errors.New("invalid action")
	ErrShortSeries   = errors.New("series too short for lookback window")
)

// DefaultRejectionPenalty 拒单时从奖励中扣除的默认值。
const DefaultRejectionPenalty = 0.01

// Phase 环境状态：Reset 后 Ready，第一次 Step 后 Stepping，序列耗尽或截断后 Done。
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseReady
	PhaseStepping
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseReady:
		return "READY"
	case PhaseStepping:
		return "STEPPING"
	case PhaseDone:
		return "DONE"
	default:
		return "UNINITIALIZED"
	}
}

// Config 一个 episode 的参数。
type Config struct {
	Run              config.RunConfig
	Symbol           string
	MaxSteps         int     // >0 时达到步数后 Truncated
	RejectionPenalty float64 // 0 时使用 DefaultRejectionPenalty
}

// Observation 前 window 个值为归一化收盘价 close_i/close_t-1，
// 随后依次为现金占比、持仓市值占比、未实现盈亏占比。
type Observation []float64

// Info 每一步的附加信息；拒单时 Rejected 为 true 并带原因。
type Info struct {
	Step     int
	Date     time.Time
	Action   Action
	Rejected bool
	Reason   order.RejectReason
	Detail   string
	Fill     *order.Fill
	Equity   float64
	Cash     float64
	Position int64
}

// StepResult Step 的返回值。
type StepResult struct {
	Observation Observation
	Reward      float64
	Done        bool
	Truncated   bool
	Info        Info
}

// Environment 把单根 K 线的回放语义包装成 reset/step 接口。
// 动作在下一根 K 线收盘成交，观测只包含已收盘的数据。
type Environment struct {
	universe *market.Universe
	log      *logger.Logger
	mon      *monitor.Monitor

	cfg     Config
	series  *market.Series
	session *sim.Session
	policy  *strategy.Policy
	cursor  int
	steps   int
	phase   Phase
}

// New universe 在多个 episode 之间只读共享；log/mon 可为 nil。
func New(u *market.Universe, log *logger.Logger, mon *monitor.Monitor) *Environment {
	if log == nil {
		log = logger.Nop()
	}
	return &Environment{universe: u, log: log, mon: mon}
}

// Reset 以初始资金开始新 episode，返回第一个观测。
// 失败时丢弃上一个 episode 的状态。
func (e *Environment) Reset(cfg Config) (Observation, error) {
	e.phase = PhaseUninitialized
	e.session, e.series, e.policy = nil, nil, nil
	if e.universe == nil {
		return nil, fmt.Errorf("reset: %w", market.ErrEmptySeries)
	}
	series, ok := e.universe.Series(cfg.Symbol)
	if !ok {
		return nil, fmt.Errorf("reset %q: %w", cfg.Symbol, market.ErrUnknownSymbol)
	}
	if cfg.RejectionPenalty < 0 {
		return nil, fmt.Errorf("reset: rejectionPenalty %v must be >= 0", cfg.RejectionPenalty)
	}
	if cfg.RejectionPenalty == 0 {
		cfg.RejectionPenalty = DefaultRejectionPenalty
	}
	cfg.Run.Strategy = config.StrategyConfig{Type: config.StrategyPolicy}
	if err := config.ValidateRun(cfg.Run); err != nil {
		return nil, err
	}
	window := cfg.Run.LookbackWindow
	if series.Len() <= window {
		return nil, fmt.Errorf("reset %s: %d bars, window %d: %w", cfg.Symbol, series.Len(), window, ErrShortSeries)
	}
	single, err := market.NewUniverse(series)
	if err != nil {
		return nil, err
	}
	session, err := sim.NewSession(cfg.Run, single, e.log, e.mon)
	if err != nil {
		return nil, err
	}

	e.cfg = cfg
	e.series = series
	e.session = session
	e.policy = strategy.NewPolicy()
	e.cursor = window - 1
	e.steps = 0
	// 起点估值：第一个权益点即初始资金
	if _, err := session.Mark(series.At(e.cursor).Date); err != nil {
		return nil, err
	}
	e.phase = PhaseReady
	return e.observation(), nil
}

// Step 在下一根 K 线执行动作并推进一步。
// 拒单会在奖励中扣除惩罚并在 Info 中给出原因，不会被当作 Hold。
func (e *Environment) Step(a Action) (StepResult, error) {
	switch e.phase {
	case PhaseUninitialized:
		return StepResult{}, ErrNotReady
	case PhaseDone:
		return StepResult{}, ErrEpisodeDone
	}
	intent, err := a.Intent()
	if err != nil {
		return StepResult{}, err
	}

	next := e.cursor + 1
	date := e.series.At(next).Date
	before := e.session.Equity()

	e.policy.Set(intent)
	in := e.policy.Signal(e.cfg.Symbol, e.series.Window(e.cursor, e.cfg.Run.LookbackWindow), e.session.Snapshot())
	ev, traded, err := e.session.Execute(date, e.cfg.Symbol, in)
	if err != nil {
		return StepResult{}, err
	}
	after, err := e.session.Mark(date)
	if err != nil {
		return StepResult{}, err
	}

	e.cursor = next
	e.steps++
	info := Info{
		Step:     e.steps,
		Date:     date,
		Action:   a,
		Equity:   after,
		Cash:     e.session.Cash(),
		Position: e.session.Holding(e.cfg.Symbol),
	}
	reward := logReturn(before, after)
	if traded {
		info.Fill = ev.Fill
		if ev.Rejected() {
			info.Rejected = true
			info.Reason = ev.Rejection.Reason
			info.Detail = ev.Rejection.Detail
			reward -= e.cfg.RejectionPenalty
		}
	}

	res := StepResult{
		Observation: e.observation(),
		Reward:      reward,
		Done:        e.cursor >= e.series.Len()-1,
		Info:        info,
	}
	res.Truncated = !res.Done && e.cfg.MaxSteps > 0 && e.steps >= e.cfg.MaxSteps
	if res.Done || res.Truncated {
		e.phase = PhaseDone
	} else {
		e.phase = PhaseStepping
	}
	return res, nil
}

func logReturn(before, after float64) float64 {
	if before <= 0 || after <= 0 {
		return 0
	}
	return math.Log(after / before)
}

func (e *Environment) observation() Observation {
	window := e.series.Window(e.cursor, e.cfg.Run.LookbackWindow)
	obs := make(Observation, 0, len(window)+3)
	last := window[len(window)-1].Close
	for _, b := range window {
		obs = append(obs, b.Close/last-1)
	}
	snap := e.session.Snapshot()
	equity := snap.Equity
	if equity <= 0 {
		return append(obs, 0, 0, 0)
	}
	return append(obs,
		snap.Cash/equity,
		snap.MarketValue(e.cfg.Symbol)/equity,
		snap.Unrealized(e.cfg.Symbol)/equity,
	)
}

// ObservationSize 观测向量维度 = 回看窗口 + 3。
func (e *Environment) ObservationSize() int {
	return e.cfg.Run.LookbackWindow + 3
}

func (e *Environment) Phase() Phase { return e.phase }

// Snapshot 当前组合快照，未 Reset 时为零值。
func (e *Environment) Snapshot() portfolio.State {
	if e.session == nil {
		return portfolio.State{}
	}
	return e.session.Snapshot()
}

// Trades 本 episode 的交易日志。
func (e *Environment) Trades() []sim.TradeEvent {
	if e.session == nil {
		return nil
	}
	return e.session.Trades()
}

// Summary 本 episode 至今的汇总指标。
func (e *Environment) Summary() posttrade.Summary {
	if e.session == nil {
		return posttrade.Summary{}
	}
	return posttrade.Summarize(posttrade.Input{
		InitialCash:    e.cfg.Run.InitialCash,
		Curve:          e.session.Curve(),
		Closed:         e.session.ClosedTrades(),
		TradeCount:     len(e.session.Fills()),
		PeriodsPerYear: e.cfg.Run.PeriodsPerYear,
		StartMarked:    true,
	})
}
