package sim

import (
	"fmt"
	"time"

	"tradesim/config"
	"tradesim/infrastructure/logger"
	"tradesim/infrastructure/monitor"
	"tradesim/market"
	"tradesim/order"
	"tradesim/portfolio"
	"tradesim/strategy"
)

// TradeEvent 交易日志的一条记录：每个非 Hold 意图恰好对应一个成交或一个拒单。
type TradeEvent struct {
	Date      time.Time
	Symbol    string
	Intent    strategy.Intent
	Fill      *order.Fill
	Rejection *order.Rejection
}

func (e TradeEvent) Rejected() bool { return e.Rejection != nil }

// Warning 数据完整性问题（缺失 K 线），记录后继续回放。
type Warning struct {
	Date   time.Time
	Symbol string
	Reason string
}

// Session 一次运行的全部可变状态：撮合、组合与日志。
// 仅供单个 goroutine 使用，多次运行之间不共享。
type Session struct {
	cfg      config.RunConfig
	universe *market.Universe
	orders   *order.Manager
	book     *portfolio.Manager
	log      *logger.Logger
	mon      *monitor.Monitor

	trades   []TradeEvent
	warnings []Warning
}

// OrderConfig 把运行参数映射为撮合参数。
func OrderConfig(cfg config.RunConfig) order.Config {
	return order.Config{
		RunID: cfg.RunID,
		Costs: order.CostModel{
			CommissionRate: cfg.CommissionRate,
			MinFee:         cfg.MinFee,
			StampDutyRate:  cfg.StampDutyRate,
		},
		SlippagePct:         cfg.SlippagePct,
		Limit:               order.PriceLimit{Pct: cfg.PriceLimitPct},
		LotSize:             cfg.LotSize,
		SettlementDelayBars: cfg.SettlementDelayBars,
	}
}

// NewSession 配置非法时返回错误，此时尚未处理任何 K 线。
func NewSession(cfg config.RunConfig, u *market.Universe, log *logger.Logger, mon *monitor.Monitor) (*Session, error) {
	if u == nil {
		return nil, fmt.Errorf("session %s: %w", cfg.RunID, market.ErrEmptySeries)
	}
	if err := config.ValidateRun(cfg); err != nil {
		return nil, err
	}
	orders, err := order.NewManager(OrderConfig(cfg), u)
	if err != nil {
		return nil, err
	}
	book, err := portfolio.NewManager(cfg.InitialCash)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Session{
		cfg:      cfg,
		universe: u,
		orders:   orders,
		book:     book,
		log:      log,
		mon:      mon,
	}, nil
}

// Reset 恢复初始资金，清空订单、交易日志与告警。
func (s *Session) Reset() {
	s.orders.Reset()
	s.book.Reset()
	s.trades = nil
	s.warnings = nil
}

// Execute 将意图换算为请求并撮合。Hold 返回 ok=false。
// 拒单不是错误；error 只表示撮合与记账之间的不一致。
func (s *Session) Execute(date time.Time, symbol string, in strategy.Intent) (TradeEvent, bool, error) {
	if in.IsHold() {
		return TradeEvent{}, false, nil
	}
	date = market.Day(date)
	q := market.Quote{Symbol: symbol, Date: date}
	if series, ok := s.universe.Series(symbol); ok {
		q = series.Quote(date)
	}
	req := s.request(symbol, in, q)

	ev := TradeEvent{Date: date, Symbol: symbol, Intent: in}
	s.mon.RecordOrderSubmitted()
	fill, err := s.orders.Submit(req, q, s.book)
	if err != nil {
		rej, ok := order.AsRejection(err)
		if !ok {
			return ev, true, fmt.Errorf("%s %s %s: %w", s.cfg.RunID, date.Format(time.DateOnly), symbol, err)
		}
		ev.Rejection = rej
		s.trades = append(s.trades, ev)
		s.mon.RecordRejection(string(rej.Reason))
		s.log.LogRejection(s.cfg.RunID, rej)
		return ev, true, nil
	}
	if err := s.book.Apply(fill); err != nil {
		return ev, true, fmt.Errorf("%s apply %s: %w", s.cfg.RunID, fill.OrderID, err)
	}
	ev.Fill = &fill
	s.trades = append(s.trades, ev)
	s.mon.RecordFill(string(fill.Side))
	s.log.LogFill(s.cfg.RunID, fill)
	return ev, true, nil
}

// request 比例 -> 股数。买入取预算内可负担的最大整手；
// 按比例卖出向下取整到整手，持仓不足一手时卖出全部零股。
// 数量为 0 的请求照常提交，由撮合给出拒单原因。
func (s *Session) request(symbol string, in strategy.Intent, q market.Quote) order.Request {
	req := order.Request{Symbol: symbol, Type: order.TypeMarket}
	lots := s.orders.Lots()
	valid := in.Validate() == nil
	switch in.Kind {
	case strategy.KindBuyFraction:
		req.Side = order.SideBuy
		if valid && q.HasBar {
			req.Quantity = s.affordable(s.book.Cash()*in.Fraction, s.orders.FillPrice(order.SideBuy, q))
		}
	case strategy.KindSellFraction:
		req.Side = order.SideSell
		held := s.book.Holding(symbol)
		if valid {
			req.Quantity = lots.RoundDown(int64(float64(held) * in.Fraction))
			if held > 0 && held < lots.LotSize {
				req.Quantity = held
			}
		}
	case strategy.KindSellAll:
		req.Side = order.SideSell
		req.Quantity = s.book.Holding(symbol)
	default:
		req.Side = order.Side(in.Kind.String())
	}
	return req
}

func (s *Session) affordable(budget, price float64) int64 {
	lot := s.orders.Lots().LotSize
	if budget <= 0 || price <= 0 {
		return 0
	}
	costs := s.orders.Config().Costs
	n := int64(budget / (price * float64(lot)))
	for n > 0 && costs.BuyCost(n*lot, price) > budget {
		n--
	}
	return n * lot
}

// Skip 记录缺失 K 线的告警。
func (s *Session) Skip(date time.Time, symbol, reason string) {
	w := Warning{Date: market.Day(date), Symbol: symbol, Reason: reason}
	s.warnings = append(s.warnings, w)
	s.mon.RecordSkip()
	s.log.LogSkip(s.cfg.RunID, symbol, w.Date, reason)
}

// Mark 当日全部成交之后以收盘价估值，追加一个权益点。
func (s *Session) Mark(date time.Time) (float64, error) {
	date = market.Day(date)
	equity, err := s.book.MarkToMarket(date, s.universe.Closes(date))
	if err != nil {
		return equity, err
	}
	s.mon.UpdatePortfolio(equity, s.book.Cash())
	return equity, nil
}

func (s *Session) Config() config.RunConfig { return s.cfg }

func (s *Session) Universe() *market.Universe { return s.universe }

// Snapshot 策略可见的只读组合视图。
func (s *Session) Snapshot() portfolio.State { return s.book.Snapshot() }

func (s *Session) Cash() float64 { return s.book.Cash() }

func (s *Session) Equity() float64 { return s.book.Equity() }

func (s *Session) Holding(symbol string) int64 { return s.book.Holding(symbol) }

func (s *Session) Curve() []portfolio.EquityPoint { return s.book.Curve() }

func (s *Session) ClosedTrades() []portfolio.ClosedTrade { return s.book.ClosedTrades() }

func (s *Session) Orders() []order.Order { return s.orders.Orders() }

// Trades 交易日志拷贝。
func (s *Session) Trades() []TradeEvent { return append([]TradeEvent(nil), s.trades...) }

func (s *Session) Warnings() []Warning { return append([]Warning(nil), s.warnings...) }

// Fills 按发生顺序返回全部成交。
func (s *Session) Fills() []order.Fill {
	var out []order.Fill
	for _, ev := range s.trades {
		if ev.Fill != nil {
			out = append(out, *ev.Fill)
		}
	}
	return out
}
