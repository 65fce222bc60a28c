package order

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"tradesim/market"
)

// Holdings 撮合所需的组合只读视图，由 portfolio.Manager 实现。
type Holdings interface {
	Cash() float64
	Holding(symbol string) int64
	Sellable(symbol string, date time.Time) int64
}

// Calendar 用于推算结算日。
type Calendar interface {
	Offset(date time.Time, n int) (time.Time, bool)
}

// Config 撮合参数。
type Config struct {
	RunID               string
	Costs               CostModel
	SlippagePct         float64
	Limit               PriceLimit
	LotSize             int64
	SettlementDelayBars int
}

// Validate 配置错误在回测开始前即为致命错误。
func (c Config) Validate() error {
	if err := c.Costs.Validate(); err != nil {
		return err
	}
	if c.SlippagePct < 0 || c.SlippagePct >= 1 {
		return fmt.Errorf("slippagePct %.4f must be in [0,1)", c.SlippagePct)
	}
	if c.Limit.Pct < 0 || c.Limit.Pct >= 1 {
		return fmt.Errorf("priceLimitPct %.4f must be in [0,1)", c.Limit.Pct)
	}
	if c.LotSize < 1 {
		return fmt.Errorf("lotSize %d must be >= 1", c.LotSize)
	}
	if c.SettlementDelayBars < 0 {
		return fmt.Errorf("settlementDelayBars %d must be >= 0", c.SettlementDelayBars)
	}
	return nil
}

// Manager 校验请求并按当日 K 线撮合；每个请求恰好产生一个 Fill 或一个 *Rejection。
type Manager struct {
	cfg      Config
	lots     LotConstraint
	calendar Calendar
	book     *Book
	seq      uint64
}

func NewManager(cfg Config, calendar Calendar) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		cfg:      cfg,
		lots:     LotConstraint{LotSize: cfg.LotSize},
		calendar: calendar,
		book:     NewBook(),
	}, nil
}

// Config 返回撮合配置。
func (m *Manager) Config() Config { return m.cfg }

// Lots 返回整手规则。
func (m *Manager) Lots() LotConstraint { return m.lots }

// Orders 按提交顺序返回全部订单。
func (m *Manager) Orders() []Order { return m.book.List() }

// Reset 清空订单记录并重置 ID 序列。
func (m *Manager) Reset() {
	m.book.Reset()
	m.seq = 0
}

// FillPrice 收盘价按滑点调整后再夹到涨跌停价格带内。
func (m *Manager) FillPrice(side Side, q market.Quote) float64 {
	price := q.Bar.Close
	if side == SideBuy {
		price *= 1 + m.cfg.SlippagePct
	} else {
		price *= 1 - m.cfg.SlippagePct
	}
	return m.cfg.Limit.Clamp(price, q.PrevClose)
}

// Submit 按顺序校验：行情 -> 数量 -> 结算 -> 价格带/限价 -> 费用 -> 资金。
func (m *Manager) Submit(req Request, q market.Quote, h Holdings) (Fill, error) {
	o := NewOrder(m.nextID(), req, q.Date)
	reject := func(reason RejectReason, format string, args ...any) (Fill, error) {
		if err := o.Reject(reason); err != nil {
			return Fill{}, err
		}
		m.book.Set(*o)
		return Fill{}, &Rejection{
			OrderID:  o.ID,
			Symbol:   o.Symbol,
			Side:     o.Side,
			Quantity: o.Quantity,
			Date:     q.Date,
			Reason:   reason,
			Detail:   fmt.Sprintf(format, args...),
		}
	}

	if !q.HasBar || q.Symbol != req.Symbol {
		return reject(RejectNoBar, "no bar for %s", req.Symbol)
	}
	if req.Side != SideBuy && req.Side != SideSell {
		return reject(RejectInvalidQuantity, "unknown side %q", req.Side)
	}
	if req.Quantity <= 0 && req.Side == SideSell && h.Holding(req.Symbol) == 0 {
		return reject(RejectNoPosition, "no holding in %s", req.Symbol)
	}
	if err := m.lots.Validate(req.Side, req.Quantity); err != nil {
		return reject(RejectInvalidQuantity, "%v", err)
	}
	if req.Side == SideSell {
		if held := h.Holding(req.Symbol); held < req.Quantity {
			return reject(RejectInvalidQuantity, "sell %d exceeds holding %d", req.Quantity, held)
		}
		if settled := h.Sellable(req.Symbol, q.Date); settled < req.Quantity {
			return reject(RejectUnsettled, "sell %d exceeds settled %d", req.Quantity, settled)
		}
	}
	if !m.cfg.Limit.Tradable(req.Side, q.Bar.Close, q.PrevClose) {
		return reject(RejectLimitBreach, "close %.4f at limit (prev %.4f, pct %.4f)", q.Bar.Close, q.PrevClose, m.cfg.Limit.Pct)
	}
	price := m.FillPrice(req.Side, q)
	if o.Type == TypeLimit {
		if o.LimitPrice <= 0 ||
			(req.Side == SideBuy && price > o.LimitPrice) ||
			(req.Side == SideSell && price < o.LimitPrice) {
			return reject(RejectLimitPrice, "fill %.4f vs limit %.4f", price, o.LimitPrice)
		}
	}
	amount, commission, stamp := m.cfg.Costs.Breakdown(req.Side, req.Quantity, price)
	fill := Fill{
		OrderID:    o.ID,
		Symbol:     o.Symbol,
		Side:       o.Side,
		Quantity:   req.Quantity,
		Price:      price,
		Amount:     amount,
		Commission: commission,
		StampDuty:  stamp,
		Date:       q.Date,
	}
	// 卖出所得不足以支付最低佣金和印花税时同样拒绝，现金不得为负
	if delta := fill.CashDelta(); h.Cash()+delta < 0 {
		return reject(RejectInsufficientCash, "cash %.2f, fill changes it by %.4f", h.Cash(), delta)
	}

	if err := o.Submit(); err != nil {
		return Fill{}, err
	}
	if err := o.ApplyFill(req.Quantity, price); err != nil {
		return Fill{}, err
	}
	m.book.Set(*o)
	fill.SettleDate = m.settleDate(q.Date)
	return fill, nil
}

func (m *Manager) settleDate(date time.Time) time.Time {
	if m.cfg.SettlementDelayBars == 0 {
		return date
	}
	if m.calendar == nil {
		return time.Time{}
	}
	d, _ := m.calendar.Offset(date, m.cfg.SettlementDelayBars)
	return d
}

var idSpace = uuid.MustParse("6f1c8f0e-3b7a-4c55-9d2e-5a0b7c1d9e42")

// nextID 基于 runID 与序号生成 name-based UUID，同一输入重复运行得到相同 ID。
func (m *Manager) nextID() string {
	m.seq++
	return uuid.NewSHA1(idSpace, []byte(m.cfg.RunID+"|"+strconv.FormatUint(m.seq, 10))).String()
}
