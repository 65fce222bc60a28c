package order

import (
	"errors"
	"fmt"
	"time"
)

// Request 由意图换算出的具体下单请求。
type Request struct {
	Symbol     string
	Side       Side
	Type       Type // 为空按 MARKET 处理
	Quantity   int64
	LimitPrice float64
}

// Fill 一次完整成交。Amount = Quantity × Price，佣金与印花税单列。
type Fill struct {
	OrderID    string
	Symbol     string
	Side       Side
	Quantity   int64
	Price      float64
	Amount     float64
	Commission float64
	StampDuty  float64
	Date       time.Time
	SettleDate time.Time // 可卖出的首个交易日；零值表示超出日历
}

// Fees 佣金 + 印花税。
func (f Fill) Fees() float64 { return f.Commission + f.StampDuty }

// CashDelta 成交对现金的影响：买入为负，卖出为正。
func (f Fill) CashDelta() float64 {
	if f.Side == SideBuy {
		return -(f.Amount + f.Commission)
	}
	return f.Amount - f.Commission - f.StampDuty
}

// RejectReason 请求被拒绝的原因。
type RejectReason string

const (
	RejectNoBar            RejectReason = "NO_BAR"
	RejectInvalidQuantity  RejectReason = "INVALID_QUANTITY"
	RejectNoPosition       RejectReason = "NO_POSITION"
	RejectUnsettled        RejectReason = "UNSETTLED"
	RejectLimitBreach      RejectReason = "LIMIT_BREACH"
	RejectLimitPrice       RejectReason = "LIMIT_PRICE"
	RejectInsufficientCash RejectReason = "INSUFFICIENT_CASH"
)

var (
	ErrNoBar            = errors.New("no bar for symbol on date")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrNoPosition       = errors.New("no position to sell")
	ErrUnsettled        = errors.New("shares not yet settled")
	ErrLimitBreach      = errors.New("price limit breached")
	ErrLimitPrice       = errors.New("limit price not reached")
	ErrInsufficientCash = errors.New("insufficient cash")
)

var reasonErrors = map[RejectReason]error{
	RejectNoBar:            ErrNoBar,
	RejectInvalidQuantity:  ErrInvalidQuantity,
	RejectNoPosition:       ErrNoPosition,
	RejectUnsettled:        ErrUnsettled,
	RejectLimitBreach:      ErrLimitBreach,
	RejectLimitPrice:       ErrLimitPrice,
	RejectInsufficientCash: ErrInsufficientCash,
}

// Rejection 请求级拒绝，非致命。实现 error，可用 errors.Is 匹配上面的哨兵错误。
type Rejection struct {
	OrderID  string
	Symbol   string
	Side     Side
	Quantity int64
	Date     time.Time
	Reason   RejectReason
	Detail   string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s %s %d %s rejected on %s: %s (%s)",
		r.Side, r.Symbol, r.Quantity, r.OrderID, r.Date.Format(time.DateOnly), r.Reason, r.Detail)
}

func (r *Rejection) Unwrap() error { return reasonErrors[r.Reason] }

// AsRejection 从 error 中提取 *Rejection。
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
