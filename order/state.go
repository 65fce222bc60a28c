package order

import (
	"fmt"
	"time"
)

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Type is the order type.
type Type string

const (
	TypeMarket Type = "MARKET"
	TypeLimit  Type = "LIMIT"
)

// Status represents order lifecycle.
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusSubmitted       Status = "SUBMITTED"
	StatusPartiallyFilled Status = "PARTIALLY_FILLED"
	StatusFilled          Status = "FILLED"
	StatusCancelled       Status = "CANCELLED"
	StatusRejected        Status = "REJECTED"
)

// Order holds one simulated order. CreatedAt is the bar date, never wall clock.
type Order struct {
	ID           string
	Symbol       string
	Side         Side
	Type         Type
	Quantity     int64
	LimitPrice   float64
	Status       Status
	CreatedAt    time.Time
	FilledQty    int64
	AvgFillPrice float64
	RejectReason RejectReason
}

// NewOrder 由请求创建一张 PENDING 订单。
func NewOrder(id string, req Request, date time.Time) *Order {
	typ := req.Type
	if typ == "" {
		typ = TypeMarket
	}
	return &Order{
		ID:         id,
		Symbol:     req.Symbol,
		Side:       req.Side,
		Type:       typ,
		Quantity:   req.Quantity,
		LimitPrice: req.LimitPrice,
		Status:     StatusPending,
		CreatedAt:  date,
	}
}

func (o *Order) transition(to Status) error {
	if err := ValidateTransition(o.Status, to); err != nil {
		return fmt.Errorf("order %s: %w", o.ID, err)
	}
	o.Status = to
	return nil
}

// Submit PENDING -> SUBMITTED。
func (o *Order) Submit() error {
	return o.transition(StatusSubmitted)
}

// ApplyFill 累加成交并维护成交均价；满额后进入 FILLED。
func (o *Order) ApplyFill(qty int64, price float64) error {
	if qty <= 0 || price <= 0 || o.FilledQty+qty > o.Quantity {
		return fmt.Errorf("order %s: %w: qty=%d price=%.4f filled=%d/%d",
			o.ID, ErrInvalidFill, qty, price, o.FilledQty, o.Quantity)
	}
	next := StatusPartiallyFilled
	if o.FilledQty+qty == o.Quantity {
		next = StatusFilled
	}
	if err := o.transition(next); err != nil {
		return err
	}
	notional := o.AvgFillPrice*float64(o.FilledQty) + price*float64(qty)
	o.FilledQty += qty
	o.AvgFillPrice = notional / float64(o.FilledQty)
	return nil
}

// Reject PENDING -> REJECTED。
func (o *Order) Reject(reason RejectReason) error {
	if err := o.transition(StatusRejected); err != nil {
		return err
	}
	o.RejectReason = reason
	return nil
}

// CancelRemaining 撤销未成交部分。
func (o *Order) CancelRemaining() error {
	return o.transition(StatusCancelled)
}
