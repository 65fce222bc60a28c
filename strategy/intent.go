package strategy

import "fmt"

// Kind 交易意图类别。
type Kind int

const (
	KindHold Kind = iota
	KindBuyFraction
	KindSellFraction
	KindSellAll
)

func (k Kind) String() string {
	switch k {
	case KindHold:
		return "HOLD"
	case KindBuyFraction:
		return "BUY_FRACTION"
	case KindSellFraction:
		return "SELL_FRACTION"
	case KindSellAll:
		return "SELL_ALL"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Intent 策略输出的抽象决策，由回测器换算为具体股数。
// Fraction 对买入是可用现金比例，对卖出是持仓比例，取值 (0,1]。
type Intent struct {
	Kind     Kind
	Fraction float64
}

func Hold() Intent { return Intent{Kind: KindHold} }

func BuyFraction(f float64) Intent { return Intent{Kind: KindBuyFraction, Fraction: f} }

func SellFraction(f float64) Intent { return Intent{Kind: KindSellFraction, Fraction: f} }

func SellAll() Intent { return Intent{Kind: KindSellAll, Fraction: 1} }

// IsHold 不产生订单请求。
func (i Intent) IsHold() bool { return i.Kind == KindHold }

// Validate 比例越界或类别未知时返回错误。
func (i Intent) Validate() error {
	switch i.Kind {
	case KindHold, KindSellAll:
		return nil
	case KindBuyFraction, KindSellFraction:
		if !(i.Fraction > 0 && i.Fraction <= 1) {
			return fmt.Errorf("%s fraction %v out of (0,1]", i.Kind, i.Fraction)
		}
		return nil
	default:
		return fmt.Errorf("unknown intent kind %d", int(i.Kind))
	}
}

func (i Intent) String() string {
	switch i.Kind {
	case KindBuyFraction, KindSellFraction:
		return fmt.Sprintf("%s(%.2f)", i.Kind, i.Fraction)
	default:
		return i.Kind.String()
	}
}
