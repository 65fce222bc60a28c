package env

import (
	"fmt"

	"tradesim/strategy"
)

// Action 外部策略可选的离散动作。
type Action int

const (
	Hold Action = iota
	Buy25
	Buy50
	Sell50
	SellAll
)

// NumActions 动作空间大小。
const NumActions = 5

func (a Action) String() string {
	switch a {
	case Hold:
		return "HOLD"
	case Buy25:
		return "BUY_25"
	case Buy50:
		return "BUY_50"
	case Sell50:
		return "SELL_50"
	case SellAll:
		return "SELL_ALL"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

// Intent 动作到交易意图的映射。
func (a Action) Intent() (strategy.Intent, error) {
	switch a {
	case Hold:
		return strategy.Hold(), nil
	case Buy25:
		return strategy.BuyFraction(0.25), nil
	case Buy50:
		return strategy.BuyFraction(0.5), nil
	case Sell50:
		return strategy.SellFraction(0.5), nil
	case SellAll:
		return strategy.SellAll(), nil
	default:
		return strategy.Intent{}, fmt.Errorf("%w: %d", ErrInvalidAction, int(a))
	}
}
