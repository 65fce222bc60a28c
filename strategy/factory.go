package strategy

import (
	"fmt"

	"tradesim/config"
)

// New 按配置构造策略，策略类型在构造时确定。
func New(cfg config.StrategyConfig) (Strategy, error) {
	if cfg.Type != config.StrategyPolicy {
		if err := BuyFraction(cfg.Fraction).Validate(); err != nil {
			return nil, fmt.Errorf("strategy %s: %w", cfg.Type, err)
		}
	}
	switch cfg.Type {
	case config.StrategyBuyAndHold:
		return BuyAndHold{Fraction: cfg.Fraction}, nil
	case config.StrategySMACross:
		if cfg.Fast < 1 || cfg.Slow <= cfg.Fast {
			return nil, fmt.Errorf("invalid sma_cross periods %d/%d", cfg.Fast, cfg.Slow)
		}
		return SMACross{Fast: cfg.Fast, Slow: cfg.Slow, Fraction: cfg.Fraction}, nil
	case config.StrategyScreen:
		table, err := LoadFundamentals(cfg.Fundamentals)
		if err != nil {
			return nil, err
		}
		return Screen{
			Table:    table,
			MaxPE:    cfg.MaxPE,
			MinROE:   cfg.MinROE,
			ExitPE:   cfg.ExitPE,
			ExitROE:  cfg.ExitROE,
			Fraction: cfg.Fraction,
		}, nil
	case config.StrategyPolicy:
		return NewPolicy(), nil
	default:
		return nil, fmt.Errorf("unknown strategy type: %s", cfg.Type)
	}
}
