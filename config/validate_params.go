package config

import (
	"fmt"
	"math"
)

// ErrInvalid 用于参数验证错误。
type ErrInvalid string

func (e ErrInvalid) Error() string { return string(e) }

func invalidf(format string, args ...any) error {
	return ErrInvalid(fmt.Sprintf(format, args...))
}

// Validate 配置错误在第一根 K 线之前即为致命错误。
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return ErrInvalid("env is required")
	}
	if err := ValidateRun(cfg.Run); err != nil {
		return err
	}
	for sym, path := range cfg.Data {
		if sym == "" || path == "" {
			return invalidf("data entry %q -> %q must name a symbol and a csv path", sym, path)
		}
	}
	return ValidateSweep(cfg.Sweep)
}

// ValidateRun 校验单次运行参数。
func ValidateRun(r RunConfig) error {
	if r.RunID == "" {
		return ErrInvalid("run.runId is required")
	}
	if !(r.InitialCash > 0) || math.IsInf(r.InitialCash, 0) {
		return invalidf("run.initialCash must be > 0, got %v", r.InitialCash)
	}
	rates := []struct {
		name string
		v    float64
	}{
		{"run.commissionRate", r.CommissionRate},
		{"run.minFee", r.MinFee},
		{"run.stampDutyRate", r.StampDutyRate},
		{"run.slippagePct", r.SlippagePct},
		{"run.priceLimitPct", r.PriceLimitPct},
	}
	for _, rate := range rates {
		if rate.v < 0 || math.IsNaN(rate.v) {
			return invalidf("%s must be >= 0, got %v", rate.name, rate.v)
		}
	}
	if r.CommissionRate >= 1 || r.StampDutyRate >= 1 || r.SlippagePct >= 1 || r.PriceLimitPct >= 1 {
		return ErrInvalid("run rates must be < 1")
	}
	if r.SettlementDelayBars < 0 {
		return invalidf("run.settlementDelayBars must be >= 0, got %d", r.SettlementDelayBars)
	}
	if r.LotSize < 1 {
		return invalidf("run.lotSize must be >= 1, got %d", r.LotSize)
	}
	if r.LookbackWindow < 1 {
		return invalidf("run.lookbackWindow must be >= 1, got %d", r.LookbackWindow)
	}
	if r.PeriodsPerYear < 1 {
		return invalidf("run.periodsPerYear must be >= 1, got %d", r.PeriodsPerYear)
	}
	return ValidateStrategy(r.Strategy, r.LookbackWindow)
}

// ValidateStrategy 策略参数需与回看窗口匹配。
func ValidateStrategy(s StrategyConfig, lookback int) error {
	switch s.Type {
	case StrategyPolicy:
		return nil
	case StrategyBuyAndHold, StrategySMACross, StrategyScreen:
	default:
		return invalidf("strategy.type %q is unknown", s.Type)
	}
	if !(s.Fraction > 0 && s.Fraction <= 1) {
		return invalidf("strategy.fraction must be in (0,1], got %v", s.Fraction)
	}
	switch s.Type {
	case StrategySMACross:
		if s.Fast < 1 || s.Slow <= s.Fast {
			return invalidf("strategy fast/slow must satisfy 1 <= fast < slow, got %d/%d", s.Fast, s.Slow)
		}
		if lookback <= s.Slow {
			return invalidf("run.lookbackWindow %d must exceed strategy.slow %d", lookback, s.Slow)
		}
	case StrategyScreen:
		if s.Fundamentals == "" {
			return ErrInvalid("strategy.fundamentals is required for screen")
		}
		if s.MaxPE <= 0 || s.ExitPE < s.MaxPE {
			return invalidf("strategy pe thresholds must satisfy 0 < maxPE <= exitPE, got %v/%v", s.MaxPE, s.ExitPE)
		}
		if s.ExitROE > s.MinROE {
			return invalidf("strategy roe thresholds must satisfy exitROE <= minROE, got %v/%v", s.ExitROE, s.MinROE)
		}
	}
	return nil
}

// ValidateSweep walk-forward 窗口必须同时给出或同时省略。
func ValidateSweep(s SweepConfig) error {
	if s.Parallel < 0 {
		return invalidf("sweep.parallel must be >= 0, got %d", s.Parallel)
	}
	if s.TrainBars < 0 || s.TestBars < 0 || s.StepBars < 0 {
		return ErrInvalid("sweep window sizes must be >= 0")
	}
	if (s.TestBars == 0) != (s.StepBars == 0) {
		return ErrInvalid("sweep.testBars and sweep.stepBars must be set together")
	}
	for _, r := range s.CommissionRates {
		if r < 0 || r >= 1 {
			return invalidf("sweep.commissionRates entry %v must be in [0,1)", r)
		}
	}
	return nil
}
