package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"tradesim/infrastructure/logger"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env         string            `yaml:"env"`
	Log         logger.Config     `yaml:"log"`
	Run         RunConfig         `yaml:"run"`
	Data        map[string]string `yaml:"data"` // symbol -> CSV 路径
	Sweep       SweepConfig       `yaml:"sweep"`
	MetricsAddr string            `yaml:"metricsAddr"`
}

// RunConfig 单次回测/环境的参数，构造后不再修改。
type RunConfig struct {
	RunID               string         `yaml:"runId"`               // 订单 ID 命名空间
	InitialCash         float64        `yaml:"initialCash"`         // 初始资金，必须 > 0
	CommissionRate      float64        `yaml:"commissionRate"`      // 佣金费率（双边）
	MinFee              float64        `yaml:"minFee"`              // 单笔最低佣金
	StampDutyRate       float64        `yaml:"stampDutyRate"`       // 印花税，仅卖出
	SlippagePct         float64        `yaml:"slippagePct"`         // 收盘价滑点比例
	PriceLimitPct       float64        `yaml:"priceLimitPct"`       // 涨跌停幅度，0 表示不限制
	SettlementDelayBars int            `yaml:"settlementDelayBars"` // 买入后可卖的交易日间隔（T+1 为 1）
	LotSize             int64          `yaml:"lotSize"`             // 每手股数
	LookbackWindow      int            `yaml:"lookbackWindow"`      // 策略可见的历史 K 线数
	PeriodsPerYear      int            `yaml:"periodsPerYear"`      // 年化系数
	Strategy            StrategyConfig `yaml:"strategy"`
}

// StrategyConfig 策略选择与参数；Type 决定其余字段中哪些生效。
type StrategyConfig struct {
	Type         string  `yaml:"type"`         // buy_and_hold | sma_cross | screen | policy
	Fraction     float64 `yaml:"fraction"`     // 买入占用现金比例
	Fast         int     `yaml:"fast"`         // sma_cross 快线周期
	Slow         int     `yaml:"slow"`         // sma_cross 慢线周期
	Fundamentals string  `yaml:"fundamentals"` // screen 基本面 YAML 路径
	MaxPE        float64 `yaml:"maxPE"`
	MinROE       float64 `yaml:"minROE"`
	ExitPE       float64 `yaml:"exitPE"`
	ExitROE      float64 `yaml:"exitROE"`
}

// SweepConfig walk-forward 与参数扫描。
type SweepConfig struct {
	Parallel        int       `yaml:"parallel"`
	TrainBars       int       `yaml:"trainBars"`
	TestBars        int       `yaml:"testBars"`
	StepBars        int       `yaml:"stepBars"`
	CommissionRates []float64 `yaml:"commissionRates"`
}

const (
	StrategyBuyAndHold = "buy_and_hold"
	StrategySMACross   = "sma_cross"
	StrategyScreen     = "screen"
	StrategyPolicy     = "policy"
)

// Default 返回默认配置；Load 在解析 YAML 前先填充默认值，因此显式写 0 的字段不会被覆盖。
func Default() AppConfig {
	return AppConfig{
		Env: "dev",
		Log: logger.DefaultConfig(),
		Run: DefaultRun(),
		Sweep: SweepConfig{
			Parallel: 1,
		},
	}
}

// DefaultRun 默认 A 股日线规则：T+1、100 股一手、252 个交易日。
func DefaultRun() RunConfig {
	return RunConfig{
		RunID:               "backtest",
		SettlementDelayBars: 1,
		LotSize:             100,
		LookbackWindow:      20,
		PeriodsPerYear:      252,
		Strategy: StrategyConfig{
			Type:     StrategyBuyAndHold,
			Fraction: 1,
		},
	}
}

// Load reads YAML config from path and applies basic validation.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides run fields from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, Validate(cfg)
}

func applyEnv(cfg *AppConfig) error {
	if v := os.Getenv("BT_RUN_ID"); v != "" {
		cfg.Run.RunID = v
	}
	if v := os.Getenv("BT_INITIAL_CASH"); v != "" {
		cash, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("BT_INITIAL_CASH: %w", err)
		}
		cfg.Run.InitialCash = cash
	}
	return nil
}
