package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

const baseConfig = `
env: dev
run:
  runId: demo
  initialCash: 100000
  commissionRate: 0.0003
  minFee: 5
  stampDutyRate: 0.001
data:
  "600000": data/600000.csv
`

func TestLoad(t *testing.T) {
	path := writeTempConfig(t, baseConfig)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "demo", cfg.Run.RunID)
	assert.Equal(t, 100000.0, cfg.Run.InitialCash)
	assert.Equal(t, "data/600000.csv", cfg.Data["600000"])
	// 未填写的字段使用默认值
	assert.Equal(t, 1, cfg.Run.SettlementDelayBars)
	assert.Equal(t, int64(100), cfg.Run.LotSize)
	assert.Equal(t, 252, cfg.Run.PeriodsPerYear)
	assert.Equal(t, StrategyBuyAndHold, cfg.Run.Strategy.Type)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadKeepsExplicitZero(t *testing.T) {
	path := writeTempConfig(t, `
env: dev
run:
  initialCash: 1000
  settlementDelayBars: 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Run.SettlementDelayBars)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeTempConfig(t, baseConfig)
	t.Setenv("BT_RUN_ID", "env-run")
	t.Setenv("BT_INITIAL_CASH", "250000")
	cfg, err := LoadWithEnvOverrides(path)
	require.NoError(t, err)
	assert.Equal(t, "env-run", cfg.Run.RunID)
	assert.Equal(t, 250000.0, cfg.Run.InitialCash)

	t.Setenv("BT_INITIAL_CASH", "lots")
	_, err = LoadWithEnvOverrides(path)
	assert.Error(t, err)

	t.Setenv("BT_INITIAL_CASH", "0")
	_, err = LoadWithEnvOverrides(path)
	var inv ErrInvalid
	assert.True(t, errors.As(err, &inv))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	err := Validate(AppConfig{})
	if err == nil {
		t.Fatalf("expected error for empty config")
	}

	valid := Default()
	valid.Run.InitialCash = 1000
	require.NoError(t, Validate(valid))

	cases := map[string]func(*AppConfig){
		"zero cash":         func(c *AppConfig) { c.Run.InitialCash = 0 },
		"negative rate":     func(c *AppConfig) { c.Run.CommissionRate = -0.001 },
		"negative min fee":  func(c *AppConfig) { c.Run.MinFee = -1 },
		"negative stamp":    func(c *AppConfig) { c.Run.StampDutyRate = -0.1 },
		"limit too wide":    func(c *AppConfig) { c.Run.PriceLimitPct = 1 },
		"negative delay":    func(c *AppConfig) { c.Run.SettlementDelayBars = -1 },
		"zero lot":          func(c *AppConfig) { c.Run.LotSize = 0 },
		"zero window":       func(c *AppConfig) { c.Run.LookbackWindow = 0 },
		"unknown strategy":  func(c *AppConfig) { c.Run.Strategy.Type = "martingale" },
		"fraction too big":  func(c *AppConfig) { c.Run.Strategy.Fraction = 1.5 },
		"empty data path":   func(c *AppConfig) { c.Data = map[string]string{"600000": ""} },
		"half walk-forward": func(c *AppConfig) { c.Sweep.TestBars = 20 },
		"sweep rate":        func(c *AppConfig) { c.Sweep.CommissionRates = []float64{-1} },
		"sma order": func(c *AppConfig) {
			c.Run.Strategy = StrategyConfig{Type: StrategySMACross, Fraction: 1, Fast: 10, Slow: 5}
		},
		"sma window": func(c *AppConfig) {
			c.Run.Strategy = StrategyConfig{Type: StrategySMACross, Fraction: 1, Fast: 5, Slow: 20}
		},
		"screen without table": func(c *AppConfig) {
			c.Run.Strategy = StrategyConfig{Type: StrategyScreen, Fraction: 1, MaxPE: 10, ExitPE: 20}
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			cfg.Run = valid.Run
			mutate(&cfg)
			var inv ErrInvalid
			assert.True(t, errors.As(Validate(cfg), &inv))
		})
	}
}

func TestValidatePolicySkipsFraction(t *testing.T) {
	run := DefaultRun()
	run.InitialCash = 1000
	run.Strategy = StrategyConfig{Type: StrategyPolicy}
	assert.NoError(t, ValidateRun(run))
}
