package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Monitor Prometheus监控指标收集器。
// 采集器本身并发安全，可被多个回测实例共享；回测逻辑从不读取它。
// nil *Monitor 上的所有记录方法都是空操作。
type Monitor struct {
	registry *prometheus.Registry

	// 回放指标
	barsProcessed prometheus.Counter
	dataSkips     prometheus.Counter

	// 订单指标
	ordersSubmitted prometheus.Counter
	fills           *prometheus.CounterVec
	rejections      *prometheus.CounterVec

	// 组合指标
	equity prometheus.Gauge
	cash   prometheus.Gauge

	// 运行指标
	runs *prometheus.CounterVec
}

// Config 监控配置
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "tradesim",
		Subsystem: "backtest",
	}
}

// New 创建新的Monitor实例，每个实例拥有独立的 registry
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()

	// 创建factory
	factory := promauto.With(reg)

	return &Monitor{
		registry: reg,

		barsProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "bars_processed_total",
			Help:      "已回放的交易日数",
		}),
		dataSkips: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "data_skips_total",
			Help:      "因缺失 K 线跳过的标的/日期数",
		}),
		ordersSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "orders_submitted_total",
			Help:      "提交到撮合的订单总数",
		}),
		fills: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "fills_total",
				Help:      "成交总数",
			},
			[]string{"side"},
		),
		rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "rejections_total",
				Help:      "拒单总数",
			},
			[]string{"reason"},
		),
		equity: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "equity",
			Help:      "最近一次估值的总权益",
		}),
		cash: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "cash",
			Help:      "最近一次估值的现金",
		}),
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "runs_total",
				Help:      "完成的回测次数",
			},
			[]string{"status"},
		),
	}
}

func (m *Monitor) RecordBar() {
	if m == nil {
		return
	}
	m.barsProcessed.Inc()
}

func (m *Monitor) RecordSkip() {
	if m == nil {
		return
	}
	m.dataSkips.Inc()
}

func (m *Monitor) RecordOrderSubmitted() {
	if m == nil {
		return
	}
	m.ordersSubmitted.Inc()
}

func (m *Monitor) RecordFill(side string) {
	if m == nil {
		return
	}
	m.fills.WithLabelValues(side).Inc()
}

func (m *Monitor) RecordRejection(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

// UpdatePortfolio 记录估值后的权益与现金
func (m *Monitor) UpdatePortfolio(equity, cash float64) {
	if m == nil {
		return
	}
	m.equity.Set(equity)
	m.cash.Set(cash)
}

// RecordRun status 取 completed / cancelled / failed
func (m *Monitor) RecordRun(status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
}

// Registry 返回prometheus registry
func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}
