package monitor

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorCounters(t *testing.T) {
	m := New(DefaultConfig())
	m.RecordBar()
	m.RecordBar()
	m.RecordSkip()
	m.RecordOrderSubmitted()
	m.RecordFill("BUY")
	m.RecordRejection("NO_POSITION")
	m.RecordRejection("NO_POSITION")
	m.UpdatePortfolio(101.5, 20)
	m.RecordRun("completed")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.barsProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dataSkips))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ordersSubmitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fills.WithLabelValues("BUY")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.rejections.WithLabelValues("NO_POSITION")))
	assert.Equal(t, 101.5, testutil.ToFloat64(m.equity))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.cash))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("completed")))
}

func TestMonitorsAreIsolated(t *testing.T) {
	a := New(DefaultConfig())
	b := New(DefaultConfig())
	a.RecordBar()
	assert.Equal(t, 0.0, testutil.ToFloat64(b.barsProcessed))
}

func TestNilMonitorIsNoop(t *testing.T) {
	var m *Monitor
	assert.NotPanics(t, func() {
		m.RecordBar()
		m.RecordSkip()
		m.RecordOrderSubmitted()
		m.RecordFill("SELL")
		m.RecordRejection("UNSETTLED")
		m.UpdatePortfolio(1, 1)
		m.RecordRun("failed")
	})
}

func TestRegistryIsPerInstance(t *testing.T) {
	a, b := New(DefaultConfig()), New(DefaultConfig())
	a.RecordBar()

	families, err := b.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "tradesim_backtest_bars_processed_total" {
			assert.Zero(t, f.GetMetric()[0].GetCounter().GetValue())
		}
	}
	n, err := testutil.GatherAndCount(a.Registry(), "tradesim_backtest_bars_processed_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
