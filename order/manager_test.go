package order

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesim/market"
)

type stubHoldings struct {
	cash    float64
	held    map[string]int64
	settled map[string]int64
}

func (s stubHoldings) Cash() float64                             { return s.cash }
func (s stubHoldings) Holding(symbol string) int64               { return s.held[symbol] }
func (s stubHoldings) Sellable(symbol string, _ time.Time) int64 { return s.settled[symbol] }

type dailyCalendar struct{}

func (dailyCalendar) Offset(date time.Time, n int) (time.Time, bool) {
	return date.AddDate(0, 0, n), true
}

var testDay = time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

func testQuote(close, prev float64) market.Quote {
	return market.Quote{
		Symbol:    "600000",
		Date:      testDay,
		Bar:       market.Bar{Date: testDay, Open: close, High: close, Low: close, Close: close},
		HasBar:    true,
		PrevClose: prev,
	}
}

func newTestManager(t *testing.T, mutate func(*Config)) *Manager {
	t.Helper()
	cfg := Config{
		RunID:               "test",
		Costs:               CostModel{CommissionRate: 0.0003, MinFee: 5, StampDutyRate: 0.001},
		LotSize:             100,
		SettlementDelayBars: 1,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	m, err := NewManager(cfg, dailyCalendar{})
	require.NoError(t, err)
	return m
}

func rejectionReason(t *testing.T, err error) RejectReason {
	t.Helper()
	rej, ok := AsRejection(err)
	require.True(t, ok, "expected *Rejection, got %v", err)
	return rej.Reason
}

func TestManagerBuyFill(t *testing.T) {
	m := newTestManager(t, nil)
	f, err := m.Submit(Request{Symbol: "600000", Side: SideBuy, Quantity: 1000}, testQuote(10, 10), stubHoldings{cash: 100000})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), f.Quantity)
	assert.Equal(t, 10.0, f.Price)
	assert.InDelta(t, 10000, f.Amount, 1e-9)
	assert.Equal(t, 5.0, f.Commission)
	assert.Zero(t, f.StampDuty)
	assert.Equal(t, testDay.AddDate(0, 0, 1), f.SettleDate)

	orders := m.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, StatusFilled, orders[0].Status)
	assert.Equal(t, f.OrderID, orders[0].ID)
}

func TestManagerValidationOrder(t *testing.T) {
	cases := []struct {
		name   string
		req    Request
		quote  market.Quote
		hold   stubHoldings
		reason RejectReason
		sent   error
	}{
		{
			name:   "missing bar",
			req:    Request{Symbol: "600000", Side: SideBuy, Quantity: 100},
			quote:  market.Quote{Symbol: "600000", Date: testDay},
			hold:   stubHoldings{cash: 1e6},
			reason: RejectNoBar,
			sent:   ErrNoBar,
		},
		{
			name:   "sell without position",
			req:    Request{Symbol: "600000", Side: SideSell, Quantity: 0},
			quote:  testQuote(10, 10),
			hold:   stubHoldings{cash: 1e6},
			reason: RejectNoPosition,
			sent:   ErrNoPosition,
		},
		{
			name:   "odd lot buy",
			req:    Request{Symbol: "600000", Side: SideBuy, Quantity: 150},
			quote:  testQuote(10, 10),
			hold:   stubHoldings{cash: 1e6},
			reason: RejectInvalidQuantity,
			sent:   ErrInvalidQuantity,
		},
		{
			name:   "same day sell",
			req:    Request{Symbol: "600000", Side: SideSell, Quantity: 100},
			quote:  testQuote(10, 10),
			hold:   stubHoldings{cash: 0, held: map[string]int64{"600000": 100}},
			reason: RejectUnsettled,
			sent:   ErrUnsettled,
		},
		{
			name:   "buy at limit up",
			req:    Request{Symbol: "600000", Side: SideBuy, Quantity: 100},
			quote:  testQuote(11, 10),
			hold:   stubHoldings{cash: 1e6},
			reason: RejectLimitBreach,
			sent:   ErrLimitBreach,
		},
		{
			name:   "sell at limit down",
			req:    Request{Symbol: "600000", Side: SideSell, Quantity: 100},
			quote:  testQuote(9, 10),
			hold:   stubHoldings{held: map[string]int64{"600000": 100}, settled: map[string]int64{"600000": 100}},
			reason: RejectLimitBreach,
			sent:   ErrLimitBreach,
		},
		{
			name:   "limit price not reached",
			req:    Request{Symbol: "600000", Side: SideBuy, Type: TypeLimit, Quantity: 100, LimitPrice: 9.5},
			quote:  testQuote(10, 10),
			hold:   stubHoldings{cash: 1e6},
			reason: RejectLimitPrice,
			sent:   ErrLimitPrice,
		},
		{
			name:   "insufficient cash",
			req:    Request{Symbol: "600000", Side: SideBuy, Quantity: 1000},
			quote:  testQuote(10, 10),
			hold:   stubHoldings{cash: 10004.99},
			reason: RejectInsufficientCash,
			sent:   ErrInsufficientCash,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := newTestManager(t, func(c *Config) { c.Limit = PriceLimit{Pct: 0.1} })
			_, err := m.Submit(tc.req, tc.quote, tc.hold)
			require.Error(t, err)
			assert.Equal(t, tc.reason, rejectionReason(t, err))
			assert.True(t, errors.Is(err, tc.sent))

			orders := m.Orders()
			require.Len(t, orders, 1)
			assert.Equal(t, StatusRejected, orders[0].Status)
			assert.Equal(t, tc.reason, orders[0].RejectReason)
		})
	}
}

func TestManagerSellFill(t *testing.T) {
	m := newTestManager(t, nil)
	hold := stubHoldings{held: map[string]int64{"600000": 1050}, settled: map[string]int64{"600000": 1050}}
	f, err := m.Submit(Request{Symbol: "600000", Side: SideSell, Quantity: 1050}, testQuote(20, 20), hold)
	require.NoError(t, err)
	assert.InDelta(t, 21000, f.Amount, 1e-9)
	assert.InDelta(t, 6.3, f.Commission, 1e-9)
	assert.InDelta(t, 21, f.StampDuty, 1e-9)
}

func TestManagerSlippageClampedToBand(t *testing.T) {
	m := newTestManager(t, func(c *Config) {
		c.SlippagePct = 0.05
		c.Limit = PriceLimit{Pct: 0.1}
	})
	f, err := m.Submit(Request{Symbol: "600000", Side: SideBuy, Quantity: 100}, testQuote(10.8, 10), stubHoldings{cash: 1e6})
	require.NoError(t, err)
	assert.InDelta(t, 11.0, f.Price, 1e-9)

	q := testQuote(10, 10)
	assert.InDelta(t, 9.5, m.FillPrice(SideSell, q), 1e-9)
}

func TestManagerDeterministicIDs(t *testing.T) {
	run := func() []string {
		m := newTestManager(t, nil)
		var ids []string
		for i := 0; i < 3; i++ {
			f, err := m.Submit(Request{Symbol: "600000", Side: SideBuy, Quantity: 100}, testQuote(10, 10), stubHoldings{cash: 1e6})
			require.NoError(t, err)
			ids = append(ids, f.OrderID)
		}
		return ids
	}
	a, b := run(), run()
	assert.Equal(t, a, b)
	assert.NotEqual(t, a[0], a[1])

	m := newTestManager(t, nil)
	f1, _ := m.Submit(Request{Symbol: "600000", Side: SideBuy, Quantity: 100}, testQuote(10, 10), stubHoldings{cash: 1e6})
	m.Reset()
	f2, _ := m.Submit(Request{Symbol: "600000", Side: SideBuy, Quantity: 100}, testQuote(10, 10), stubHoldings{cash: 1e6})
	assert.Equal(t, f1.OrderID, f2.OrderID)
	assert.Len(t, m.Orders(), 1)
}

func TestManagerConfigValidate(t *testing.T) {
	_, err := NewManager(Config{LotSize: 0}, nil)
	assert.Error(t, err)
	_, err = NewManager(Config{LotSize: 100, SettlementDelayBars: -1}, nil)
	assert.Error(t, err)
	_, err = NewManager(Config{LotSize: 100, Costs: CostModel{StampDutyRate: -0.001}}, nil)
	assert.Error(t, err)
}

func TestManagerZeroSettlementDelay(t *testing.T) {
	m := newTestManager(t, func(c *Config) { c.SettlementDelayBars = 0 })
	f, err := m.Submit(Request{Symbol: "600000", Side: SideBuy, Quantity: 100}, testQuote(10, 10), stubHoldings{cash: 1e6})
	require.NoError(t, err)
	assert.Equal(t, testDay, f.SettleDate)
}

func TestManagerSellFeesExceedProceeds(t *testing.T) {
	m := newTestManager(t, nil)
	hold := stubHoldings{held: map[string]int64{"600000": 100}, settled: map[string]int64{"600000": 100}}

	// 成交额 3 元，最低佣金 5 元，现金为 0 时卖出会使现金为负
	_, err := m.Submit(Request{Symbol: "600000", Side: SideSell, Quantity: 100}, testQuote(0.03, 0.03), hold)
	require.Error(t, err)
	assert.Equal(t, RejectInsufficientCash, rejectionReason(t, err))
	assert.ErrorIs(t, err, ErrInsufficientCash)

	hold.cash = 10
	f, err := m.Submit(Request{Symbol: "600000", Side: SideSell, Quantity: 100}, testQuote(0.03, 0.03), hold)
	require.NoError(t, err)
	assert.InDelta(t, 3-5-0.003, f.CashDelta(), 1e-9)
	assert.InDelta(t, 5.003, f.Fees(), 1e-9)
}
