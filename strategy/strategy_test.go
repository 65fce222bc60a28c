package strategy

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesim/market"
	"tradesim/order"
	"tradesim/portfolio"
)

var start = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func barsFrom(closes ...float64) []market.Bar {
	out := make([]market.Bar, len(closes))
	for i, c := range closes {
		out[i] = market.Bar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return out
}

func emptySnap(t *testing.T) portfolio.State {
	t.Helper()
	m, err := portfolio.NewManager(100000)
	require.NoError(t, err)
	return m.Snapshot()
}

func heldSnap(t *testing.T, symbol string) portfolio.State {
	t.Helper()
	m, err := portfolio.NewManager(100000)
	require.NoError(t, err)
	require.NoError(t, m.Apply(order.Fill{
		OrderID: "x", Symbol: symbol, Side: order.SideBuy, Quantity: 100,
		Price: 10, Amount: 1000, Commission: 5, Date: start, SettleDate: start,
	}))
	return m.Snapshot()
}

func TestIntentValidate(t *testing.T) {
	assert.NoError(t, Hold().Validate())
	assert.NoError(t, SellAll().Validate())
	assert.NoError(t, BuyFraction(1).Validate())
	assert.NoError(t, SellFraction(0.5).Validate())
	assert.Error(t, BuyFraction(0).Validate())
	assert.Error(t, SellFraction(1.01).Validate())
	assert.Error(t, Intent{Kind: Kind(9)}.Validate())
	assert.Equal(t, "BUY_FRACTION(0.25)", BuyFraction(0.25).String())
	assert.True(t, Hold().IsHold())
}

func TestBuyAndHold(t *testing.T) {
	s := BuyAndHold{Fraction: 1}
	assert.Equal(t, BuyFraction(1), s.Signal("600000", barsFrom(10), emptySnap(t)))
	assert.Equal(t, Hold(), s.Signal("600000", barsFrom(10), heldSnap(t, "600000")))
	assert.Equal(t, Hold(), s.Signal("600000", nil, emptySnap(t)))
}

func TestSMACross(t *testing.T) {
	s := SMACross{Fast: 2, Slow: 4, Fraction: 0.5}

	// 下跌后反弹：最后一根快线上穿慢线
	up := barsFrom(10, 9, 8, 7, 6, 10)
	assert.Equal(t, BuyFraction(0.5), s.Signal("600000", up, emptySnap(t)))
	assert.Equal(t, Hold(), s.Signal("600000", up, heldSnap(t, "600000")))

	down := barsFrom(6, 7, 8, 9, 10, 6)
	assert.Equal(t, SellAll(), s.Signal("600000", down, heldSnap(t, "600000")))
	assert.Equal(t, Hold(), s.Signal("600000", down, emptySnap(t)))

	// 窗口不足 / 平盘无交叉
	assert.Equal(t, Hold(), s.Signal("600000", barsFrom(1, 2, 3, 4), emptySnap(t)))
	assert.Equal(t, Hold(), s.Signal("600000", barsFrom(5, 5, 5, 5, 5, 5), emptySnap(t)))
}

const fundamentalsYAML = `
- symbol: "600000"
  date: "2024-01-01"
  pe: 8
  roe: 0.15
- symbol: "600000"
  date: "2024-01-05"
  pe: 30
  roe: 0.15
- symbol: "000001"
  date: "2024-01-03"
  pe: -4
  roe: -0.02
`

func TestFundamentalsAsOf(t *testing.T) {
	table, err := ReadFundamentals(strings.NewReader(fundamentalsYAML))
	require.NoError(t, err)

	_, ok := table.AsOf("600000", start.AddDate(0, 0, -2))
	assert.False(t, ok)

	rec, ok := table.AsOf("600000", start.AddDate(0, 0, 2))
	require.True(t, ok)
	assert.Equal(t, 8.0, rec.PE)

	rec, ok = table.AsOf("600000", start.AddDate(0, 0, 3))
	require.True(t, ok)
	assert.Equal(t, 30.0, rec.PE)

	_, ok = table.AsOf("300750", start)
	assert.False(t, ok)

	_, err = ReadFundamentals(strings.NewReader(`- symbol: "600000"
  date: "not a date"
`))
	assert.Error(t, err)
}

func TestScreen(t *testing.T) {
	table, err := ReadFundamentals(strings.NewReader(fundamentalsYAML))
	require.NoError(t, err)
	s := Screen{Table: table, MaxPE: 15, MinROE: 0.1, ExitPE: 25, ExitROE: 0.05, Fraction: 1}

	early := barsFrom(10, 10)        // 截至 01-03，PE=8
	late := barsFrom(10, 10, 10, 10) // 截至 01-05，PE=30

	assert.Equal(t, BuyFraction(1), s.Signal("600000", early, emptySnap(t)))
	assert.Equal(t, Hold(), s.Signal("600000", early, heldSnap(t, "600000")))
	assert.Equal(t, SellAll(), s.Signal("600000", late, heldSnap(t, "600000")))
	assert.Equal(t, Hold(), s.Signal("600000", late, emptySnap(t)))

	// 亏损公司不买入，持仓时清仓
	assert.Equal(t, Hold(), s.Signal("000001", early, emptySnap(t)))
	assert.Equal(t, SellAll(), s.Signal("000001", early, heldSnap(t, "000001")))
}

func TestPolicyConsumesIntent(t *testing.T) {
	p := NewPolicy()
	assert.Equal(t, Hold(), p.Signal("600000", nil, portfolio.State{}))
	p.Set(SellFraction(0.5))
	assert.Equal(t, SellFraction(0.5), p.Signal("600000", nil, portfolio.State{}))
	assert.Equal(t, Hold(), p.Signal("600000", nil, portfolio.State{}))
}
