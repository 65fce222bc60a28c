package strategy

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/araddon/dateparse"
	"gopkg.in/yaml.v3"

	"tradesim/market"
	"tradesim/portfolio"
)

// Fundamental 某一披露日的估值指标。
type Fundamental struct {
	Date time.Time
	PE   float64
	ROE  float64
}

type fundamentalRecord struct {
	Symbol string  `yaml:"symbol"`
	Date   string  `yaml:"date"`
	PE     float64 `yaml:"pe"`
	ROE    float64 `yaml:"roe"`
}

// Fundamentals 按标的、按日期升序保存的基本面表，只读。
type Fundamentals struct {
	bySymbol map[string][]Fundamental
}

// LoadFundamentals 读取 YAML 列表：symbol/date/pe/roe。
func LoadFundamentals(path string) (*Fundamentals, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fundamentals: %w", err)
	}
	defer f.Close()
	return ReadFundamentals(f)
}

func ReadFundamentals(r io.Reader) (*Fundamentals, error) {
	var records []fundamentalRecord
	if err := yaml.NewDecoder(r).Decode(&records); err != nil && err != io.EOF {
		return nil, fmt.Errorf("parse fundamentals: %w", err)
	}
	t := &Fundamentals{bySymbol: make(map[string][]Fundamental)}
	for i, rec := range records {
		if rec.Symbol == "" {
			return nil, fmt.Errorf("fundamentals[%d]: symbol is required", i)
		}
		d, err := dateparse.ParseIn(rec.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("fundamentals[%d] %s: %w", i, rec.Symbol, err)
		}
		t.bySymbol[rec.Symbol] = append(t.bySymbol[rec.Symbol], Fundamental{Date: market.Day(d), PE: rec.PE, ROE: rec.ROE})
	}
	for _, rows := range t.bySymbol {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })
	}
	return t, nil
}

// AsOf 返回不晚于 date 的最近一条记录，避免使用未来数据。
func (t *Fundamentals) AsOf(symbol string, date time.Time) (Fundamental, bool) {
	if t == nil {
		return Fundamental{}, false
	}
	rows := t.bySymbol[symbol]
	date = market.Day(date)
	j := sort.Search(len(rows), func(k int) bool { return rows[k].Date.After(date) })
	if j == 0 {
		return Fundamental{}, false
	}
	return rows[j-1], true
}

// Screen 基本面阈值筛选：
// 空仓且 0 < PE <= MaxPE、ROE >= MinROE 时买入；
// 持仓且 PE > ExitPE、PE <= 0 或 ROE < ExitROE 时清仓。
type Screen struct {
	Table    *Fundamentals
	MaxPE    float64
	MinROE   float64
	ExitPE   float64
	ExitROE  float64
	Fraction float64
}

func (Screen) Name() string { return "screen" }

func (s Screen) Signal(symbol string, window []market.Bar, snap portfolio.State) Intent {
	if len(window) == 0 {
		return Hold()
	}
	rec, ok := s.Table.AsOf(symbol, window[len(window)-1].Date)
	if !ok {
		return Hold()
	}
	if snap.Quantity(symbol) > 0 {
		if rec.PE <= 0 || rec.PE > s.ExitPE || rec.ROE < s.ExitROE {
			return SellAll()
		}
		return Hold()
	}
	if rec.PE > 0 && rec.PE <= s.MaxPE && rec.ROE >= s.MinROE {
		return BuyFraction(s.Fraction)
	}
	return Hold()
}
