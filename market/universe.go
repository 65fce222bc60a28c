package market

import (
	"fmt"
	"sort"
	"time"
)

// Universe 多标的行情集合：统一的交易日历 + 按代码升序的标的列表。
// 构造后只读，可被多个回测实例共享。
type Universe struct {
	series   map[string]*Series
	symbols  []string
	calendar []time.Time
	position map[time.Time]int
}

// NewUniverse 以所有序列日期的并集作为日历。代码重复视为配置错误。
func NewUniverse(series ...*Series) (*Universe, error) {
	if len(series) == 0 {
		return nil, ErrEmptySeries
	}
	u := &Universe{
		series:   make(map[string]*Series, len(series)),
		position: make(map[time.Time]int),
	}
	seen := make(map[time.Time]struct{})
	for _, s := range series {
		if s == nil {
			return nil, fmt.Errorf("%w: nil series", ErrEmptySeries)
		}
		if _, dup := u.series[s.Symbol()]; dup {
			return nil, fmt.Errorf("duplicate symbol %s", s.Symbol())
		}
		u.series[s.Symbol()] = s
		u.symbols = append(u.symbols, s.Symbol())
		for _, b := range s.bars {
			if _, ok := seen[b.Date]; !ok {
				seen[b.Date] = struct{}{}
				u.calendar = append(u.calendar, b.Date)
			}
		}
	}
	sort.Strings(u.symbols)
	sort.Slice(u.calendar, func(i, j int) bool { return u.calendar[i].Before(u.calendar[j]) })
	for i, d := range u.calendar {
		u.position[d] = i
	}
	return u, nil
}

// Symbols 升序代码列表（拷贝）。
func (u *Universe) Symbols() []string {
	return append([]string(nil), u.symbols...)
}

// Calendar 交易日历（拷贝）。
func (u *Universe) Calendar() []time.Time {
	return append([]time.Time(nil), u.calendar...)
}

func (u *Universe) Series(symbol string) (*Series, bool) {
	s, ok := u.series[symbol]
	return s, ok
}

// Offset 返回 date 之后第 n 个交易日；超出日历返回 false。
func (u *Universe) Offset(date time.Time, n int) (time.Time, bool) {
	i, ok := u.position[Day(date)]
	if !ok || i+n < 0 || i+n >= len(u.calendar) {
		return time.Time{}, false
	}
	return u.calendar[i+n], true
}

// Closes 返回 date 当日有 K 线的标的收盘价。
func (u *Universe) Closes(date time.Time) map[string]float64 {
	out := make(map[string]float64, len(u.symbols))
	for _, sym := range u.symbols {
		if b, ok := u.series[sym].BarOn(date); ok {
			out[sym] = b.Close
		}
	}
	return out
}

// Slice 截取 [from, to] 的子集；该区间内无数据的标的被剔除。
func (u *Universe) Slice(from, to time.Time) (*Universe, error) {
	var parts []*Series
	for _, sym := range u.symbols {
		sub, err := u.series[sym].Slice(from, to)
		if err != nil {
			continue
		}
		parts = append(parts, sub)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("[%s, %s]: %w", Day(from).Format(time.DateOnly), Day(to).Format(time.DateOnly), ErrEmptySeries)
	}
	return NewUniverse(parts...)
}

// CloseAfter 返回 date 之后第 n 个交易日 symbol 的收盘价；该日无 K 线时返回 false。
func (u *Universe) CloseAfter(symbol string, date time.Time, n int) (float64, bool) {
	s, ok := u.series[symbol]
	if !ok {
		return 0, false
	}
	d, ok := u.Offset(date, n)
	if !ok {
		return 0, false
	}
	b, ok := s.BarOn(d)
	if !ok {
		return 0, false
	}
	return b.Close, true
}
