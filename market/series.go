package market

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	ErrEmptySeries   = errors.New("series has no bars")
	ErrNonMonotonic  = errors.New("bar dates must be strictly increasing")
	ErrInvalidBar    = errors.New("invalid bar")
	ErrUnknownSymbol = errors.New("unknown symbol")
)

// Series 单个标的的只读日线序列，构造后不可变，可按下标或日期随机访问。
type Series struct {
	symbol string
	bars   []Bar
	index  map[time.Time]int
}

// NewSeries 校验并构造序列：日期严格递增，价格为正，high/low 包住 open/close。
func NewSeries(symbol string, bars []Bar) (*Series, error) {
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrInvalidBar)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrEmptySeries)
	}
	s := &Series{
		symbol: symbol,
		bars:   make([]Bar, len(bars)),
		index:  make(map[time.Time]int, len(bars)),
	}
	for i, b := range bars {
		b.Date = Day(b.Date)
		if err := validateBar(b); err != nil {
			return nil, fmt.Errorf("%s bar %d (%s): %w", symbol, i, b.Date.Format(time.DateOnly), err)
		}
		if i > 0 && !b.Date.After(s.bars[i-1].Date) {
			return nil, fmt.Errorf("%s bar %d (%s): %w", symbol, i, b.Date.Format(time.DateOnly), ErrNonMonotonic)
		}
		s.bars[i] = b
		s.index[b.Date] = i
	}
	return s, nil
}

func validateBar(b Bar) error {
	if b.Close <= 0 || b.Open <= 0 || b.High <= 0 || b.Low <= 0 {
		return fmt.Errorf("%w: non-positive price", ErrInvalidBar)
	}
	if b.High < b.Low || b.High < b.Close || b.High < b.Open || b.Low > b.Close || b.Low > b.Open {
		return fmt.Errorf("%w: high/low do not bound open/close", ErrInvalidBar)
	}
	if b.Volume < 0 {
		return fmt.Errorf("%w: negative volume", ErrInvalidBar)
	}
	return nil
}

func (s *Series) Symbol() string { return s.symbol }

func (s *Series) Len() int { return len(s.bars) }

// At 返回第 i 根 K 线；越界会 panic，与切片语义一致。
func (s *Series) At(i int) Bar { return s.bars[i] }

// IndexOf 返回日期对应的下标。
func (s *Series) IndexOf(date time.Time) (int, bool) {
	i, ok := s.index[Day(date)]
	return i, ok
}

// BarOn 返回指定日期的 K 线。
func (s *Series) BarOn(date time.Time) (Bar, bool) {
	i, ok := s.IndexOf(date)
	if !ok {
		return Bar{}, false
	}
	return s.bars[i], true
}

// Window 返回截至第 i 根（含）的最多 n 根 K 线。返回切片禁止追加写入。
func (s *Series) Window(i, n int) []Bar {
	if i < 0 || i >= len(s.bars) || n <= 0 {
		return nil
	}
	start := i - n + 1
	if start < 0 {
		start = 0
	}
	return s.bars[start : i+1 : i+1]
}

// Quote 构造 date 当日的撮合行情。
func (s *Series) Quote(date time.Time) Quote {
	q := Quote{Symbol: s.symbol, Date: Day(date)}
	i, ok := s.IndexOf(date)
	if !ok {
		return q
	}
	q.Bar = s.bars[i]
	q.HasBar = true
	if i > 0 {
		q.PrevClose = s.bars[i-1].Close
	}
	return q
}

// Slice 返回 [from, to] 日期范围内的子序列，与原序列共享底层数据。
func (s *Series) Slice(from, to time.Time) (*Series, error) {
	from, to = Day(from), Day(to)
	lo := sort.Search(len(s.bars), func(k int) bool { return !s.bars[k].Date.Before(from) })
	hi := sort.Search(len(s.bars), func(k int) bool { return s.bars[k].Date.After(to) })
	if lo >= hi {
		return nil, fmt.Errorf("%s [%s, %s]: %w", s.symbol, from.Format(time.DateOnly), to.Format(time.DateOnly), ErrEmptySeries)
	}
	sub := &Series{
		symbol: s.symbol,
		bars:   s.bars[lo:hi:hi],
		index:  make(map[time.Time]int, hi-lo),
	}
	for i, b := range sub.bars {
		sub.index[b.Date] = i
	}
	return sub, nil
}
