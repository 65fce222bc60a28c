package market

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// LoadCSV 读取 date,open,high,low,close,volume 格式的日线文件。
// 首行若无法解析为日期则视为表头跳过。
func LoadCSV(symbol, path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(symbol, f)
}

// ReadCSV 同 LoadCSV，从 reader 读取。
func ReadCSV(symbol string, r io.Reader) (*Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	var bars []Bar
	line := 0
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: read csv: %w", symbol, err)
		}
		line++
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		date, err := dateparse.ParseIn(strings.TrimSpace(row[0]), time.UTC)
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, fmt.Errorf("%s line %d: parse date %q: %w", symbol, line, row[0], err)
		}
		if len(row) < 6 {
			return nil, fmt.Errorf("%s line %d: want 6 columns, got %d", symbol, line, len(row))
		}
		vals := make([]float64, 5)
		for i := range vals {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d col %d: %w", symbol, line, i+2, err)
			}
			vals[i] = v
		}
		bars = append(bars, Bar{
			Date:   Day(date),
			Open:   vals[0],
			High:   vals[1],
			Low:    vals[2],
			Close:  vals[3],
			Volume: vals[4],
		})
	}
	return NewSeries(symbol, bars)
}
