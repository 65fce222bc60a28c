package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tradesim/portfolio"
	"tradesim/sim"
)

// writeOutputs 写入 <runId>_equity.csv 与 <runId>_trades.csv。
func writeOutputs(dir string, res sim.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := strings.NewReplacer("/", "_", " ", "_").Replace(res.RunID)
	if err := writeEquityCSV(filepath.Join(dir, name+"_equity.csv"), res.Curve); err != nil {
		return err
	}
	return writeTradesCSV(filepath.Join(dir, name+"_trades.csv"), res.Trades)
}

func writeEquityCSV(path string, curve []portfolio.EquityPoint) error {
	rows := make([][]string, 0, len(curve))
	for _, p := range curve {
		rows = append(rows, []string{
			p.Date.Format(time.DateOnly),
			fmt.Sprintf("%.2f", p.Value),
			fmt.Sprintf("%.2f", p.Cash),
		})
	}
	return writeCSV(path, []string{"date", "equity", "cash"}, rows)
}

func writeTradesCSV(path string, trades []sim.TradeEvent) error {
	rows := make([][]string, 0, len(trades))
	for _, ev := range trades {
		row := []string{ev.Date.Format(time.DateOnly), ev.Symbol, ev.Intent.String()}
		switch {
		case ev.Fill != nil:
			f := ev.Fill
			row = append(row, "FILLED", string(f.Side),
				fmt.Sprintf("%d", f.Quantity),
				fmt.Sprintf("%.4f", f.Price),
				fmt.Sprintf("%.2f", f.Commission),
				fmt.Sprintf("%.2f", f.StampDuty),
				"")
		case ev.Rejection != nil:
			r := ev.Rejection
			row = append(row, "REJECTED", string(r.Side),
				fmt.Sprintf("%d", r.Quantity), "", "", "",
				string(r.Reason))
		default:
			continue
		}
		rows = append(rows, row)
	}
	header := []string{"date", "symbol", "intent", "status", "side", "qty", "price", "commission", "stampDuty", "reason"}
	return writeCSV(path, header, rows)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Close()
}
