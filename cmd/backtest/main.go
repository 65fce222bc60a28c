package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"

	"tradesim/config"
	"tradesim/infrastructure/logger"
	"tradesim/infrastructure/monitor"
	"tradesim/market"
	"tradesim/metrics"
	"tradesim/sim"
	"tradesim/strategy"
)

// 日线回测 / 参数扫描入口。
// 用法：
//
//	go run ./cmd/backtest -config configs/backtest.yaml -symbols 600000:data/600000.csv,000001:data/000001.csv -out out/
//	go run ./cmd/backtest -config configs/backtest.yaml -sweep
//	go run ./cmd/backtest -config configs/backtest.yaml -watch
func main() {
	cfgPath := flag.String("config", "configs/backtest.yaml", "配置文件路径")
	symbolFiles := flag.String("symbols", "", "symbol:csv 列表，逗号分隔；覆盖配置中的 data")
	outDir := flag.String("out", "", "若指定则写入权益曲线与成交 CSV")
	sweep := flag.Bool("sweep", false, "按 sweep 配置运行 walk-forward / 佣金扫描")
	watch := flag.Bool("watch", false, "配置文件变化后自动重跑")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer lg.Sync()
	mon := monitor.New(monitor.DefaultConfig())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.MetricsAddr, mon.Registry()); err != nil {
				lg.LogError(err, map[string]interface{}{"addr": cfg.MetricsAddr})
			}
		}()
	}

	app := &app{
		symbols: parseSymbolFiles(*symbolFiles),
		outDir:  *outDir,
		sweep:   *sweep,
		log:     lg,
		mon:     mon,
		stdout:  os.Stdout,
	}
	if err := app.run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		lg.LogError(err, map[string]interface{}{"config": *cfgPath})
		if !*watch {
			os.Exit(1)
		}
	}
	if !*watch {
		return
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	w := config.Watcher{
		Path: *cfgPath,
		OnError: func(err error) {
			lg.LogError(err, map[string]interface{}{"event": "config_reload"})
		},
	}
	err = w.Start(ctx, func(next config.AppConfig) {
		_, _ = daemon.SdNotify(false, daemon.SdNotifyReloading)
		lg.LogRun("config_reloaded", next.Run.RunID, map[string]interface{}{"path": *cfgPath})
		if err := app.run(ctx, next); err != nil {
			lg.LogError(err, map[string]interface{}{"event": "rerun"})
		}
		_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	})
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("监听配置失败: %v", err)
	}
}

type app struct {
	symbols []symbolFile
	outDir  string
	sweep   bool
	log     *logger.Logger
	mon     *monitor.Monitor
	stdout  io.Writer
}

func (a *app) run(ctx context.Context, cfg config.AppConfig) error {
	u, err := loadUniverse(cfg.Data, a.symbols)
	if err != nil {
		return err
	}
	opts := sim.Options{Logger: a.log, Monitor: a.mon}
	if !a.sweep {
		strat, err := strategy.New(cfg.Run.Strategy)
		if err != nil {
			return err
		}
		bt, err := sim.New(cfg.Run, u, strat, opts)
		if err != nil {
			return err
		}
		res, err := bt.Run(ctx)
		if err != nil {
			return err
		}
		return a.report(res)
	}

	jobs, err := buildJobs(cfg, u)
	if err != nil {
		return err
	}
	sw := &sim.Sweeper{Parallel: cfg.Sweep.Parallel, Options: opts}
	results, err := sw.Run(ctx, jobs)
	if err != nil {
		return err
	}
	for _, jr := range results {
		if jr.Skipped {
			fmt.Fprintf(a.stdout, "== %s skipped\n", jr.Job)
			continue
		}
		fmt.Fprintf(a.stdout, "== %s\n", jr.Job)
		if err := a.report(jr.Result); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) report(res sim.Result) error {
	if err := res.Summary.Print(a.stdout); err != nil {
		return err
	}
	if len(res.Warnings) > 0 {
		fmt.Fprintf(a.stdout, "warnings        %d\n", len(res.Warnings))
	}
	if a.outDir == "" {
		return nil
	}
	return writeOutputs(a.outDir, res)
}

// buildJobs walk-forward 折与佣金费率做笛卡尔积；未配置 walk-forward 时只有一个全区间 Job。
func buildJobs(cfg config.AppConfig, u *market.Universe) ([]sim.Job, error) {
	base := sim.Job{Name: cfg.Run.RunID, Run: cfg.Run, Universe: u}
	jobs := []sim.Job{base}
	sw := cfg.Sweep
	if sw.TrainBars > 0 && sw.TestBars > 0 {
		step := sw.StepBars
		if step <= 0 {
			step = sw.TestBars
		}
		folds := sim.WalkForward(u.Calendar(), sw.TrainBars, sw.TestBars, step)
		if len(folds) == 0 {
			return nil, fmt.Errorf("no walk-forward fold fits %d bars", len(u.Calendar()))
		}
		var err error
		jobs, err = sim.WalkForwardJobs(base, folds)
		if err != nil {
			return nil, err
		}
	}
	if len(sw.CommissionRates) == 0 {
		return jobs, nil
	}
	out := make([]sim.Job, 0, len(jobs)*len(sw.CommissionRates))
	for _, j := range jobs {
		out = append(out, sim.CommissionJobs(j, sw.CommissionRates)...)
	}
	return out, nil
}

type symbolFile struct {
	symbol string
	path   string
}

func parseSymbolFiles(arg string) []symbolFile {
	if strings.TrimSpace(arg) == "" {
		return nil
	}
	var out []symbolFile
	for _, p := range strings.Split(arg, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		items := strings.SplitN(p, ":", 2)
		if len(items) != 2 {
			continue
		}
		out = append(out, symbolFile{symbol: strings.TrimSpace(items[0]), path: strings.TrimSpace(items[1])})
	}
	return out
}

// loadUniverse 命令行 -symbols 优先，否则使用配置中的 data。
func loadUniverse(data map[string]string, files []symbolFile) (*market.Universe, error) {
	if len(files) == 0 {
		for sym, path := range data {
			files = append(files, symbolFile{symbol: sym, path: path})
		}
		sort.Slice(files, func(i, j int) bool { return files[i].symbol < files[j].symbol })
	}
	if len(files) == 0 {
		return nil, errors.New("未指定任何 symbol:csv")
	}
	series := make([]*market.Series, 0, len(files))
	for _, f := range files {
		s, err := market.LoadCSV(strings.ToUpper(f.symbol), filepath.Clean(f.path))
		if err != nil {
			return nil, fmt.Errorf("symbol %s 读取 %s 失败: %w", f.symbol, f.path, err)
		}
		series = append(series, s)
	}
	return market.NewUniverse(series...)
}
