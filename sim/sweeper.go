package sim

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"tradesim/config"
	"tradesim/market"
	"tradesim/strategy"
)

// Job 一次独立回测。每个 Job 在自己的 Backtester 中运行，互不共享可变状态。
type Job struct {
	Name     string
	Run      config.RunConfig
	Universe *market.Universe
	// NewStrategy 为空时按 Run.Strategy 构造
	NewStrategy func() (strategy.Strategy, error)
	// StartDate 之前的 K 线只作为回看窗口
	StartDate time.Time
}

// JobResult 与 Jobs 一一对应，顺序一致。
type JobResult struct {
	Job     string
	Result  Result
	Skipped bool // Stop 之后尚未开始的 Job
}

// Sweeper 有界并发地运行多个 Job（walk-forward 折、参数扫描）。
type Sweeper struct {
	Parallel int
	Options  Options // Logger/Monitor 在各 Job 间共享；Stop 与 StartDate 由 Sweeper 管理

	stopped atomic.Bool
}

// Stop 协作式取消：运行中的 Job 在下一根 K 线前停止，未开始的 Job 被跳过。
func (s *Sweeper) Stop() { s.stopped.Store(true) }

func (s *Sweeper) Stopped() bool { return s.stopped.Load() }

// Run 配置错误或 ctx 取消时返回第一个错误，其余 Job 随之取消。
func (s *Sweeper) Run(ctx context.Context, jobs []Job) ([]JobResult, error) {
	results := make([]JobResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	limit := s.Parallel
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for i := range jobs {
		i := i
		job := jobs[i]
		results[i].Job = job.Name
		if s.Stopped() {
			results[i].Skipped = true
			continue
		}
		g.Go(func() error {
			if s.Stopped() {
				results[i].Skipped = true
				return nil
			}
			res, err := s.runJob(gctx, job)
			results[i].Result = res
			if err != nil {
				return fmt.Errorf("job %s: %w", job.Name, err)
			}
			return nil
		})
	}
	return results, g.Wait()
}

func (s *Sweeper) runJob(ctx context.Context, job Job) (Result, error) {
	newStrategy := job.NewStrategy
	if newStrategy == nil {
		newStrategy = func() (strategy.Strategy, error) { return strategy.New(job.Run.Strategy) }
	}
	strat, err := newStrategy()
	if err != nil {
		return Result{}, err
	}
	opts := s.Options
	opts.Stop = s.Stopped
	opts.StartDate = job.StartDate
	bt, err := New(job.Run, job.Universe, strat, opts)
	if err != nil {
		return Result{}, err
	}
	return bt.Run(ctx)
}

// CommissionJobs 在 base 基础上只改变佣金费率，生成一组可对比的 Job。
func CommissionJobs(base Job, rates []float64) []Job {
	jobs := make([]Job, 0, len(rates))
	for _, r := range rates {
		j := base
		j.Run.CommissionRate = r
		j.Run.RunID = fmt.Sprintf("%s-fee%g", base.Run.RunID, r)
		j.Name = fmt.Sprintf("%s/commission=%g", base.Name, r)
		jobs = append(jobs, j)
	}
	return jobs
}

// WalkForwardJobs 每折一个 Job，只在测试区间回放，训练区间提供回看窗口。
func WalkForwardJobs(base Job, folds []Fold) ([]Job, error) {
	jobs := make([]Job, 0, len(folds))
	for _, f := range folds {
		sub, err := f.Universe(base.Universe)
		if err != nil {
			return nil, err
		}
		j := base
		j.Universe = sub
		j.StartDate = f.TestFrom
		j.Run.RunID = fmt.Sprintf("%s-fold%d", base.Run.RunID, f.Index)
		j.Name = fmt.Sprintf("%s/fold=%d", base.Name, f.Index)
		jobs = append(jobs, j)
	}
	return jobs, nil
}
