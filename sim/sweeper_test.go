package sim

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradesim/strategy"
)

func TestWalkForwardFolds(t *testing.T) {
	u := universe(t, flatSeries(t, "600000", 10, 10))
	cal := u.Calendar()

	folds := WalkForward(cal, 4, 2, 2)
	require.Len(t, folds, 3)
	for i, f := range folds {
		assert.Equal(t, i, f.Index)
		assert.True(t, f.TrainTo.Before(f.TestFrom))
		assert.False(t, f.TestTo.Before(f.TestFrom))
		if i > 0 {
			assert.True(t, folds[i-1].TestTo.Before(f.TestFrom))
		}
	}
	assert.Equal(t, cal[0], folds[0].TrainFrom)
	assert.Equal(t, cal[4], folds[0].TestFrom)
	assert.Equal(t, cal[9], folds[2].TestTo)

	noTrain := WalkForward(cal, 0, 5, 5)
	require.Len(t, noTrain, 2)
	assert.True(t, noTrain[0].TrainFrom.IsZero())

	assert.Nil(t, WalkForward(cal, 4, 0, 2))
	assert.Nil(t, WalkForward(cal, 20, 2, 2))
}

func baseJob(t *testing.T, n int) Job {
	cfg := runConfig()
	cfg.MinFee = 0
	return Job{Name: "bh", Run: cfg, Universe: universe(t, flatSeries(t, "600000", n, 10))}
}

// 其它条件相同，佣金为正的运行最终权益严格更低。
func TestCommissionSweep(t *testing.T) {
	jobs := CommissionJobs(baseJob(t, 30), []float64{0, 0.0003})
	require.Len(t, jobs, 2)
	assert.NotEqual(t, jobs[0].Run.RunID, jobs[1].Run.RunID)

	sw := &Sweeper{Parallel: 2}
	results, err := sw.Run(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, results, 2)

	free, paid := results[0].Result, results[1].Result
	require.NotEmpty(t, free.Fills())
	require.NotEmpty(t, paid.Fills())
	assert.Equal(t, jobs[0].Name, results[0].Job)
	assert.InDelta(t, 100000, free.Summary.FinalEquity, 1e-6)
	assert.Less(t, paid.Summary.FinalEquity, free.Summary.FinalEquity)
}

func TestWalkForwardJobs(t *testing.T) {
	base := baseJob(t, 10)
	folds := WalkForward(base.Universe.Calendar(), 4, 2, 2)
	jobs, err := WalkForwardJobs(base, folds)
	require.NoError(t, err)
	require.Len(t, jobs, 3)

	results, err := (&Sweeper{Parallel: 3}).Run(context.Background(), jobs)
	require.NoError(t, err)
	for i, r := range results {
		require.Len(t, r.Result.Curve, 2, "fold %d", i)
		assert.Equal(t, folds[i].TestFrom, r.Result.Curve[0].Date)
		assert.Equal(t, folds[i].TestTo, r.Result.Curve[1].Date)
	}
}

func TestSweeperStop(t *testing.T) {
	jobs := CommissionJobs(baseJob(t, 5), []float64{0, 0.0001, 0.0002})
	sw := &Sweeper{Parallel: 1}
	sw.Stop()
	results, err := sw.Run(context.Background(), jobs)
	require.NoError(t, err)
	for _, r := range results {
		assert.True(t, r.Skipped)
	}
}

func TestSweeperStopDuringRun(t *testing.T) {
	sw := &Sweeper{Parallel: 1}
	base := baseJob(t, 20)
	bars := 0
	base.NewStrategy = func() (strategy.Strategy, error) {
		return stopAfter{sw: sw, bars: &bars, n: 5}, nil
	}
	results, err := sw.Run(context.Background(), CommissionJobs(base, []float64{0, 0.0001}))
	require.NoError(t, err)
	assert.True(t, results[0].Result.Cancelled)
	assert.Len(t, results[0].Result.Curve, 5)
	assert.True(t, results[1].Skipped)
}

func TestSweeperPropagatesConfigErrors(t *testing.T) {
	bad := baseJob(t, 5)
	bad.Run.InitialCash = 0
	_, err := (&Sweeper{}).Run(context.Background(), []Job{bad})
	assert.Error(t, err)
}
