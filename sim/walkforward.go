package sim

import (
	"fmt"
	"time"

	"tradesim/market"
)

// Fold 一个 walk-forward 切分：训练区间在前，测试区间紧随其后，两者不重叠。
// train 为 0 时 TrainFrom/TrainTo 为零值。
type Fold struct {
	Index     int
	TrainFrom time.Time
	TrainTo   time.Time
	TestFrom  time.Time
	TestTo    time.Time
}

// WalkForward 以 step 根 K 线为步长滚动切分日历；不足一个完整测试区间的尾部丢弃。
func WalkForward(calendar []time.Time, train, test, step int) []Fold {
	if test <= 0 || step <= 0 || train < 0 {
		return nil
	}
	var folds []Fold
	for start := 0; start+train+test <= len(calendar); start += step {
		f := Fold{
			Index:    len(folds),
			TestFrom: calendar[start+train],
			TestTo:   calendar[start+train+test-1],
		}
		if train > 0 {
			f.TrainFrom = calendar[start]
			f.TrainTo = calendar[start+train-1]
		}
		folds = append(folds, f)
	}
	return folds
}

// Universe 截取该折的数据：训练区间只作为回看窗口，测试区间参与回放。
func (f Fold) Universe(u *market.Universe) (*market.Universe, error) {
	from := f.TestFrom
	if !f.TrainFrom.IsZero() {
		from = f.TrainFrom
	}
	sub, err := u.Slice(from, f.TestTo)
	if err != nil {
		return nil, fmt.Errorf("fold %d: %w", f.Index, err)
	}
	return sub, nil
}
