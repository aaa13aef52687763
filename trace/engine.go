package trace

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// Config holds trace reduction parameters.
type Config struct {
	// Workers bounds the worker pool; <= 0 means GOMAXPROCS.
	Workers int
	// Progress, when set, is called once per finished row of pair
	// evaluations, possibly from several goroutines at once.
	Progress func(completedRows, totalRows int64)
}

// Engine folds the Factor rule over every unordered pair of records and
// sums the per-pair products into a single scalar.
type Engine struct {
	cfg Config
}

func New(cfg Config) *Engine { return &Engine{cfg: cfg} }

// PerformTraceCalculation is the single-call form: default engine, no
// progress reporting, background context.
func PerformTraceCalculation(data [][]string, subs []int) (float64, error) {
	return New(Config{}).ComputeTotal(context.Background(), data, subs)
}

// ComputeTotal returns the sum over all record pairs (i < j) of the product
// of Factor over the probe positions. Each logical probe position k
// addresses the physical pair (2k, 2k+1). An empty probe set makes every
// pair contribute 1.0; fewer than two records give 0.0.
//
// Rows are fanned out to a bounded pool, each worker accumulating its own
// partial sum, merged after the join. Because float addition is not
// associative, totals may differ in the last bits between runs with
// different worker counts; compare with an epsilon, not for equality.
func (e *Engine) ComputeTotal(ctx context.Context, data [][]string, subs []int) (float64, error) {
	n := len(data)
	if n < 2 {
		return 0.0, nil
	}

	physical, need, err := expand(subs)
	if err != nil {
		return 0.0, err
	}

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	totalRows := int64(n - 1)
	if int64(workers) > totalRows {
		workers = int(totalRows)
	}

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
		done     int64
	)
	rowCh := make(chan int)
	stop := make(chan struct{})
	abort := func(err error) {
		once.Do(func() {
			firstErr = err
			close(stop)
		})
	}

	go func() {
		defer close(rowCh)
		for i := 0; i < n-1; i++ {
			select {
			case rowCh <- i:
			case <-stop:
				return
			case <-ctx.Done():
				abort(ctx.Err())
				return
			}
		}
	}()

	partials := make([]float64, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			var sum float64
			for {
				select {
				case <-stop:
					return
				case i, ok := <-rowCh:
					if !ok {
						partials[slot] = sum
						return
					}
					rowSum, err := rowScore(data, physical, need, i)
					if err != nil {
						abort(err)
						return
					}
					sum += rowSum
					if e.cfg.Progress != nil {
						e.cfg.Progress(atomic.AddInt64(&done, 1), totalRows)
					}
				}
			}
		}(w)
	}
	wg.Wait()

	if firstErr != nil {
		return 0.0, firstErr
	}

	var total float64
	for _, partial := range partials {
		total += partial
	}
	return total, nil
}

// expand maps logical probe positions to their even physical indices and
// reports the minimum record length they require.
func expand(subs []int) ([]int, int, error) {
	physical := make([]int, len(subs))
	need := 0
	for i, k := range subs {
		if k < 0 {
			return nil, 0, &IndexOutOfRangeError{Record: -1, Position: 2 * k, Length: -1}
		}
		p := 2 * k
		physical[i] = p
		if p+2 > need {
			need = p + 2
		}
	}
	return physical, need, nil
}

// rowScore sums the pair products of record i against every record after it.
func rowScore(data [][]string, physical []int, need int, i int) (float64, error) {
	a := data[i]
	if len(a) < need {
		return 0, shortRecordError(i, a, physical)
	}
	var sum float64
	for j := i + 1; j < len(data); j++ {
		b := data[j]
		if len(b) < need {
			return 0, shortRecordError(j, b, physical)
		}
		product := 1.0
		for _, p := range physical {
			product *= Factor(a[p], b[p], a[p+1], b[p+1])
		}
		sum += product
	}
	return sum, nil
}

func shortRecordError(record int, labels []string, physical []int) error {
	for _, p := range physical {
		if p+1 >= len(labels) {
			return &IndexOutOfRangeError{Record: record, Position: p, Length: len(labels)}
		}
	}
	// Unreachable as long as callers pre-check against need.
	return &IndexOutOfRangeError{Record: record, Length: len(labels)}
}
