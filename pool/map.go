package pool

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shmem-go/shmem/internal/algorithms"
	"github.com/shmem-go/shmem/split"
)

// MapOption adjusts one map call.
type MapOption func(*mapOpts)

type mapOpts struct {
	ordered  bool
	callback any
}

// Ordered makes the call reorder results by original index before
// returning, so item i's value lands at position i. Without it results
// arrive in completion order.
func Ordered() MapOption {
	return func(o *mapOpts) { o.ordered = true }
}

// WithCallback registers a master-side post-processing step applied to
// each successful value before accumulation. R must match the map
// call's result type.
func WithCallback[R any](fn func(R) R) MapOption {
	return func(o *mapOpts) { o.callback = fn }
}

// Map calls fn on every item and returns the collected values, or the
// aggregated error after a clean shutdown if any worker failed.
func Map[T, R any](p *Pool, items []T, fn func(*Task, T) (R, error), opts ...MapOption) ([]R, error) {
	return run(p, len(items), func(t *Task, i int) (R, error) {
		return fn(t, items[i])
	}, opts...)
}

// StarMap is Map over per-task argument tuples produced by ZipSplit:
// each tuple is spread as the work function's variadic arguments.
func StarMap[R any](p *Pool, tuples []split.Args, fn func(*Task, ...any) (R, error), opts ...MapOption) ([]R, error) {
	return run(p, len(tuples), func(t *Task, i int) (R, error) {
		return fn(t, tuples[i]...)
	}, opts...)
}

// Do runs independent jobs, ignoring return values.
func Do(p *Pool, jobs []func(*Task) error) error {
	_, err := Map(p, jobs, func(t *Task, job func(*Task) error) (struct{}, error) {
		return struct{}{}, job(t)
	})
	return err
}

// run is the engine: dispatch, collection, shutdown, assembly.
func run[R any](p *Pool, n int, invoke invokeFunc[R], opts ...MapOption) ([]R, error) {
	var o mapOpts
	for _, opt := range opts {
		opt(&o)
	}

	callback, err := resolveCallback[R](o.callback)
	if err != nil {
		return nil, err
	}

	if p.debugging() {
		p.log.Warn("debug mode: mapping serially in the caller")
		return runSerial(p, n, invoke, callback)
	}
	if p.serial {
		return runSerial(p, n, invoke, callback)
	}
	if n == 0 {
		return []R{}, nil
	}

	// Dispatch: one item per input element, then one sentinel per
	// worker. Queue capacity covers everything, so puts never block.
	q := newTaskQueue(n + p.workers)
	for i := 0; i < n; i++ {
		q.put(workItem{index: i})
	}
	for i := 0; i < p.workers; i++ {
		q.put(workItem{sentinel: true})
	}

	results := make(chan record[R], n)
	exited := make([]chan struct{}, p.workers)
	for rank := 0; rank < p.workers; rank++ {
		exited[rank] = make(chan struct{})
		go func(rank int) {
			defer close(exited[rank])
			runWorker(p, rank, q, results, invoke)
		}(rank)
	}

	// Collect exactly n records; sentinels are not results and are not
	// counted. Dead records carry no value and are dropped here.
	pairs := make([]indexed[R], 0, n)
	var failures []*WorkerError
	for i := 0; i < n; i++ {
		rec := <-results
		switch rec.kind {
		case recFailure:
			failures = append(failures, rec.err)
		case recSuccess:
			v := rec.value
			if callback != nil {
				v = callback(v)
			}
			pairs = append(pairs, indexed[R]{index: rec.index, value: v})
		case recDead:
			// work lost to a sibling's failure
		}
	}

	// Drain: all items acknowledged, then the result queue must be
	// empty; anything left is an accounting bug worth logging.
	q.join()
	for {
		select {
		case rec := <-results:
			p.log.Warn("unexpected leftover result record", zap.Int("index", rec.index))
			continue
		default:
		}
		break
	}

	p.joinWorkers(exited)

	if len(failures) > 0 {
		return nil, &PoolError{Count: len(failures), First: failures[0]}
	}
	return assemble(pairs, o.ordered), nil
}

// runSerial executes the map in the caller with the identical external
// contract, except that the first error propagates immediately and
// unwrapped; there is no concurrent collection to finish first.
func runSerial[R any](p *Pool, n int, invoke invokeFunc[R], callback func(R) R) ([]R, error) {
	t := &Task{rank: -1, pool: p}
	out := make([]R, 0, n)
	for i := 0; i < n; i++ {
		v, err := invoke(t, i)
		if err != nil {
			return nil, err
		}
		if callback != nil {
			v = callback(v)
		}
		out = append(out, v)
	}
	return out, nil
}

// joinWorkers waits for every worker to exit, retrying a bounded number
// of fixed intervals. Workers still alive after the last retry are
// logged and abandoned: with the queue fully acknowledged all assigned
// work is accounted for, so a slow exit is not fatal.
func (p *Pool) joinWorkers(exited []chan struct{}) {
	remaining := make(map[int]chan struct{}, len(exited))
	for rank, ch := range exited {
		remaining[rank] = ch
	}

	pacing := algorithms.NewFixed(p.joinInterval)
	for attempt := 0; attempt < p.joinRetries && len(remaining) > 0; attempt++ {
		deadline := time.Now().Add(pacing.NextDelay(attempt, nil))
		for rank, ch := range remaining {
			if wait := time.Until(deadline); wait > 0 {
				select {
				case <-ch:
					delete(remaining, rank)
				case <-time.After(wait):
					p.log.Warn("still waiting for worker", zap.Int("rank", rank))
				}
				continue
			}
			select {
			case <-ch:
				delete(remaining, rank)
			default:
			}
		}
	}

	if len(remaining) > 0 {
		p.log.Warn("workers still alive after queue join",
			zap.Int("alive", len(remaining)), zap.Int("retries", p.joinRetries))
	}
}

// resolveCallback narrows the untyped callback option to this call's
// result type.
func resolveCallback[R any](cb any) (func(R) R, error) {
	if cb == nil {
		return nil, nil
	}
	fn, ok := cb.(func(R) R)
	if !ok {
		return nil, fmt.Errorf("pool: callback type %T does not match result type %T", cb, *new(R))
	}
	return fn, nil
}
