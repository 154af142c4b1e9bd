package pool

import (
	"fmt"
	"runtime"

	"github.com/shmem-go/shmem/internal/cpu"
)

// invokeFunc runs one work item by input index and returns its value.
type invokeFunc[R any] func(t *Task, index int) (R, error)

// runWorker is one worker's loop: pull items until the sentinel, emit
// exactly one record per item. After the first failure the worker flips
// dead and keeps draining its remaining items as dead records instead
// of abandoning the queue, so the master's accounting stays exact.
func runWorker[R any](p *Pool, rank int, q *taskQueue, results chan<- record[R], invoke invokeFunc[R]) {
	if p.backend == Process {
		defer cpu.Pin(rank)()
	}

	activeWorkers.Add(1)
	defer activeWorkers.Add(-1)

	t := &Task{rank: rank, pool: p}
	dead := false

	for it := range q.ch {
		if it.sentinel {
			q.ack()
			return
		}

		if dead {
			results <- record[R]{kind: recDead, index: it.index}
			q.ack()
			continue
		}

		value, werr := invokeSafe(t, it.index, invoke)
		if werr != nil {
			results <- record[R]{kind: recFailure, err: werr}
			dead = true
		} else {
			results <- record[R]{kind: recSuccess, index: it.index, value: value}
		}
		q.ack()
	}
}

// invokeSafe runs the work function with panic capture: a panicking
// item is converted into a WorkerError carrying the worker's stack so
// one bad item cannot take the whole pool down.
func invokeSafe[R any](t *Task, index int, invoke invokeFunc[R]) (value R, werr *WorkerError) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			werr = &WorkerError{
				Err:   fmt.Errorf("panic on item %d: %v", index, r),
				Stack: string(buf[:n]),
			}
		}
	}()

	value, err := invoke(t, index)
	if err != nil {
		return value, &WorkerError{Err: err}
	}
	return value, nil
}
