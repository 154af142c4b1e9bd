package pool

import "sync"

// workItem is one queue entry: an index into the input sequence, or the
// per-worker termination sentinel.
type workItem struct {
	index    int
	sentinel bool
}

// taskQueue is the joinable dispatch queue: the master enqueues one
// item per input element followed by one sentinel per worker, and Join
// blocks until every entry has been acknowledged. Capacity covers the
// whole load, so enqueueing never blocks and workers never starve the
// master.
type taskQueue struct {
	ch      chan workItem
	pending sync.WaitGroup
}

func newTaskQueue(capacity int) *taskQueue {
	return &taskQueue{ch: make(chan workItem, capacity)}
}

func (q *taskQueue) put(it workItem) {
	q.pending.Add(1)
	q.ch <- it
}

// ack marks one pulled item as fully handled.
func (q *taskQueue) ack() {
	q.pending.Done()
}

// Join blocks until every enqueued item, sentinels included, has been
// acknowledged.
func (q *taskQueue) join() {
	q.pending.Wait()
}

// record kinds, one record per work item.
type recordKind uint8

const (
	// recSuccess carries the work function's return value.
	recSuccess recordKind = iota
	// recFailure carries a captured error; the index is meaningless
	// since the failing item is only known to the worker.
	recFailure
	// recDead marks an item never executed because its worker had
	// already failed.
	recDead
)

type record[R any] struct {
	kind  recordKind
	index int
	value R
	err   *WorkerError
}
