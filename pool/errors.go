package pool

import (
	"fmt"
	"strings"
)

// WorkerError is one captured work-function failure: the original error
// plus, for panics, the worker's stack trace at the point of capture.
type WorkerError struct {
	Err   error
	Stack string
}

func (e *WorkerError) Error() string {
	return e.Err.Error()
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}

// PoolError is the single aggregated error the master raises after
// shutdown when any worker failed. It reports how many failures were
// collected and the full detail of the first one; the remaining
// captured errors are counted but not individually surfaced.
type PoolError struct {
	Count int
	First *WorkerError
}

func (e *PoolError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pool: %d error(s) received; first: %v", e.Count, e.First.Err)
	if e.First.Stack != "" {
		b.WriteByte('\n')
		b.WriteString(e.First.Stack)
	}
	return b.String()
}

func (e *PoolError) Unwrap() error {
	return e.First
}
