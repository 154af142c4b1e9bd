// Package algorithms holds small strategy and numeric helpers shared by
// the engine packages.
package algorithms

import (
	"time"
)

// BackoffStrategy defines how the delay before a retry is calculated.
//
// attemptNumber is 0-indexed (0 = first retry after the initial
// failure). lastError lets adaptive strategies inspect what went wrong.
type BackoffStrategy interface {
	NextDelay(attemptNumber int, lastError error) time.Duration

	// Reset clears any internal state. Stateless strategies may treat
	// this as a no-op.
	Reset()
}

// fixedBackoff waits the same interval before every retry. The master
// uses it to pace bounded worker-join retries during shutdown, where
// growing delays would only postpone the "still alive" diagnostic.
type fixedBackoff struct {
	interval time.Duration
}

// NewFixed returns a strategy that always waits interval.
func NewFixed(interval time.Duration) BackoffStrategy {
	return &fixedBackoff{interval: interval}
}

func (fb *fixedBackoff) NextDelay(attemptNumber int, lastError error) time.Duration {
	if attemptNumber < 0 {
		return 0
	}
	return fb.interval
}

func (fb *fixedBackoff) Reset() {}
