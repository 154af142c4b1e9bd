// Package pool dispatches trivially parallelizable jobs across a fixed
// set of workers that share the caller's memory.
//
// A Pool owns N rank-identified workers, a sentinel-terminated task
// queue and a result queue. Map and StarMap enqueue one work item per
// element of the input slice, fan them out, and collect exactly one
// result record per item: successes, failures, or dead markers for
// items a failed worker drained without running. Returning results
// through the return value works, but writing output directly into a
// shared buffer (see the buffer package) is much faster for bulk data.
//
// Error containment: the first error a worker hits flips it into a dead
// state; it keeps draining its remaining items as dead so the master's
// accounting stays exact, and after shutdown the master raises a single
// aggregated error reporting the failure count and the first captured
// failure.
//
// Work functions receive their worker's identity explicitly as a *Task:
// the rank, the pool's shared lock for critical sections, and a lazily
// created per-worker scratch store (for e.g. a private file handle).
//
// Debugging: SetDebug(true), or the WithDebug option, makes every map
// call run serially in the caller so a failing work function can be
// inspected directly; no workers are spawned and the original error
// propagates unwrapped.
package pool
