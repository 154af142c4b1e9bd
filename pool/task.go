package pool

import "sync"

// Task is the worker-side context handed to every work function. It
// carries the worker's identity explicitly (rank, the pool's shared
// lock, and the per-worker scratch store) so work functions never need
// thread-local lookups.
type Task struct {
	rank    int
	pool    *Pool
	scratch *Scratch
}

// Rank is the worker's stable identity, 0..N-1 for the pool's lifetime.
// It is -1 when the work runs in the master (serial or debug mode).
func (t *Task) Rank() int { return t.rank }

// Lock returns the pool's shared mutual-exclusion lock. Any shared
// buffer written by more than one worker without disjoint index ranges
// must be written under it.
func (t *Task) Lock() *sync.Mutex { return t.pool.Lock() }

// Scratch returns this worker's private local storage, created lazily
// on first use. Typical use: a per-worker file handle.
func (t *Task) Scratch() *Scratch {
	if t.scratch == nil {
		t.scratch = &Scratch{}
	}
	return t.scratch
}

// Scratch is per-worker local storage. It is only ever touched by its
// owning worker, so access is unsynchronized. Slots are not
// pre-populated; Get creates them on first use.
type Scratch struct {
	values map[string]any
}

// Get returns the value stored under key, calling init to create it the
// first time. The init error is returned verbatim and nothing is
// stored.
func (s *Scratch) Get(key string, init func() (any, error)) (any, error) {
	if v, ok := s.values[key]; ok {
		return v, nil
	}
	v, err := init()
	if err != nil {
		return nil, err
	}
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[key] = v
	return v, nil
}

// Set stores a value under key.
func (s *Scratch) Set(key string, v any) {
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[key] = v
}
