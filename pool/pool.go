package pool

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/shmem-go/shmem/internal/cpu"
	"github.com/shmem-go/shmem/split"
)

// Backend selects how workers are scheduled.
type Backend int

const (
	// Thread workers are plain goroutines. This is the default: native
	// threads give genuine parallelism, so heavy compute loops need no
	// special treatment.
	Thread Backend = iota

	// Process workers are locked to dedicated OS threads and pinned to
	// the core matching their rank where the platform allows it. Use it
	// for workloads that benefit from thread/core identity; shared
	// buffers behave identically under both backends.
	Process
)

// Process-wide defaults, adjustable at any time; they take effect for
// pools constructed (debug: map calls started) afterwards.
var (
	globalDebug       atomic.Bool
	globalJoinRetries atomic.Int64

	// activeWorkers counts running workers across every pool in the
	// process; New consults it to refuse nested thread pools.
	activeWorkers atomic.Int64
)

func init() {
	globalJoinRetries.Store(defaultJoinRetries)
}

const (
	defaultJoinRetries  = 10
	defaultJoinInterval = 10 * time.Second
)

// SetDebug toggles process-wide debug mode: while enabled, every map
// call runs serially in the caller's own goroutine so work-function
// failures can be inspected directly.
func SetDebug(flag bool) {
	globalDebug.Store(flag)
}

// SetJoinRetries sets the process-wide default number of shutdown join
// retries. Each retry waits the pool's join interval; a pool whose
// workers are still alive after all retries logs a warning and
// proceeds, since all assigned work is already accounted for.
func SetJoinRetries(n int) {
	if n >= 0 {
		globalJoinRetries.Store(int64(n))
	}
}

// Pool fans work items out to a fixed set of rank-identified workers.
// Construction fixes the worker count and backend; every map call gets
// its own task/result queue pair.
type Pool struct {
	workers      int
	backend      Backend
	nested       bool
	serial       bool
	debug        bool
	joinRetries  int
	joinInterval time.Duration
	log          *zap.Logger

	mu sync.Mutex // the lock exposed to work functions
}

// Option configures a Pool.
type Option func(*Pool)

// WithWorkers overrides the worker count. The default comes from the
// OMP_NUM_THREADS override, else the detected core count.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithBackend selects the Thread or Process backend.
func WithBackend(b Backend) Option {
	return func(p *Pool) { p.backend = b }
}

// WithNested allows constructing a thread pool from inside another
// pool's worker. Without it such pools degrade to serial mode.
func WithNested() Option {
	return func(p *Pool) { p.nested = true }
}

// WithDebug forces this pool's map calls to run serially in the caller,
// independent of the process-wide debug toggle.
func WithDebug() Option {
	return func(p *Pool) { p.debug = true }
}

// WithJoinRetries overrides the shutdown join retry count for this pool.
func WithJoinRetries(n int) Option {
	return func(p *Pool) {
		if n >= 0 {
			p.joinRetries = n
		}
	}
}

// WithJoinInterval overrides the wait per join retry.
func WithJoinInterval(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.joinInterval = d
		}
	}
}

// WithLogger attaches a logger for the pool's diagnostics (shutdown
// stragglers, leftover result records, serial degradation). The default
// is a nop logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Pool) {
		if log != nil {
			p.log = log
		}
	}
}

// New constructs a pool. A thread-backend pool created while another
// pool's workers are running degrades to serial mode (the work runs in
// the caller, no workers are spawned) unless WithNested is given:
// nested parallelism only multiplies oversubscription.
func New(opts ...Option) *Pool {
	p := &Pool{
		workers:      cpu.Count(),
		backend:      Thread,
		joinRetries:  int(globalJoinRetries.Load()),
		joinInterval: defaultJoinInterval,
		log:          zap.NewNop(),
	}

	insideWorker := activeWorkers.Load() > 0

	for _, opt := range opts {
		opt(p)
	}

	if insideWorker && p.backend == Thread && !p.nested {
		p.serial = true
		p.log.Warn("nested pool avoided; running serially")
	}

	return p
}

// Workers returns the pool's fixed worker count.
func (p *Pool) Workers() int { return p.workers }

// Serial reports whether this pool runs work in the caller.
func (p *Pool) Serial() bool { return p.serial }

// Lock returns the mutual-exclusion lock shared by all of the pool's
// work functions, for critical sections over caller-chosen state. The
// engine itself never takes it.
func (p *Pool) Lock() *sync.Mutex { return &p.mu }

// Split partitions an argument bundle into this pool's worker count by
// default. See the split package.
func (p *Pool) Split(args []split.Arg, opts ...split.Option) ([][]any, error) {
	return split.Split(args, append([]split.Option{split.DefaultChunks(p.workers)}, opts...)...)
}

// ZipSplit partitions like Split and transposes into per-task argument
// tuples ready for StarMap.
func (p *Pool) ZipSplit(args []split.Arg, opts ...split.Option) ([]split.Args, error) {
	return split.ZipSplit(args, append([]split.Option{split.DefaultChunks(p.workers)}, opts...)...)
}

// debugging reports whether the next map call must run serially for
// inspection; checked before any worker is spawned.
func (p *Pool) debugging() bool {
	return p.debug || globalDebug.Load()
}
