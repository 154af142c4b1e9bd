// Package pio streams raw binary element data between regular files and
// shared buffers. Reads and writes are cut into large chunks and issued
// from the pool's workers in parallel, with an optional process-wide
// byte-rate cap for jobs sharing storage with latency-sensitive work.
package pio

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/time/rate"

	"github.com/shmem-go/shmem/buffer"
	"github.com/shmem-go/shmem/internal/shm"
	"github.com/shmem-go/shmem/pool"
)

// Chunks default to 64 MiB: large enough to reach sequential device
// bandwidth, small enough that the balanced split keeps every worker
// busy.
const defaultChunkBytes = 64 << 20

// Option adjusts a transfer.
type Option func(*config)

type config struct {
	count       int
	chunkBytes  int
	bytesPerSec int
}

// WithCount limits FromFile to the first n elements of the file.
func WithCount(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.count = n
		}
	}
}

// WithChunkElems sets the transfer chunk length in elements.
func WithChunkElems(elem buffer.ElemType, n int) Option {
	return func(c *config) {
		if n > 0 {
			c.chunkBytes = n * elem.Size()
		}
	}
}

// WithRateLimit caps the aggregate transfer rate, in bytes per second,
// across all workers of this call.
func WithRateLimit(bytesPerSec int) Option {
	return func(c *config) {
		if bytesPerSec > 0 {
			c.bytesPerSec = bytesPerSec
		}
	}
}

func newConfig(opts []Option) config {
	cfg := config{count: -1, chunkBytes: defaultChunkBytes}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// limiter returns the shared rate limiter for a transfer, or nil when
// the rate is uncapped. The burst admits one full chunk so WaitN never
// exceeds it.
func (c config) limiter() *rate.Limiter {
	if c.bytesPerSec == 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(c.bytesPerSec), max(c.bytesPerSec, c.chunkBytes))
}

// span is a half-open byte range of one transfer chunk.
type span struct {
	lo, hi int
}

func chunkSpans(total, chunkBytes int) []span {
	spans := make([]span, 0, (total+chunkBytes-1)/chunkBytes)
	for lo := 0; lo < total; lo += chunkBytes {
		spans = append(spans, span{lo, min(lo+chunkBytes, total)})
	}
	return spans
}

// FromFile reads a file of raw elements into a freshly allocated shared
// buffer. Without WithCount the whole file is read; a trailing partial
// element is ignored. Each worker reads through its own descriptor, so
// chunks never contend on a shared file offset.
func FromFile(p *pool.Pool, path string, elem buffer.ElemType, opts ...Option) (*buffer.Buffer, error) {
	cfg := newConfig(opts)

	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("pio: %w", err)
	}

	esz := elem.Size()
	count := cfg.count
	if count < 0 {
		count = int(st.Size()) / esz
	} else if int64(count)*int64(esz) > st.Size() {
		return nil, fmt.Errorf("pio: %s holds %d %s elements, %d requested: %w",
			path, st.Size()/int64(esz), elem, count, io.ErrUnexpectedEOF)
	}

	b, err := buffer.Alloc(elem, count)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return b, nil
	}
	raw, err := b.Bytes()
	if err != nil {
		b.Close()
		return nil, err
	}

	limiter := cfg.limiter()

	// Every worker opens the file once, keyed in its scratch store; the
	// master closes the handles after the transfer.
	var (
		mu      sync.Mutex
		handles []*os.File
	)
	defer func() {
		for _, f := range handles {
			f.Close()
		}
	}()
	workerFile := func(t *pool.Task) (*os.File, error) {
		v, err := t.Scratch().Get("pio.file", func() (any, error) {
			f, err := os.Open(path)
			if err != nil {
				return nil, err
			}
			mu.Lock()
			handles = append(handles, f)
			mu.Unlock()
			return f, nil
		})
		if err != nil {
			return nil, err
		}
		return v.(*os.File), nil
	}

	spans := chunkSpans(count*esz, cfg.chunkBytes)
	jobs := make([]func(*pool.Task) error, len(spans))
	for i, s := range spans {
		jobs[i] = func(t *pool.Task) error {
			f, err := workerFile(t)
			if err != nil {
				return err
			}
			if limiter != nil {
				if err := limiter.WaitN(context.Background(), s.hi-s.lo); err != nil {
					return err
				}
			}
			if _, err := f.ReadAt(raw[s.lo:s.hi], int64(s.lo)); err != nil {
				return fmt.Errorf("pio: read %s [%d:%d]: %w", path, s.lo, s.hi, err)
			}
			return nil
		}
	}
	if err := pool.Do(p, jobs); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

// ToFile writes a contiguous buffer's raw bytes to a regular file,
// replacing any previous content. The destination is mapped shared and
// filled chunk-parallel, then synced before the mapping is dropped.
func ToFile(p *pool.Pool, path string, b *buffer.Buffer, opts ...Option) error {
	cfg := newConfig(opts)

	raw, err := b.Bytes()
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return os.WriteFile(path, nil, 0o644)
	}

	m, err := shm.MapFile(path, len(raw))
	if err != nil {
		return err
	}
	defer m.Close()

	limiter := cfg.limiter()
	dst := m.Bytes()

	spans := chunkSpans(len(raw), cfg.chunkBytes)
	jobs := make([]func(*pool.Task) error, len(spans))
	for i, s := range spans {
		jobs[i] = func(*pool.Task) error {
			if limiter != nil {
				if err := limiter.WaitN(context.Background(), s.hi-s.lo); err != nil {
					return err
				}
			}
			copy(dst[s.lo:s.hi], raw[s.lo:s.hi])
			return nil
		}
	}
	if err := pool.Do(p, jobs); err != nil {
		return err
	}
	return m.Sync()
}
