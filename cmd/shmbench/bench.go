package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shmem-go/shmem/buffer"
	"github.com/shmem-go/shmem/pio"
	"github.com/shmem-go/shmem/pool"
	"github.com/shmem-go/shmem/psort"
	"github.com/shmem-go/shmem/split"
)

// RunResult is one scenario's measurement: the same workload timed on a
// single worker and on the full pool.
type RunResult struct {
	Scenario string
	Elements int
	Serial   time.Duration
	Parallel time.Duration
	Err      error
}

// Speedup is serial time over parallel time.
func (r RunResult) Speedup() float64 {
	if r.Parallel == 0 {
		return 0
	}
	return float64(r.Serial) / float64(r.Parallel)
}

// ThroughputPS is elements per second on the full pool.
func (r RunResult) ThroughputPS() float64 {
	if r.Parallel == 0 {
		return 0
	}
	return float64(r.Elements) / r.Parallel.Seconds()
}

// workload is a prepared scenario: Run must do the same work regardless
// of which pool it is handed.
type workload struct {
	run     func(p *pool.Pool) error
	cleanup func()
}

// randomDoubles fills a slice with reproducible noise, generated in
// parallel so multi-gigabyte suites do not stall on setup.
func randomDoubles(n int) []float64 {
	data := make([]float64, n)

	var g errgroup.Group
	const stripe = 1 << 20
	for lo := 0; lo < n; lo += stripe {
		lo, hi := lo, min(lo+stripe, n)
		g.Go(func() error {
			rng := rand.New(rand.NewSource(int64(lo)))
			for i := lo; i < hi; i++ {
				data[i] = rng.Float64()
			}
			return nil
		})
	}
	_ = g.Wait() // the stripes cannot fail
	return data
}

func prepare(sc ScenarioConfig) (workload, error) {
	switch sc.Kind {
	case "map":
		items := make([]int, sc.Elements)
		for i := range items {
			items[i] = i
		}
		return workload{run: func(p *pool.Pool) error {
			_, err := pool.Map(p, items, func(_ *pool.Task, v int) (int, error) {
				return v * v, nil
			})
			return err
		}}, nil

	case "starmap":
		data := randomDoubles(sc.Elements)
		return workload{run: func(p *pool.Pool) error {
			tuples, err := p.ZipSplit([]split.Arg{split.Seq(data)})
			if err != nil {
				return err
			}
			_, err = pool.StarMap(p, tuples, func(_ *pool.Task, args ...any) (float64, error) {
				total := 0.0
				for _, v := range args[0].([]float64) {
					total += v
				}
				return total, nil
			})
			return err
		}}, nil

	case "argsort":
		data := randomDoubles(sc.Elements)
		return workload{run: func(p *pool.Pool) error {
			perm, err := psort.ArgSort(p, data)
			if err != nil {
				return err
			}
			_, err = psort.Take(p, data, perm)
			return err
		}}, nil

	case "copy":
		src, err := buffer.Alloc(buffer.Uint8, sc.Elements)
		if err != nil {
			return workload{}, err
		}
		return workload{
			run: func(*pool.Pool) error {
				dup, err := buffer.Copy(src)
				if err != nil {
					return err
				}
				return dup.Close()
			},
			cleanup: func() { src.Close() },
		}, nil

	case "fileio":
		dir, err := os.MkdirTemp("", "shmbench")
		if err != nil {
			return workload{}, err
		}
		path := filepath.Join(dir, "payload.f8")

		b, err := buffer.Alloc(buffer.Float64, sc.Elements)
		if err != nil {
			os.RemoveAll(dir)
			return workload{}, err
		}
		view, err := buffer.View[float64](b)
		if err != nil {
			b.Close()
			os.RemoveAll(dir)
			return workload{}, err
		}
		copy(view, randomDoubles(sc.Elements))

		var opts []pio.Option
		if sc.RateMB > 0 {
			opts = append(opts, pio.WithRateLimit(sc.RateMB<<20))
		}
		return workload{
			run: func(p *pool.Pool) error {
				if err := pio.ToFile(p, path, b, opts...); err != nil {
					return err
				}
				back, err := pio.FromFile(p, path, buffer.Float64, opts...)
				if err != nil {
					return err
				}
				return back.Close()
			},
			cleanup: func() {
				b.Close()
				os.RemoveAll(dir)
			},
		}, nil
	}
	return workload{}, fmt.Errorf("unknown scenario kind %q", sc.Kind)
}

// measure times the workload on the given pool, keeping the best of
// iterations runs.
func measure(w workload, p *pool.Pool, iterations int) (time.Duration, error) {
	best := time.Duration(0)
	for i := 0; i < iterations; i++ {
		start := time.Now()
		if err := w.run(p); err != nil {
			return 0, err
		}
		elapsed := time.Since(start)
		if best == 0 || elapsed < best {
			best = elapsed
		}
	}
	return best, nil
}

func runScenario(sc ScenarioConfig, serial, parallel *pool.Pool, iterations int) RunResult {
	res := RunResult{Scenario: sc.Name, Elements: sc.Elements}

	w, err := prepare(sc)
	if err != nil {
		res.Err = err
		return res
	}
	if w.cleanup != nil {
		defer w.cleanup()
	}

	if res.Serial, res.Err = measure(w, serial, iterations); res.Err != nil {
		return res
	}
	res.Parallel, res.Err = measure(w, parallel, iterations)
	return res
}
