// Package psort provides a parallel argsort and a parallel gather over
// ordered element types. Sorting never moves the input: it produces a
// permutation of indices, so callers can reorder several parallel
// arrays with one sort.
package psort

import (
	"fmt"
	"sort"

	"golang.org/x/exp/constraints"

	"github.com/shmem-go/shmem/buffer"
	"github.com/shmem-go/shmem/internal/algorithms"
	"github.com/shmem-go/shmem/pool"
	"github.com/shmem-go/shmem/split"
)

// Below this length the setup cost of chunking dominates; sort in the
// caller instead.
const serialCutoff = 4096

// ArgSort returns the permutation that sorts data ascending: out[k] is
// the index of the k-th smallest element. Equal elements keep their
// input order. The input is not modified.
//
// The work is split into chunks that are argsorted independently on the
// pool's workers, then merged pairwise in rounds, ping-ponging between
// two full-length index buffers so every merge writes sequentially.
func ArgSort[T constraints.Ordered](p *pool.Pool, data []T) ([]int64, error) {
	n := len(data)
	if p.Serial() || p.Workers() <= 1 || n <= serialCutoff {
		return serialArgSort(data), nil
	}

	nchunks := algorithms.NextPowerOfTwo(p.Workers()) * 4
	if nchunks > n {
		nchunks = n
	}

	cur, err := buffer.Alloc(buffer.Int64, n)
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	alt, err := buffer.Alloc(buffer.Int64, n)
	if err != nil {
		return nil, err
	}
	defer alt.Close()

	src, err := buffer.View[int64](cur)
	if err != nil {
		return nil, err
	}
	dst, err := buffer.View[int64](alt)
	if err != nil {
		return nil, err
	}

	runs := chunkRuns(n, nchunks)

	// Phase 1: each chunk becomes a sorted run of absolute indices.
	jobs := make([]func(*pool.Task) error, len(runs))
	for i, r := range runs {
		jobs[i] = func(*pool.Task) error {
			part := src[r.lo:r.hi]
			for k := range part {
				part[k] = int64(r.lo + k)
			}
			sort.SliceStable(part, func(a, b int) bool {
				return data[part[a]] < data[part[b]]
			})
			return nil
		}
	}
	if err := pool.Do(p, jobs); err != nil {
		return nil, err
	}

	// Phase 2: merge adjacent runs pairwise until one remains. An odd
	// trailing run is copied forward so both buffers stay consistent.
	for len(runs) > 1 {
		next := make([]span, 0, (len(runs)+1)/2)
		jobs = jobs[:0]
		for i := 0; i+1 < len(runs); i += 2 {
			left, right := runs[i], runs[i+1]
			jobs = append(jobs, func(*pool.Task) error {
				mergeRuns(data, src, dst, left, right)
				return nil
			})
			next = append(next, span{left.lo, right.hi})
		}
		if len(runs)%2 == 1 {
			last := runs[len(runs)-1]
			jobs = append(jobs, func(*pool.Task) error {
				copy(dst[last.lo:last.hi], src[last.lo:last.hi])
				return nil
			})
			next = append(next, last)
		}
		if err := pool.Do(p, jobs); err != nil {
			return nil, err
		}
		src, dst = dst, src
		runs = next
	}

	out := make([]int64, n)
	copy(out, src)
	return out, nil
}

// span is a half-open index range [lo, hi) of one sorted run.
type span struct {
	lo, hi int
}

// chunkRuns cuts [0, n) into nchunks balanced spans; the first
// n%nchunks spans carry one extra element.
func chunkRuns(n, nchunks int) []span {
	each, extra := n/nchunks, n%nchunks
	runs := make([]span, nchunks)
	off := 0
	for i := range runs {
		sz := each
		if i < extra {
			sz++
		}
		runs[i] = span{off, off + sz}
		off += sz
	}
	return runs
}

// mergeRuns merges two adjacent sorted runs of src into the same range
// of dst. Ties take the left run first; since left indices precede
// right indices, this preserves stability.
func mergeRuns[T constraints.Ordered](data []T, src, dst []int64, left, right span) {
	i, j, k := left.lo, right.lo, left.lo
	for i < left.hi && j < right.hi {
		if data[src[j]] < data[src[i]] {
			dst[k] = src[j]
			j++
		} else {
			dst[k] = src[i]
			i++
		}
		k++
	}
	k += copy(dst[k:], src[i:left.hi])
	copy(dst[k:], src[j:right.hi])
}

func serialArgSort[T constraints.Ordered](data []T) []int64 {
	out := make([]int64, len(data))
	for i := range out {
		out[i] = int64(i)
	}
	sort.SliceStable(out, func(a, b int) bool {
		return data[out[a]] < data[out[b]]
	})
	return out
}

// Take gathers data[idx[k]] for every k, in parallel across the pool's
// workers. It is the companion to ArgSort: Take(p, data, perm) yields
// data in sorted order.
func Take[T any](p *pool.Pool, data []T, idx []int64) ([]T, error) {
	out := make([]T, len(idx))
	if len(idx) == 0 {
		return out, nil
	}

	tuples, err := p.ZipSplit([]split.Arg{split.Seq(idx), split.Seq(out)})
	if err != nil {
		return nil, err
	}

	_, err = pool.StarMap(p, tuples, func(_ *pool.Task, args ...any) (struct{}, error) {
		part := args[0].([]int64)
		sink := args[1].([]T)
		for k, ix := range part {
			if ix < 0 || ix >= int64(len(data)) {
				return struct{}{}, fmt.Errorf("psort: index %d out of range [0, %d)", ix, len(data))
			}
			sink[k] = data[ix]
		}
		return struct{}{}, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
