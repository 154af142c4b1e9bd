// Package split partitions heterogeneous argument bundles into balanced
// per-task chunks. Array-like arguments are cut into near-equal pieces
// along an axis; scalars and fixed tuples are broadcast unchanged to
// every chunk. ZipSplit transposes the result into one argument tuple
// per task, ready for a pool's StarMap.
package split

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/shmem-go/shmem/buffer"
	"github.com/shmem-go/shmem/internal/cpu"
)

var (
	// ErrLengthMismatch reports sliceable arguments that disagree in
	// length along their chosen axes.
	ErrLengthMismatch = errors.New("split: sliceable arguments have different lengths")

	// ErrNotSliceable reports a Seq argument whose value cannot be cut.
	ErrNotSliceable = errors.New("split: value is not sliceable")

	// ErrNoSequence reports a bundle with nothing to partition.
	ErrNoSequence = errors.New("split: at least one sliceable argument is required")
)

type argKind uint8

const (
	kindBroadcast argKind = iota
	kindSeq
)

// Arg is one argument of a bundle, tagged once at construction as
// either broadcast or sliceable.
type Arg struct {
	kind  argKind
	value any
	axis  int
}

// Broadcast marks a value (a scalar, a fixed tuple, any non-array) to
// be repeated identically in every chunk, never divided.
func Broadcast(v any) Arg {
	return Arg{kind: kindBroadcast, value: v}
}

// Seq marks a value to be cut along axis 0. Go slices and
// *buffer.Buffer values are sliceable.
func Seq(v any) Arg {
	return Arg{kind: kindSeq, value: v}
}

// SeqAxis marks a *buffer.Buffer to be cut along the given axis.
func SeqAxis(v any, axis int) Arg {
	return Arg{kind: kindSeq, value: v, axis: axis}
}

// Of classifies a value the way the partitioner would by default:
// buffers and slices become Seq, everything else is broadcast.
func Of(v any) Arg {
	if _, ok := v.(*buffer.Buffer); ok {
		return Seq(v)
	}
	if rv := reflect.ValueOf(v); rv.IsValid() && rv.Kind() == reflect.Slice {
		return Seq(v)
	}
	return Broadcast(v)
}

// Args is one task's argument tuple, produced by ZipSplit.
type Args []any

// Option adjusts how a bundle is partitioned.
type Option func(*config)

type config struct {
	nchunks       int
	chunkSize     int
	defaultChunks int
}

// NChunks fixes the number of chunks.
func NChunks(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.nchunks = n
		}
	}
}

// ChunkSize sets a target chunk length instead of a chunk count; the
// count is then max(1, length/size). Ignored when NChunks is given.
func ChunkSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// DefaultChunks sets the chunk count used when neither NChunks nor
// ChunkSize is given. Pools pass their worker count here; the package
// default is twice the detected parallelism.
func DefaultChunks(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.defaultChunks = n
		}
	}
}

// resolved is a Seq argument bound to its length and cutter.
type resolved struct {
	broadcast bool
	value     any
	length    int
	cut       func(lo, hi int) (any, error)
}

func resolve(a Arg) (resolved, error) {
	if a.kind == kindBroadcast {
		return resolved{broadcast: true, value: a.value}, nil
	}

	if b, ok := a.value.(*buffer.Buffer); ok {
		axis := a.axis
		if axis < 0 || axis >= len(b.Shape()) {
			return resolved{}, fmt.Errorf("%w: axis %d out of range for buffer with %d dims",
				ErrNotSliceable, axis, len(b.Shape()))
		}
		return resolved{
			length: b.Shape()[axis],
			cut: func(lo, hi int) (any, error) {
				return b.SliceAxis(axis, lo, hi)
			},
		}, nil
	}

	rv := reflect.ValueOf(a.value)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return resolved{}, fmt.Errorf("%w: %T", ErrNotSliceable, a.value)
	}
	if a.axis != 0 {
		return resolved{}, fmt.Errorf("%w: axis %d on a Go slice (only buffers support inner axes)",
			ErrNotSliceable, a.axis)
	}
	return resolved{
		length: rv.Len(),
		cut: func(lo, hi int) (any, error) {
			return rv.Slice(lo, hi).Interface(), nil
		},
	}, nil
}

// chunkLengths splits length into nchunks balanced pieces: the first
// length%nchunks chunks carry one extra element. Trailing chunks may be
// empty when nchunks exceeds length; none are dropped.
func chunkLengths(length, nchunks int) []int {
	each, extra := length/nchunks, length%nchunks
	sizes := make([]int, nchunks)
	for i := range sizes {
		sizes[i] = each
		if i < extra {
			sizes[i]++
		}
	}
	return sizes
}

// Split partitions a bundle into per-argument chunk sequences:
// result[a][i] is argument a's piece of chunk i. Sliceable arguments
// must agree on length; broadcast arguments appear verbatim in every
// chunk. No element is dropped or duplicated.
func Split(args []Arg, opts ...Option) ([][]any, error) {
	cfg := config{defaultChunks: cpu.Count() * 2}
	for _, opt := range opts {
		opt(&cfg)
	}

	rs := make([]resolved, len(args))
	length := -1
	for i, a := range args {
		r, err := resolve(a)
		if err != nil {
			return nil, err
		}
		if !r.broadcast {
			if length >= 0 && r.length != length {
				return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, length, r.length)
			}
			length = r.length
		}
		rs[i] = r
	}
	if length < 0 {
		return nil, ErrNoSequence
	}

	nchunks := cfg.nchunks
	if nchunks == 0 {
		if cfg.chunkSize > 0 {
			nchunks = max(1, length/cfg.chunkSize)
		} else {
			nchunks = cfg.defaultChunks
		}
	}

	sizes := chunkLengths(length, nchunks)

	out := make([][]any, len(rs))
	for ai, r := range rs {
		chunks := make([]any, nchunks)
		if r.broadcast {
			for i := range chunks {
				chunks[i] = r.value
			}
		} else {
			off := 0
			for i, sz := range sizes {
				piece, err := r.cut(off, off+sz)
				if err != nil {
					return nil, err
				}
				chunks[i] = piece
				off += sz
			}
		}
		out[ai] = chunks
	}
	return out, nil
}

// ZipSplit partitions like Split and transposes the result into one
// argument tuple per chunk, aligned so chunk i of every argument lands
// in tuple i.
func ZipSplit(args []Arg, opts ...Option) ([]Args, error) {
	chunks, err := Split(args, opts...)
	if err != nil {
		return nil, err
	}

	nchunks := len(chunks[0])
	tuples := make([]Args, nchunks)
	for i := range tuples {
		tuple := make(Args, len(chunks))
		for a := range chunks {
			tuple[a] = chunks[a][i]
		}
		tuples[i] = tuple
	}
	return tuples, nil
}
