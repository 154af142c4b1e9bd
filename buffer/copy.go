package buffer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/shmem-go/shmem/internal/cpu"
)

// copyChunk is the smallest unit worth handing to a separate goroutine
// when duplicating buffer contents.
const copyChunk = 8 << 20

// Copy allocates a new shared buffer with src's metadata and copies the
// contents over. Peak memory transiently doubles, so prefer Alloc and
// writing in place for huge data sets. Large copies run chunk-parallel.
func Copy(src *Buffer) (*Buffer, error) {
	from, err := src.Bytes()
	if err != nil {
		return nil, err
	}

	dst, err := Alloc(src.elem, src.shape...)
	if err != nil {
		return nil, err
	}
	if len(from) == 0 {
		return dst, nil
	}

	to, err := dst.Bytes()
	if err != nil {
		dst.release()
		return nil, err
	}

	if len(from) <= 2*copyChunk {
		copy(to, from)
		return dst, nil
	}

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(cpu.Count())
	for off := 0; off < len(from); off += copyChunk {
		lo, hi := off, min(off+copyChunk, len(from))
		g.Go(func() error {
			copy(to[lo:hi], from[lo:hi])
			return nil
		})
	}
	_ = g.Wait() // chunk copies cannot fail

	return dst, nil
}
