// Package buffer implements shared, mutable array storage: a region of
// memory with (element type, shape, strides) metadata that every worker
// of a pool, and through Handles every process that can open the
// mapping, addresses as the same bytes. Writing through one view is
// immediately visible through all others, so work functions can fill a
// caller-visible result without a return-value channel.
package buffer

import (
	"errors"
	"fmt"

	"github.com/shmem-go/shmem/internal/shm"
)

var (
	// ErrAllocation reports that the requested byte length could not
	// be mapped.
	ErrAllocation = errors.New("buffer: allocation failed")

	// ErrTypeMismatch reports a typed view requested with the wrong
	// scalar type.
	ErrTypeMismatch = errors.New("buffer: element type mismatch")

	// ErrNotContiguous reports a flat view requested on a strided
	// (non-contiguous) buffer view.
	ErrNotContiguous = errors.New("buffer: view is not contiguous")

	// ErrBadShape reports an invalid shape or slice range.
	ErrBadShape = errors.New("buffer: invalid shape")
)

// Buffer is a typed view over shared memory. Shape, strides and element
// type are fixed at construction; only the contents change. Views made
// with Slice or SliceAxis alias the parent's bytes.
type Buffer struct {
	mapping  *shm.Mapping // nil for zero-length buffers
	owner    bool         // allocated here: Close unlinks the name
	attached bool         // attached via Handle: Close detaches only
	data     []byte       // view base; strides index into this slice
	offset   int          // byte offset of data within the mapping
	elem     ElemType
	shape    []int
	strides  []int // bytes per step along each axis
}

// cStrides returns C-order (row-major) strides in bytes.
func cStrides(shape []int, elemSize int) []int {
	strides := make([]int, len(shape))
	step := elemSize
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = step
		step *= shape[i]
	}
	return strides
}

func elemCount(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// Alloc maps a new zero-initialized shared buffer of the given element
// type and shape. The region is visible under the same bytes from every
// attachment to the buffer's Handle.
func Alloc(elem ElemType, shape ...int) (*Buffer, error) {
	if len(shape) == 0 {
		return nil, fmt.Errorf("%w: no dimensions", ErrBadShape)
	}
	for _, d := range shape {
		if d < 0 {
			return nil, fmt.Errorf("%w: negative dimension %d", ErrBadShape, d)
		}
	}

	shp := append([]int(nil), shape...)
	b := &Buffer{
		elem:    elem,
		shape:   shp,
		strides: cStrides(shp, elem.Size()),
	}

	nbytes := elemCount(shp) * elem.Size()
	if nbytes == 0 {
		return b, nil // zero-length buffers need no mapping
	}

	m, err := shm.Create(nbytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAllocation, err)
	}

	b.mapping = m
	b.owner = true
	b.data = m.Bytes()
	return b, nil
}

// FromSlice allocates a shared buffer and copies src into it. Use Alloc
// directly for huge data sets: going through FromSlice transiently
// doubles the working set.
func FromSlice[T Scalar](src []T) (*Buffer, error) {
	b, err := Alloc(ElemOf[T](), len(src))
	if err != nil {
		return nil, err
	}
	dst, err := View[T](b)
	if err != nil {
		b.release()
		return nil, err
	}
	copy(dst, src)
	return b, nil
}

// Elem returns the element type.
func (b *Buffer) Elem() ElemType { return b.elem }

// Shape returns the buffer's dimensions. The caller must not mutate it.
func (b *Buffer) Shape() []int { return b.shape }

// Strides returns byte strides per axis. The caller must not mutate it.
func (b *Buffer) Strides() []int { return b.strides }

// Len returns the length along axis 0.
func (b *Buffer) Len() int { return b.shape[0] }

// Size returns the total number of elements.
func (b *Buffer) Size() int { return elemCount(b.shape) }

// NBytes returns the total addressable length in bytes.
func (b *Buffer) NBytes() int { return b.Size() * b.elem.Size() }

// Contiguous reports whether the view's elements are laid out densely
// in C order, which is what flat typed views require.
func (b *Buffer) Contiguous() bool {
	want := cStrides(b.shape, b.elem.Size())
	for i, s := range b.strides {
		if b.shape[i] > 1 && s != want[i] {
			return false
		}
	}
	return true
}

// Slice returns a no-copy view of rows [lo, hi) along axis 0.
func (b *Buffer) Slice(lo, hi int) (*Buffer, error) {
	return b.SliceAxis(0, lo, hi)
}

// SliceAxis returns a no-copy view of [lo, hi) along the given axis.
// Slicing any axis but the outermost generally yields a non-contiguous
// view; such views can be sliced further but not flattened with View.
func (b *Buffer) SliceAxis(axis, lo, hi int) (*Buffer, error) {
	if axis < 0 || axis >= len(b.shape) {
		return nil, fmt.Errorf("%w: axis %d out of range for %d dims", ErrBadShape, axis, len(b.shape))
	}
	if lo < 0 || hi < lo || hi > b.shape[axis] {
		return nil, fmt.Errorf("%w: range [%d:%d) along axis of length %d", ErrBadShape, lo, hi, b.shape[axis])
	}

	shp := append([]int(nil), b.shape...)
	shp[axis] = hi - lo

	view := &Buffer{
		mapping: b.mapping,
		elem:    b.elem,
		shape:   shp,
		strides: b.strides,
	}

	if hi == lo {
		return view, nil
	}

	skip := lo * b.strides[axis]
	view.data = b.data[skip:]
	view.offset = b.offset + skip
	return view, nil
}

// release unmaps an owning buffer and removes its name. Views are
// detached without touching the mapping.
func (b *Buffer) release() {
	if b.owner && b.mapping != nil {
		_ = b.mapping.Unlink()
		_ = b.mapping.Close()
	}
	b.mapping = nil
	b.data = nil
}

// Close detaches the buffer. For the allocating buffer this unmaps the
// region and removes its name; attachments made through Attach detach
// only themselves. In process-based use the allocator must keep the
// buffer open until every worker that references it is done.
func (b *Buffer) Close() error {
	if b.owner {
		b.release()
		return nil
	}
	if b.attached && b.mapping != nil {
		err := b.mapping.Close()
		b.mapping = nil
		b.data = nil
		return err
	}
	// Derived views borrow the parent's mapping and detach silently.
	b.mapping = nil
	b.data = nil
	return nil
}
