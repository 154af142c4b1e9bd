package buffer

import (
	"fmt"
	"unsafe"
)

// View returns the buffer's elements as a flat []T sharing the
// underlying bytes. The view is only available for contiguous buffers
// whose element type matches T; strided views must be sliced down to
// contiguous pieces first.
func View[T Scalar](b *Buffer) ([]T, error) {
	if want := ElemOf[T](); want != b.elem {
		return nil, fmt.Errorf("%w: buffer holds %s, requested %s", ErrTypeMismatch, b.elem, want)
	}
	if !b.Contiguous() {
		return nil, ErrNotContiguous
	}

	n := b.Size()
	if n == 0 {
		return nil, nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b.data[0])), n), nil
}

// Bytes returns the raw bytes of a contiguous buffer.
func (b *Buffer) Bytes() ([]byte, error) {
	if !b.Contiguous() {
		return nil, ErrNotContiguous
	}
	n := b.NBytes()
	if n == 0 {
		return nil, nil
	}
	return b.data[:n], nil
}
