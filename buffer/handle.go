package buffer

import (
	"errors"
	"fmt"

	"github.com/shmem-go/shmem/internal/shm"
)

// ErrNoHandle reports a Handle requested for a buffer with no backing
// mapping (zero-length buffers).
var ErrNoHandle = errors.New("buffer: buffer has no shareable mapping")

// Handle is the serializable identity of a buffer view: a mapping name
// plus the metadata needed to rebuild a typed view of the same bytes in
// any process that can open the name. Nothing in a Handle embeds an
// address; the kernel places the mapping wherever it likes in each
// attaching process.
type Handle struct {
	Name    string   `json:"name" yaml:"name"`
	Elem    ElemType `json:"elem" yaml:"elem"`
	Shape   []int    `json:"shape" yaml:"shape"`
	Strides []int    `json:"strides" yaml:"strides"`
	Offset  int      `json:"offset" yaml:"offset"` // byte offset of the view within the mapping
}

// Handle returns the buffer's shareable identity. Views of the same
// allocation produce handles naming the same mapping with different
// offsets and shapes.
func (b *Buffer) Handle() (Handle, error) {
	if b.mapping == nil {
		return Handle{}, ErrNoHandle
	}
	return Handle{
		Name:    b.mapping.Name(),
		Elem:    b.elem,
		Shape:   append([]int(nil), b.shape...),
		Strides: append([]int(nil), b.strides...),
		Offset:  b.offset,
	}, nil
}

// Attach resolves a Handle into a live view of the same bytes. The
// attachment holds its own descriptor and must be closed independently
// of the allocating buffer. A handle whose metadata does not fit the
// mapping it names is rejected: handles cross process boundaries, so
// nothing they claim can be trusted until checked against the region
// actually mapped.
func Attach(h Handle) (*Buffer, error) {
	if len(h.Shape) == 0 || len(h.Shape) != len(h.Strides) {
		return nil, fmt.Errorf("%w: handle shape/strides mismatch", ErrBadShape)
	}
	for i, d := range h.Shape {
		if d < 0 || h.Strides[i] < 0 {
			return nil, fmt.Errorf("%w: negative dimension or stride in handle", ErrBadShape)
		}
	}

	m, err := shm.Open(h.Name)
	if err != nil {
		return nil, fmt.Errorf("buffer: attach %q: %w", h.Name, err)
	}

	if h.Offset < 0 || h.Offset > m.Size() {
		_ = m.Close()
		return nil, fmt.Errorf("%w: handle offset %d outside mapping of %d bytes", ErrBadShape, h.Offset, m.Size())
	}
	if need := viewExtent(h.Shape, h.Strides, h.Elem.Size()); need > m.Size()-h.Offset {
		_ = m.Close()
		return nil, fmt.Errorf("%w: handle claims %d bytes at offset %d of a %d-byte mapping",
			ErrBadShape, need, h.Offset, m.Size())
	}

	return &Buffer{
		mapping:  m,
		attached: true,
		data:     m.Bytes()[h.Offset:],
		offset:   h.Offset,
		elem:     h.Elem,
		shape:    append([]int(nil), h.Shape...),
		strides:  append([]int(nil), h.Strides...),
	}, nil
}

// viewExtent returns how many bytes past its base a view of the given
// shape and strides can address: the byte after its highest-addressed
// element, or 0 for views with no elements.
func viewExtent(shape, strides []int, elemSize int) int {
	last := 0
	for i, d := range shape {
		if d == 0 {
			return 0
		}
		last += (d - 1) * strides[i]
	}
	return last + elemSize
}
