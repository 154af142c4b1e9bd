// Package shm provides named shared-memory mappings: regions of memory
// that any process able to open the name sees as the same bytes.
//
// A mapping created with Create lives in the fastest tmpfs-style
// directory the platform offers and is identified by a generated name.
// Open attaches to an existing name without copying. MapFile maps a
// regular file shared, for writers that want the kernel to carry the
// bytes to disk.
package shm

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
)

// ErrUnsupported is returned on platforms without shared mappings.
var ErrUnsupported = errors.New("shm: shared memory mappings are not supported on this platform")

// Mapping is one attached shared-memory region. The byte slice returned
// by Bytes aliases the mapping directly; it stays valid until Close.
type Mapping struct {
	name string
	path string
	fd   int
	data []byte
}

// Name identifies the mapping for Open. Empty for file-backed mappings.
func (m *Mapping) Name() string { return m.name }

// Bytes is the mapped region. All attachments to the same name alias
// the same physical bytes.
func (m *Mapping) Bytes() []byte { return m.data }

// Size is the mapped length in bytes.
func (m *Mapping) Size() int { return len(m.data) }

var nameCounter atomic.Uint64

// nextName generates a process-unique mapping name.
func nextName() string {
	return fmt.Sprintf("shmem-%d-%d", os.Getpid(), nameCounter.Add(1))
}
