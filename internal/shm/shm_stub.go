//go:build !unix

package shm

// Create is unavailable on this platform.
func Create(size int) (*Mapping, error) { return nil, ErrUnsupported }

// Open is unavailable on this platform.
func Open(name string) (*Mapping, error) { return nil, ErrUnsupported }

// MapFile is unavailable on this platform.
func MapFile(path string, size int) (*Mapping, error) { return nil, ErrUnsupported }

// Sync is unavailable on this platform.
func (m *Mapping) Sync() error { return ErrUnsupported }

// Close is unavailable on this platform.
func (m *Mapping) Close() error { return ErrUnsupported }

// Unlink is unavailable on this platform.
func (m *Mapping) Unlink() error { return ErrUnsupported }
