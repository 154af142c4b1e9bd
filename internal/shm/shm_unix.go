//go:build unix

package shm

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// dir returns the directory holding named mappings: /dev/shm where the
// platform provides it (memory-backed, never touches disk), the system
// temp directory otherwise.
func dir() string {
	const shmfs = "/dev/shm"
	if st, err := os.Stat(shmfs); err == nil && st.IsDir() {
		return shmfs
	}
	return os.TempDir()
}

// Create allocates a zero-filled shared mapping of size bytes under a
// generated name.
func Create(size int) (*Mapping, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: invalid mapping size %d", size)
	}

	name := nextName()
	path := filepath.Join(dir(), name)

	fd, err := unix.Open(path, unix.O_CREAT|unix.O_EXCL|unix.O_RDWR|unix.O_CLOEXEC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("shm: create %s: %w", path, err)
	}

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		_ = unix.Close(fd)
		_ = unix.Unlink(path)
		return nil, fmt.Errorf("shm: truncate %s to %d bytes: %w", path, size, err)
	}

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		_ = unix.Unlink(path)
		return nil, fmt.Errorf("shm: map %d bytes: %w", size, err)
	}

	return &Mapping{name: name, path: path, fd: fd, data: data}, nil
}

// Open attaches to an existing named mapping. The returned bytes alias
// the same region every other attachment sees.
func Open(name string) (*Mapping, error) {
	path := filepath.Join(dir(), name)

	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("shm: open %s: %w", path, err)
	}

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("shm: stat %s: %w", path, err)
	}

	data, err := unix.Mmap(fd, 0, int(st.Size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("shm: map %s: %w", path, err)
	}

	return &Mapping{name: name, path: path, fd: fd, data: data}, nil
}

// MapFile maps a regular file shared, growing it to size bytes. Writes
// to the returned region reach the file through the page cache; call
// Sync to force them out.
func MapFile(path string, size int) (*Mapping, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: invalid mapping size %d", size)
	}

	fd, err := unix.Open(path, unix.O_CREAT|unix.O_RDWR|unix.O_CLOEXEC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("shm: open %s: %w", path, err)
	}

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("shm: truncate %s to %d bytes: %w", path, size, err)
	}

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("shm: map %s: %w", path, err)
	}

	return &Mapping{path: path, fd: fd, data: data}, nil
}

// Sync flushes modified pages to the backing store.
func (m *Mapping) Sync() error {
	if err := unix.Msync(m.data, unix.MS_SYNC); err != nil {
		return fmt.Errorf("shm: sync %s: %w", m.path, err)
	}
	return nil
}

// Close unmaps the region and closes the descriptor. The name stays
// resolvable for other attachments until Unlink.
func (m *Mapping) Close() error {
	if m.data == nil {
		return nil
	}

	err := unix.Munmap(m.data)
	m.data = nil
	if cerr := unix.Close(m.fd); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("shm: close %s: %w", m.path, err)
	}
	return nil
}

// Unlink removes the mapping's name. Existing attachments keep working;
// the region is reclaimed when the last one closes.
func (m *Mapping) Unlink() error {
	if m.name == "" {
		return nil // file-backed, the caller owns the path
	}
	if err := unix.Unlink(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("shm: unlink %s: %w", m.path, err)
	}
	return nil
}
