// Package mmap provides read-only memory-mapped file access.
//
// Partition files hold multi-gigabyte serialized banks; mapping them avoids
// copying the whole file through kernel buffers before decoding. The package
// exposes a unified API across platforms: mmap(2)/madvise(2) on Unix,
// CreateFileMapping/MapViewOfFile on Windows (advice is a no-op there).
//
// A Mapping is safe for concurrent reads. Close is idempotent, but callers
// must ensure no goroutine touches Bytes() after Close returns.
package mmap

import (
	"errors"
	"io"
	"os"
	"sync/atomic"
)

// AccessPattern hints to the kernel how the mapping will be read.
type AccessPattern int

const (
	// AccessDefault applies no specific advice.
	AccessDefault AccessPattern = iota
	// AccessSequential expects sequential reads (partition decode).
	AccessSequential
	// AccessRandom expects random reads.
	AccessRandom
)

var (
	// ErrClosed is returned when accessing a closed mapping.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidOffset is returned for negative read offsets.
	ErrInvalidOffset = errors.New("mmap: invalid offset")
)

// Mapping is a read-only memory-mapped file.
type Mapping struct {
	data   []byte
	size   int64
	closed atomic.Bool
	unmap  func([]byte) error
}

// Open maps the file at path into memory as read-only.
func Open(path string) (*Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size := fi.Size()
	if size == 0 {
		return &Mapping{}, nil
	}

	data, unmap, err := osMap(f, int(size))
	if err != nil {
		return nil, err
	}

	return &Mapping{data: data, size: size, unmap: unmap}, nil
}

// Close unmaps the memory. It is idempotent.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	if m.unmap != nil && m.data != nil {
		return m.unmap(m.data)
	}
	return nil
}

// Bytes returns the mapped contents. The slice is only valid until Close.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() {
		return nil
	}
	return m.data
}

// Size returns the size of the mapping in bytes.
func (m *Mapping) Size() int64 { return m.size }

// Advise hints the kernel about the upcoming access pattern.
func (m *Mapping) Advise(pattern AccessPattern) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if m.data == nil {
		return nil
	}
	return osAdvise(m.data, pattern)
}

// ReadAt implements io.ReaderAt.
func (m *Mapping) ReadAt(p []byte, off int64) (n int, err error) {
	if m.closed.Load() {
		return 0, ErrClosed
	}
	if off < 0 {
		return 0, ErrInvalidOffset
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n = copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
