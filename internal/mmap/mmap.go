// Package mmap allocates anonymous, page-aligned memory outside of the Go
// garbage collector's managed heap. The aligned buffer substrate
// (internal/buffer) uses this as its backing store: a single mmap call
// already satisfies every alignment this engine asks for in practice
// (O_DIRECT typically requires 512-byte alignment; a page is 4096 bytes).
package mmap

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// New allocates a large contiguous chunk of memory using the OS syscall mmap.
// This is manually managed memory that is not garbage collected by the Go
// runtime. You must call Free with the buffer when finished. The OS rounds
// the mapping itself up to a multiple of the system's page size, but the
// returned slice is exactly `size` bytes long.
func New(size int) ([]byte, error) {
	if size < 1 {
		return nil, fmt.Errorf("mmap: invalid size; size must be greater than 0: %d", size)
	}

	// Set `fd` to -1 because we are using `unix.MAP_ANON`. This indicates
	// that there is no backing disk file.
	data, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE,
	)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}

	return data, nil
}

// Free releases memory previously returned by New. data must be the exact
// slice (same pointer and length) returned by New; mmap/munmap operate on
// whole mappings, not arbitrary subranges.
func Free(data []byte) error {
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("mmap: munmap: %w", err)
	}
	return nil
}

// PageSize returns the OS page size. A fresh mapping from New is always
// aligned to this boundary.
func PageSize() int {
	return unix.Getpagesize()
}
