//go:build linux

package heap

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// mmapBacking backs a Region with an anonymous, non-GC-managed mapping
// obtained directly from the kernel. This is a closer match to spec.md
// §3's "contiguous byte buffer with a stable base address" than a Go
// slice: the mapping cannot be moved by the Go runtime because the Go
// runtime never owns it, mirroring the teacher's own direct-syscall style
// under internal/runtime/asyncio for OS-specific fast paths.
type mmapBacking struct {
	buf []byte
}

func newMmapBacking(size int) (*mmapBacking, error) {
	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("heap: mmap region: %w", err)
	}

	return &mmapBacking{buf: buf}, nil
}

func (m *mmapBacking) Bytes() []byte { return m.buf }

func (m *mmapBacking) Close() error {
	if m.buf == nil {
		return nil
	}

	err := unix.Munmap(m.buf)
	m.buf = nil

	return err
}

// tryMmapBacking attempts to satisfy MmapBacking on this (Linux) build.
func tryMmapBacking(size int) (Backing, error, bool) {
	b, err := newMmapBacking(size)
	if err != nil {
		return nil, err, true
	}

	return b, nil, true
}
