// Package heap implements a single-region, address-ordered free-list
// allocator: a fixed contiguous byte region carved into alternating busy
// and free blocks, serviced by one of three pluggable placement policies.
//
// The free list is threaded through the region itself (an index-into-region
// representation rather than raw pointers), which sidesteps Go's strict
// aliasing and GC-pointer rules while remaining a faithful model of the
// pointer-arithmetic design spec.md describes.
package heap

import (
	"fmt"
	"unsafe"
)

// Policy selects how a free block is chosen to satisfy a request.
type Policy int

const (
	FirstFit Policy = iota
	BestFit
	WorstFit
)

func (p Policy) String() string {
	switch p {
	case FirstFit:
		return "first-fit"
	case BestFit:
		return "best-fit"
	case WorstFit:
		return "worst-fit"
	default:
		return "unknown"
	}
}

// Backing supplies the raw byte buffer a Region is carved from. The default
// is a plain Go slice; internal/heap/region_mmap_linux.go adds an
// anonymous-mmap-backed alternative for closer-to-the-metal use.
type Backing interface {
	// Bytes returns the backing buffer. Its address must stay stable for
	// the lifetime of the region.
	Bytes() []byte
	// Close releases the backing buffer, if it owns OS resources.
	Close() error
}

// sliceBacking is a Backing implementation using an ordinary Go slice.
type sliceBacking struct{ buf []byte }

func newSliceBacking(size int) *sliceBacking { return &sliceBacking{buf: make([]byte, size)} }
func (s *sliceBacking) Bytes() []byte        { return s.buf }
func (s *sliceBacking) Close() error         { return nil }

// Region is the allocator's managed byte buffer plus its free-list head.
// None of its exported operations are safe for concurrent use: spec.md §5
// requires external serialization, not internal locking.
type Region struct {
	cfg     Config
	backing Backing
	buf     []byte
	base    uintptr // stable address of buf[0], used to mint caller pointers
	size    int
	first   int64 // offset of the first free block, or noLink

	log *Logger
}

// New creates and initializes a Region per cfg. The region starts as a
// single free block spanning the whole buffer (spec.md §3 invariant 6).
func New(cfg Config) (*Region, error) {
	cfg = cfg.withDefaults()
	if cfg.Size < freeHeaderSize {
		return nil, fmt.Errorf("heap: region size %d smaller than minimum header %d", cfg.Size, freeHeaderSize)
	}

	backing, err := newBacking(cfg)
	if err != nil {
		return nil, err
	}

	r := &Region{
		cfg:     cfg,
		backing: backing,
		buf:     backing.Bytes(),
		size:    cfg.Size,
		log:     newLogger(cfg),
	}
	r.base = uintptr(unsafe.Pointer(&r.buf[0]))
	r.resetLocked()

	return r, nil
}

// Init re-establishes the single-free-block initial state (spec.md §4.1).
// It is idempotent: calling it on an already-initial region is a no-op in
// effect, though it does discard any outstanding allocations' bookkeeping —
// callers hold no valid pointers across Init by construction (either it is
// the very first call, or the caller is intentionally resetting).
func (r *Region) Init() { r.resetLocked() }

func (r *Region) resetLocked() {
	writeFreeHeader(r.buf, 0, uint64(r.size), noLink)
	r.first = 0
}

// HeapBase returns the stable base address B of the region (spec.md §4.6).
func (r *Region) HeapBase() uintptr { return r.base }

// Size returns the fixed region size R.
func (r *Region) Size() int { return r.size }

// Close releases the underlying backing store.
func (r *Region) Close() error { return r.backing.Close() }

func (r *Region) ptrToOffset(ptr unsafe.Pointer) (int, bool) {
	addr := uintptr(ptr)
	if addr < r.base || addr >= r.base+uintptr(r.size) {
		return 0, false
	}

	return int(addr - r.base), true
}

func (r *Region) offsetToPtr(off int) unsafe.Pointer {
	return unsafe.Pointer(r.base + uintptr(off))
}

// PointerAt converts a base-relative offset (as printed by the shell's `a`
// command and accepted by its `f` command) back into a pointer.
func (r *Region) PointerAt(offset int) unsafe.Pointer {
	return r.offsetToPtr(offset)
}
