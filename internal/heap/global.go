package heap

import (
	"sync"
	"unsafe"
)

// global holds the process-wide Region used by the package-level
// Alloc/Free/Realloc functions below, which let unrelated code consume
// this allocator transparently by replacing the host's standard
// allocation primitives (spec.md §1, §6 "Override layer").
var (
	global     *Region
	globalOnce sync.Once
	globalCfg  = DefaultConfig()
)

// Configure sets the configuration used to lazily create the global
// region on first Alloc call. It must be called before the first
// package-level Alloc/Free/Realloc; calling it afterwards has no effect,
// since the global region only self-initializes once.
func Configure(cfg Config) { globalCfg = cfg }

func ensureGlobal() *Region {
	globalOnce.Do(func() {
		r, err := New(globalCfg)
		if err != nil {
			// Configure does not validate cfg, so a bad config surfaces
			// here: a nonzero size below the free-header size, or a
			// failed mmap backing. (A zero size becomes DefaultSize.)
			panic(err)
		}

		global = r
	})

	return global
}

// Alloc allocates size bytes from the global region, self-initializing it
// on first call (spec.md §4.1, §9: the flag check here is a sync.Once,
// cheap after the first call).
func Alloc(size int) unsafe.Pointer {
	return ensureGlobal().Allocate(size)
}

// Free releases ptr back to the global region. Freeing nil is a no-op;
// Free cannot run before any Alloc has, since there would be no pointer to
// pass, so it never needs to self-initialize.
func Free(ptr unsafe.Pointer) error {
	if ptr == nil {
		return nil
	}

	return ensureGlobal().Deallocate(ptr)
}

// Realloc resizes ptr within the global region.
func Realloc(ptr unsafe.Pointer, newSize int) unsafe.Pointer {
	return ensureGlobal().Reallocate(ptr, newSize)
}

// GlobalRegion returns the lazily-initialized global region, for callers
// that want direct access to Fragmentation/LeakCheck/HeapBase/FreeBlocks/
// BusyBlocks. The cmd/ tools do not use it; each creates its own Region.
func GlobalRegion() *Region { return ensureGlobal() }
