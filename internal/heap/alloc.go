package heap

import (
	"unsafe"

	"github.com/heaplab/heapcore/internal/errs"
)

// Allocate services a variable-size allocation request, returning a pointer
// to the payload or nil if no free block fits (spec.md §4.3).
func (r *Region) Allocate(n int) unsafe.Pointer {
	if n < minPayload {
		n = minPayload
	}

	fit := r.find(n)
	if fit.blockOff == noLink {
		r.log.Tracef("%s", errs.OutOfSpace(n))

		return nil
	}

	blockOff := int(fit.blockOff)
	block := readFreeHeader(r.buf, blockOff)
	rem := int64(block.size) - int64(n+busyHeaderSize)

	var successor int64
	if rem < freeHeaderSize {
		// Absorb: the whole free block becomes the busy block; any slack
		// bytes (0 <= rem < H_f) are folded silently into the payload so
		// the busy header's size always matches the block exactly.
		n = int(block.size) - busyHeaderSize
		successor = block.next
	} else {
		// Split: carve a new free block out of the residual bytes.
		splitOff := blockOff + busyHeaderSize + n
		writeFreeHeader(r.buf, splitOff, uint64(rem), block.next)
		successor = int64(splitOff)
	}

	r.spliceFreeList(fit.prevOff, successor)
	writeBusyHeader(r.buf, blockOff, uint64(n))

	r.log.Tracef("alloc(%d) -> offset %d", n, blockOff+busyHeaderSize)

	return r.offsetToPtr(blockOff + busyHeaderSize)
}

// spliceFreeList links prevOff (or the list head, if prevOff is noLink) to
// newHead. Allocate uses it to unlink the chosen block; Deallocate uses it
// to link a freed block in.
func (r *Region) spliceFreeList(prevOff int64, newHead int64) {
	if prevOff == noLink {
		r.first = newHead
	} else {
		writeFreeNext(r.buf, int(prevOff), newHead)
	}
}
