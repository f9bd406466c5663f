package heap

import (
	"unsafe"

	"github.com/heaplab/heapcore/internal/errs"
)

// Deallocate returns a previously-allocated block to the free list,
// coalescing with up to two physically-adjacent free neighbors (spec.md
// §4.4). Deallocating nil is a silent no-op.
func (r *Region) Deallocate(ptr unsafe.Pointer) error {
	if ptr == nil {
		return nil
	}

	off, ok := r.ptrToOffset(ptr)
	if !ok {
		return errs.InvalidAddress(uintptr(ptr))
	}

	blockOff := off - busyHeaderSize
	if blockOff < 0 {
		return errs.InvalidAddress(uintptr(ptr))
	}

	if r.log.checkEnabled() {
		if !r.auditBusy(blockOff) {
			r.log.Auditf("deallocate: offset %d is not a live busy-block payload start", off)

			return errs.InvalidAddress(uintptr(ptr))
		}
	}

	s := readBusyHeader(r.buf, blockOff).size
	end := blockOff + busyHeaderSize + int(s)

	prevOff, nextOff := r.freeNeighbors(blockOff)

	adjPrev := prevOff != noLink && int(prevOff)+int(readFreeHeader(r.buf, int(prevOff)).size) == blockOff
	adjNext := nextOff != noLink && end == int(nextOff)

	switch {
	case adjPrev && adjNext:
		next := readFreeHeader(r.buf, int(nextOff))
		prev := readFreeHeader(r.buf, int(prevOff))
		writeFreeHeader(r.buf, int(prevOff), prev.size+uint64(busyHeaderSize)+uint64(s)+next.size, next.next)

	case !adjPrev && adjNext:
		next := readFreeHeader(r.buf, int(nextOff))
		newSize := uint64(s) + uint64(busyHeaderSize) + next.size
		writeFreeHeader(r.buf, blockOff, newSize, next.next)
		r.spliceFreeList(prevOff, int64(blockOff))

	case adjPrev && !adjNext:
		prev := readFreeHeader(r.buf, int(prevOff))
		writeFreeSize(r.buf, int(prevOff), prev.size+uint64(s)+uint64(busyHeaderSize))

	default: // neither neighbor adjacent
		writeFreeHeader(r.buf, blockOff, uint64(s)+uint64(busyHeaderSize), nextOff)
		r.spliceFreeList(prevOff, int64(blockOff))
	}

	r.log.Tracef("dealloc(offset %d, size %d)", off, s)

	return nil
}

// freeNeighbors locates the free-list predecessor and successor that would
// bracket blockOff if it were spliced in: the last free block whose
// address is below blockOff, and the first whose address is at or above
// it. Either may be noLink.
func (r *Region) freeNeighbors(blockOff int) (prevOff, nextOff int64) {
	prevOff, nextOff = noLink, noLink
	cur := r.first

	for cur != noLink {
		if int(cur) >= blockOff {
			nextOff = cur

			return prevOff, nextOff
		}

		prevOff = cur
		cur = readFreeHeader(r.buf, int(cur)).next
	}

	return prevOff, noLink
}

// auditBusy implements the optional validation-mode scan: walk each
// contiguous busy run between free blocks (and before the first free
// block) using busy-header sizes, accepting only if some busy block in
// that run starts exactly at blockOff (spec.md §4.4).
func (r *Region) auditBusy(blockOff int) bool {
	cur := 0
	free := r.first

	for cur < r.size {
		if free != noLink && cur == int(free) {
			fh := readFreeHeader(r.buf, cur)
			cur += int(fh.size)
			free = fh.next

			continue
		}

		if cur == blockOff {
			return true
		}

		if cur+busyHeaderSize > r.size {
			return false
		}

		bh := readBusyHeader(r.buf, cur)
		cur += busyHeaderSize + int(bh.size)
	}

	return false
}
