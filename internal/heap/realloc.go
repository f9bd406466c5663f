package heap

import "unsafe"

// Reallocate resizes a previously-allocated block, preferring to do so
// in-place (spec.md §4.5). A shrink (or same-size request) always returns
// the original pointer unchanged — this implementation never splits off
// the excess on shrink; see DESIGN.md for why that Open Question is
// resolved this way. On growth, failure to find a new block leaves the
// original pointer valid and unfreed; the caller keeps ownership of it.
func (r *Region) Reallocate(ptr unsafe.Pointer, newSize int) unsafe.Pointer {
	if ptr == nil {
		return r.Allocate(newSize)
	}

	off, ok := r.ptrToOffset(ptr)
	if !ok {
		return nil
	}

	blockOff := off - busyHeaderSize
	cur := readBusyHeader(r.buf, blockOff)

	if newSize <= int(cur.size) {
		return ptr
	}

	newPtr := r.Allocate(newSize)
	if newPtr == nil {
		return nil
	}

	newOff, _ := r.ptrToOffset(newPtr)
	copy(r.buf[newOff:newOff+int(cur.size)], r.buf[off:off+int(cur.size)])

	if err := r.Deallocate(ptr); err != nil {
		// The old block failed the validity audit during the copy-free
		// step; this should be unreachable since we just read its own
		// header, but surface the new pointer regardless rather than
		// silently leaking it.
		r.log.Auditf("reallocate: failed to free old block at offset %d: %v", off, err)
	}

	return newPtr
}
