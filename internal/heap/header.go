package heap

import "encoding/binary"

// Two header shapes share the same leading bytes of a block; only one is
// "live" at a time depending on whether the block is currently busy or
// free. Both are read/written through explicit byte offsets rather than
// unsafe struct overlays, so the encoding is exact regardless of host
// alignment rules.
const (
	// busyHeaderSize (H_b) is the size in bytes of a busy block's header:
	// a single size field counting payload bytes only.
	busyHeaderSize = 8

	// freeHeaderSize (H_f) is the size in bytes of a free block's header:
	// a size field (header+payload bytes) followed by a link to the next
	// free block, encoded as a region offset. H_f must be strictly
	// greater than H_b: a freed block must be able to host the larger
	// header even though a live block may be smaller.
	freeHeaderSize = 16

	// noLink marks the end of the free list, or an absent predecessor.
	noLink = -1
)

// minPayload is the smallest payload a busy block may hold: if it were any
// smaller, freeing it later would leave too little room for a free header.
const minPayload = freeHeaderSize - busyHeaderSize

// busyHeader is the in-band prefix of a busy block.
type busyHeader struct {
	size uint64 // payload bytes, header excluded
}

func readBusyHeader(region []byte, off int) busyHeader {
	return busyHeader{size: binary.LittleEndian.Uint64(region[off : off+8])}
}

func writeBusyHeader(region []byte, off int, size uint64) {
	binary.LittleEndian.PutUint64(region[off:off+8], size)
}

// freeHeader is the in-band prefix of a free block.
type freeHeader struct {
	size uint64 // header+payload bytes, header included
	next int64  // offset of next free block, or noLink
}

func readFreeHeader(region []byte, off int) freeHeader {
	return freeHeader{
		size: binary.LittleEndian.Uint64(region[off : off+8]),
		next: int64(binary.LittleEndian.Uint64(region[off+8 : off+16])),
	}
}

func writeFreeHeader(region []byte, off int, size uint64, next int64) {
	binary.LittleEndian.PutUint64(region[off:off+8], size)
	binary.LittleEndian.PutUint64(region[off+8:off+16], uint64(next))
}

func writeFreeNext(region []byte, off int, next int64) {
	binary.LittleEndian.PutUint64(region[off+8:off+16], uint64(next))
}

func writeFreeSize(region []byte, off int, size uint64) {
	binary.LittleEndian.PutUint64(region[off:off+8], size)
}
