package heap

// Fragmentation returns 1 - (largest free block / total free bytes), or 0
// when nothing is free (spec.md §4.6).
func (r *Region) Fragmentation() float64 {
	var total, max uint64

	cur := r.first
	for cur != noLink {
		fh := readFreeHeader(r.buf, int(cur))
		total += fh.size

		if fh.size > max {
			max = fh.size
		}

		cur = fh.next
	}

	if total == 0 {
		return 0
	}

	ratio := 1 - float64(max)/float64(total)
	r.log.Fragf("fragmentation: %.4f (total=%d largest=%d)", ratio, total, max)

	return ratio
}

// LeakCheck reports whether the region differs from its fully-reclaimed
// state: a single free block of size R at the base (spec.md §4.6, §3
// invariant 7).
func (r *Region) LeakCheck() bool {
	if r.first != 0 {
		return true
	}

	fh := readFreeHeader(r.buf, 0)

	return fh.size != uint64(r.size)
}

// FreeBlocks returns the offset and size of every free block, in address
// order, for diagnostic dumps (the shell's `p` command, or a JSON
// introspection endpoint).
func (r *Region) FreeBlocks() []BlockInfo {
	var out []BlockInfo

	cur := r.first
	for cur != noLink {
		fh := readFreeHeader(r.buf, int(cur))
		out = append(out, BlockInfo{Offset: int(cur), Size: int(fh.size)})
		cur = fh.next
	}

	return out
}

// BusyBlocks returns the offset (of the payload) and size of every busy
// block, in address order, for diagnostic dumps (the shell's `b` command).
// It walks the same way the validation audit does, just unconditionally.
func (r *Region) BusyBlocks() []BlockInfo {
	var out []BlockInfo

	cur := 0
	free := r.first

	for cur < r.size {
		if free != noLink && cur == int(free) {
			fh := readFreeHeader(r.buf, cur)
			cur += int(fh.size)
			free = fh.next

			continue
		}

		bh := readBusyHeader(r.buf, cur)
		out = append(out, BlockInfo{Offset: cur + busyHeaderSize, Size: int(bh.size)})
		cur += busyHeaderSize + int(bh.size)
	}

	return out
}

// BlockInfo describes one block for diagnostic output.
type BlockInfo struct {
	Offset int
	Size   int
}
