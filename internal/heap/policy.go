package heap

// findResult reports the chosen free block and its predecessor, as offsets
// into the region. A blockOff of noLink signals no eligible block (spec.md
// §4.2's "(empty, empty)").
type findResult struct {
	prevOff  int64
	blockOff int64
}

var noFit = findResult{prevOff: noLink, blockOff: noLink}

// waste computes block.size - size - H_b for a candidate block of the
// given free-header size; a block is eligible iff this is >= 0.
func waste(blockSize uint64, size int) int64 {
	return int64(blockSize) - int64(size) - busyHeaderSize
}

// find selects a free block for a request of size payload bytes, per the
// region's configured placement policy (spec.md §4.2).
func (r *Region) find(size int) findResult {
	switch r.cfg.Policy {
	case BestFit:
		return r.findBestOrWorst(size, true)
	case WorstFit:
		return r.findBestOrWorst(size, false)
	default:
		return r.findFirst(size)
	}
}

func (r *Region) findFirst(size int) findResult {
	prev := int64(noLink)
	cur := r.first

	for cur != noLink {
		fh := readFreeHeader(r.buf, int(cur))
		if waste(fh.size, size) >= 0 {
			return findResult{prevOff: prev, blockOff: cur}
		}

		prev = cur
		cur = fh.next
	}

	return noFit
}

// findBestOrWorst walks the whole free list once, tracking the eligible
// block with minimal (best-fit) or maximal (worst-fit) waste; ties are
// broken by lowest address because the list is already address-ordered
// and we only replace the running champion on a strict improvement.
func (r *Region) findBestOrWorst(size int, best bool) findResult {
	prev := int64(noLink)
	cur := r.first

	var (
		champPrev  = int64(noLink)
		champBlock = int64(noLink)
		champWaste int64
		found      bool
	)

	for cur != noLink {
		fh := readFreeHeader(r.buf, int(cur))
		w := waste(fh.size, size)

		if w >= 0 {
			better := !found || (best && w < champWaste) || (!best && w > champWaste)
			if better {
				champPrev, champBlock, champWaste, found = prev, cur, w, true
			}
		}

		prev = cur
		cur = fh.next
	}

	if !found {
		return noFit
	}

	return findResult{prevOff: champPrev, blockOff: champBlock}
}
