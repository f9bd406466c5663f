//go:build !linux

package heap

// tryMmapBacking reports that mmap backing is unavailable on this OS, so
// newBacking falls back to SliceBacking. Only Linux gets the real
// implementation, in region_mmap_linux.go.
func tryMmapBacking(size int) (Backing, error, bool) {
	return nil, nil, false
}
