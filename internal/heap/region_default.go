package heap

// newBacking resolves cfg.Backing to a concrete Backing implementation.
// Non-Linux builds only ever see SliceBacking, since newMmapBacking is
// defined exclusively in region_mmap_linux.go.
func newBacking(cfg Config) (Backing, error) {
	if cfg.Backing == MmapBacking {
		if b, err, ok := tryMmapBacking(cfg.Size); ok {
			return b, err
		}
	}

	return newSliceBacking(cfg.Size), nil
}
