// Package watch hot-reloads a heap.Region's diagnostic toggles (INFO, FRAG,
// CHECK) from a JSON profile on disk, using fsnotify for OS-native change
// notifications — the same role the teacher's internal/runtime/vfs package
// gives fsnotify, narrowed to a single watched file.
package watch

import (
	"log"

	"github.com/fsnotify/fsnotify"

	"github.com/heaplab/heapcore/internal/heap"
)

// ConfigWatcher watches one file and re-applies its toggles to a Region on
// every write event. It never touches Size, Policy, or Backing: those are
// fixed for a Region's lifetime (spec.md §5).
type ConfigWatcher struct {
	w      *fsnotify.Watcher
	region *heap.Region
	path   string
	done   chan struct{}
}

// NewConfigWatcher starts watching path and applying its toggles to region
// whenever the file changes.
func NewConfigWatcher(region *heap.Region, path string) (*ConfigWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := w.Add(path); err != nil {
		_ = w.Close()

		return nil, err
	}

	cw := &ConfigWatcher{w: w, region: region, path: path, done: make(chan struct{})}
	go cw.loop()

	return cw, nil
}

func (cw *ConfigWatcher) loop() {
	for {
		select {
		case ev, ok := <-cw.w.Events:
			if !ok {
				return
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if err := cw.region.ReloadToggles(cw.path); err != nil {
				log.Printf("watch: reload %s: %v", cw.path, err)
			}
		case err, ok := <-cw.w.Errors:
			if !ok {
				return
			}

			log.Printf("watch: %v", err)
		case <-cw.done:
			return
		}
	}
}

// Close stops watching and releases the underlying fsnotify watcher.
func (cw *ConfigWatcher) Close() error {
	close(cw.done)

	return cw.w.Close()
}
