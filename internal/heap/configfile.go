package heap

import (
	"encoding/json"
	"fmt"
	"os"
)

// FileConfig is the on-disk shape of a hot-reloadable diagnostic profile.
// Only the toggles are reloadable at runtime; Size, Policy, and Backing
// are fixed once a Region exists (spec.md §5: the free list is global
// process state initialized once) and are only read here to build the
// Config passed to the initial New call.
type FileConfig struct {
	Size    int    `json:"size,omitempty"`
	Policy  string `json:"policy,omitempty"`
	Backing string `json:"backing,omitempty"`
	Info    bool   `json:"info"`
	Frag    bool   `json:"frag"`
	Check   bool   `json:"check"`
}

func parsePolicy(s string) (Policy, error) {
	switch s {
	case "", "first-fit", "FIRST_FIT":
		return FirstFit, nil
	case "best-fit", "BEST_FIT":
		return BestFit, nil
	case "worst-fit", "WORST_FIT":
		return WorstFit, nil
	default:
		return FirstFit, fmt.Errorf("heap: unknown policy %q", s)
	}
}

// LoadConfigFile reads a FileConfig as a full Config, for use at startup.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var fc FileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return Config{}, fmt.Errorf("heap: parse config %s: %w", path, err)
	}

	policy, err := parsePolicy(fc.Policy)
	if err != nil {
		return Config{}, err
	}

	backing := SliceBacking
	if fc.Backing == "mmap" {
		backing = MmapBacking
	}

	cfg := DefaultConfig()
	if fc.Size > 0 {
		cfg.Size = fc.Size
	}

	cfg.Policy = policy
	cfg.Backing = backing
	cfg.Info = fc.Info
	cfg.Frag = fc.Frag
	cfg.Check = fc.Check

	return cfg, nil
}

// ReloadToggles re-reads only the diagnostic toggles (Info/Frag/Check)
// from path and applies them to r's logger, without touching Size,
// Policy, or Backing. This is what internal/watch's fsnotify-driven
// hot-reload calls on every write event.
func (r *Region) ReloadToggles(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc FileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("heap: parse config %s: %w", path, err)
	}

	r.log.SetToggles(fc.Info, fc.Frag, fc.Check)

	return nil
}
