package heap

import (
	"io"
	"log"
	"os"
)

// Logger gates the three diagnostic toggles spec.md §6 names (INFO, FRAG,
// CHECK) behind a small wrapper over the standard log package, matching
// the teacher's preference for stdlib logging on low-frequency diagnostic
// paths (see DESIGN.md for why no structured-logging library is pulled in
// here).
type Logger struct {
	out   *log.Logger
	info  bool
	frag  bool
	check bool
}

func newLogger(cfg Config) *Logger {
	return &Logger{
		out:   log.New(os.Stderr, "", 0),
		info:  cfg.Info,
		frag:  cfg.Frag,
		check: cfg.Check,
	}
}

// SetOutput redirects diagnostic output, which goes to os.Stderr by
// default.
func (l *Logger) SetOutput(w io.Writer) { l.out.SetOutput(w) }

// SetToggles updates the INFO/FRAG/CHECK toggles without touching region
// state; internal/watch uses this to hot-reload a config profile.
func (l *Logger) SetToggles(info, frag, check bool) {
	l.info, l.frag, l.check = info, frag, check
}

func (l *Logger) Tracef(format string, args ...interface{}) {
	if l.info {
		l.out.Printf(format, args...)
	}
}

func (l *Logger) Fragf(format string, args ...interface{}) {
	if l.frag {
		l.out.Printf(format, args...)
	}
}

func (l *Logger) Auditf(format string, args ...interface{}) {
	l.out.Printf(format, args...)
}

func (l *Logger) checkEnabled() bool { return l.check }

// Log returns the region's diagnostic logger, for callers that want to
// toggle it directly rather than through ReloadToggles.
func (r *Region) Log() *Logger { return r.log }
