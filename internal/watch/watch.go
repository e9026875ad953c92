// Package watch reports changes to SBOM input files.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debounce is how long a file must be quiet before onChange fires. Editors
// and generators often write a file in several steps.
var Debounce = 100 * time.Millisecond

// Watch calls onChange with the path of a watched file after it is written,
// created or renamed into place. The directories containing paths are
// watched so replaced files keep being tracked. Watch blocks until ctx is
// done.
func Watch(ctx context.Context, paths []string, onChange func(path string), logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	wanted := make(map[string]string, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %q: %w", p, err)
		}
		wanted[abs] = p
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %q: %w", dir, err)
		}
	}

	d := newDebouncer(ctx.Done())
	defer d.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case f := <-d.fired:
			if !d.latest(f) {
				continue
			}
			logger.Info("sbom changed", "path", f.path)
			onChange(f.path)
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			original, tracked := wanted[filepath.Clean(event.Name)]
			if !tracked {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			d.arm(original)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}

// firing is a timer expiry for path. seq identifies the arm call that
// started the timer.
type firing struct {
	path string
	seq  uint64
}

// debouncer coalesces bursts of events per path. A timer that fires after
// the path was armed again is stale and ignored. It is used from a single
// goroutine; only the timers send on fired.
type debouncer struct {
	fired  chan firing
	done   <-chan struct{}
	timers map[string]*time.Timer
	seq    map[string]uint64
}

func newDebouncer(done <-chan struct{}) *debouncer {
	return &debouncer{
		fired:  make(chan firing),
		done:   done,
		timers: make(map[string]*time.Timer),
		seq:    make(map[string]uint64),
	}
}

// arm restarts the quiet period for path.
func (d *debouncer) arm(path string) {
	if t, ok := d.timers[path]; ok {
		t.Stop()
	}
	d.seq[path]++
	f := firing{path: path, seq: d.seq[path]}
	d.timers[path] = time.AfterFunc(Debounce, func() {
		select {
		case d.fired <- f:
		case <-d.done:
		}
	})
}

// latest reports whether f comes from the most recent arm of its path and,
// if so, forgets the path's timer.
func (d *debouncer) latest(f firing) bool {
	if d.seq[f.path] != f.seq {
		return false
	}
	delete(d.timers, f.path)
	return true
}

func (d *debouncer) stop() {
	for _, t := range d.timers {
		t.Stop()
	}
}
