package files

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher observes model and ruleset files and invokes a callback after
// changes settle. Editors produce bursts of writes, so events are debounced:
// the callback fires once per quiet interval with the set of changed paths.
type Watcher struct {
	watcher  *fsnotify.Watcher
	paths    []string
	debounce time.Duration
	onChange func(changed []string)
}

// NewWatcher creates a watcher over the given files or directories. A zero
// debounce defaults to 250ms.
func NewWatcher(paths []string, debounce time.Duration, onChange func(changed []string)) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("at least one path is required")
	}
	if onChange == nil {
		return nil, fmt.Errorf("change callback is required")
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("watch path: %w", err)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		watcher:  fsw,
		paths:    paths,
		debounce: debounce,
		onChange: onChange,
	}
	for _, path := range paths {
		// Watch the parent so atomic-rename saves keep being seen.
		target := path
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			target = filepath.Dir(path)
		}
		if err := fsw.Add(target); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", target, err)
		}
	}
	return w, nil
}

// Run processes events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	var timer *time.Timer
	var timerC <-chan time.Time
	pending := make(map[string]bool)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			pending[event.Name] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			sort.Strings(changed)
			pending = make(map[string]bool)
			timerC = nil
			w.onChange(changed)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			log.Printf("watch error: %v", err)
		}
	}
}

// relevant reports whether the event touches a watched path. Directory
// watches see sibling files too, so file paths filter on exact match.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	for _, path := range w.paths {
		if event.Name == path {
			return true
		}
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if rel, err := filepath.Rel(path, event.Name); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
				return true
			}
		}
	}
	return false
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error { return w.watcher.Close() }
