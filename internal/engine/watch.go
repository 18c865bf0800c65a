package engine

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the tree must stay quiet before a change
// triggers a sync.
const DefaultDebounce = 2 * time.Second

// Watcher triggers a callback when files under a root change. Bursts of
// events, such as a workbook being copied in, collapse into one call.
type Watcher struct {
	watcher  *fsnotify.Watcher
	onChange func(context.Context) error
	root     string
	debounce time.Duration
}

// NewWatcher watches root and every directory beneath it.
func NewWatcher(root string, debounce time.Duration, onChange func(context.Context) error) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w := &Watcher{watcher: fw, onChange: onChange, root: root, debounce: debounce}
	if err := w.addTree(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			return fmt.Errorf("failed to watch %s: %w", p, err)
		}
		return nil
	})
}

// Run blocks until ctx is done, calling onChange after each quiet period
// that follows a change. Errors from onChange are logged, not returned.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				// New directories need their own watch.
				if err := w.addTree(event.Name); err != nil {
					slog.Debug("Could not watch new path", "path", event.Name, "error", err)
				}
			}
			slog.Debug("Deck directory changed", "path", event.Name, "op", event.Op.String())
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			pending = true

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", "error", err)

		case <-timer.C:
			pending = false
			if err := w.onChange(ctx); err != nil {
				slog.Error("Sync after change failed", "error", err)
			}
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Base(event.Name)
	return !strings.HasPrefix(name, ".") && !strings.HasPrefix(name, "~$")
}
