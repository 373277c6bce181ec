// Package watch monitors the tracked base directory for filesystem
// changes and emits classified change events for the sync layer.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mkowalski/designsync/internal/asset"
	"github.com/mkowalski/designsync/internal/tracking"
)

// defaultDebounce batches the event bursts editors and build tools
// produce for a single logical save.
const defaultDebounce = 500 * time.Millisecond

// Event is one debounced, classified filesystem change.
type Event struct {
	// Path is slash-separated and relative to the tracked base.
	Path string
	Kind asset.Kind
	Op   fsnotify.Op
}

// Watcher monitors a tracked tree. Events are delivered on Events()
// while Run blocks; the channel is closed when Run returns.
type Watcher struct {
	base       string
	classifier *asset.Classifier
	logger     *slog.Logger
	debounce   time.Duration
	events     chan Event
}

// New creates a watcher for the tree rooted at base.
func New(base string, classifier *asset.Classifier, logger *slog.Logger) *Watcher {
	return &Watcher{
		base:       filepath.Clean(base),
		classifier: classifier,
		logger:     logger,
		debounce:   defaultDebounce,
		events:     make(chan Event, 64),
	}
}

// Events returns the channel on which debounced changes are delivered.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run watches the tracked tree until the context is cancelled. It
// blocks; run it in a background goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	if err := w.addRecursive(watcher); err != nil {
		return fmt.Errorf("adding tracked tree to watcher: %w", err)
	}

	// Pending ops accumulate per path until the tree has been quiet for
	// one debounce interval, then flush in a single batch.
	pending := make(map[string]fsnotify.Op)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("fsnotify events channel closed")
			}

			if w.handleEvent(watcher, event, pending) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("fsnotify errors channel closed")
			}

			// Non-fatal (e.g. too many watches); affected paths just
			// stop reporting.
			w.logger.Warn("watcher error", slog.String("error", err.Error()))

		case <-timer.C:
			w.flush(pending)
			pending = make(map[string]fsnotify.Op)
		}
	}
}

// handleEvent records a single fsnotify event into the pending batch.
// It reports whether the debounce timer should restart.
func (w *Watcher) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event, pending map[string]fsnotify.Op) bool {
	if w.shouldIgnore(event.Name) {
		return false
	}

	rel, err := filepath.Rel(w.base, event.Name)
	if err != nil {
		return false
	}

	rel = filepath.ToSlash(rel)

	if event.Has(fsnotify.Create) {
		// New directory: watch it so files created inside are caught.
		// Lstat avoids following symlinks out of the tracked tree.
		if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
			_ = watcher.Add(event.Name)
			return false
		}
	}

	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		// Harmless when the path was not a watched directory.
		_ = watcher.Remove(event.Name)
	}

	pending[rel] |= event.Op

	return true
}

// flush classifies and emits the batched changes.
func (w *Watcher) flush(pending map[string]fsnotify.Op) {
	for rel, op := range pending {
		kind := w.classifier.Classify(rel)

		w.logger.Debug("change detected",
			slog.String("path", rel),
			slog.String("kind", string(kind)),
			slog.String("op", op.String()))

		w.events <- Event{Path: rel, Kind: kind, Op: op}
	}
}

// addRecursive walks the tracked base and watches every directory
// except hidden ones.
func (w *Watcher) addRecursive(watcher *fsnotify.Watcher) error {
	return filepath.WalkDir(w.base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			return nil
		}

		if path != w.base && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		return watcher.Add(path)
	})
}

// shouldIgnore filters out the tracking root, hidden files and editor
// temp files.
func (w *Watcher) shouldIgnore(absPath string) bool {
	rel, err := filepath.Rel(w.base, absPath)
	if err != nil {
		return true
	}

	rel = filepath.ToSlash(rel)
	if rel == tracking.Dir || strings.HasPrefix(rel, tracking.Dir+"/") {
		return true
	}

	name := filepath.Base(absPath)

	if strings.HasPrefix(name, ".") {
		return true
	}

	if strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp") {
		return true
	}

	return false
}
