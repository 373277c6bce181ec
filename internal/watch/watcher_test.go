package watch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkowalski/designsync/internal/asset"
	"github.com/mkowalski/designsync/internal/tracking"
)

// startedWatcher creates a seeded tree and starts a watcher over it with
// a short debounce. The watcher is stopped when the test ends.
func startedWatcher(t *testing.T) *Watcher {
	t.Helper()

	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "widget", "Cart Summary"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, tracking.Dir), 0o755))

	w := New(base, asset.NewClassifier(base), slog.New(slog.NewTextHandler(io.Discard, nil)))
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	errCh := make(chan error, 1)

	go func() {
		errCh <- w.Run(ctx)
	}()

	// Give fsnotify a moment to set up watches.
	time.Sleep(50 * time.Millisecond)

	t.Cleanup(func() {
		cancel()

		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("watcher error: %v", err)
		}
	})

	return w
}

// collectEvent waits for the next event matching path.
func collectEvent(t *testing.T, w *Watcher, path string) Event {
	t.Helper()

	deadline := time.After(2 * time.Second)

	for {
		select {
		case ev, ok := <-w.Events():
			require.True(t, ok, "events channel closed early")

			if ev.Path == path {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event on %s", path)
		}
	}
}

func TestRun_WriteIsClassified(t *testing.T) {
	w := startedWatcher(t)

	abs := filepath.Join(w.base, "widget", "Cart Summary", "display.template")
	require.NoError(t, os.WriteFile(abs, []byte("<div/>\n"), 0o644))

	ev := collectEvent(t, w, "widget/Cart Summary/display.template")
	assert.Equal(t, asset.KindWidgetTemplate, ev.Kind)
	assert.True(t, ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Write))
}

func TestRun_BurstDebouncesToOneEvent(t *testing.T) {
	w := startedWatcher(t)

	abs := filepath.Join(w.base, "widget", "Cart Summary", "widget.less")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(abs, []byte(".a {}\n"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	collectEvent(t, w, "widget/Cart Summary/widget.less")

	// The batch flushed; no second event for the same path follows.
	select {
	case ev := <-w.Events():
		assert.NotEqual(t, "widget/Cart Summary/widget.less", ev.Path, "burst produced a second event")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestRun_RemoveEmitsEvent(t *testing.T) {
	w := startedWatcher(t)

	abs := filepath.Join(w.base, "widget", "Cart Summary", "display.template")
	require.NoError(t, os.WriteFile(abs, []byte("<div/>\n"), 0o644))
	collectEvent(t, w, "widget/Cart Summary/display.template")

	require.NoError(t, os.Remove(abs))

	ev := collectEvent(t, w, "widget/Cart Summary/display.template")
	assert.True(t, ev.Op.Has(fsnotify.Remove))
}

func TestRun_NewDirAndFile(t *testing.T) {
	w := startedWatcher(t)

	dir := filepath.Join(w.base, "stack", "Progress Tracker")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	// Let the watcher pick up the new directory first.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "stack.template"), []byte("<div/>\n"), 0o644))

	ev := collectEvent(t, w, "stack/Progress Tracker/stack.template")
	assert.Equal(t, asset.KindStackTemplate, ev.Kind)
}

func TestRun_TrackingRootIgnored(t *testing.T) {
	w := startedWatcher(t)

	abs := filepath.Join(w.base, tracking.Dir, "widget", "A")
	require.NoError(t, os.MkdirAll(abs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(abs, "widget.json"), []byte("{}\n"), 0o644))

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event for tracking-root write: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestRun_TempFilesIgnored(t *testing.T) {
	w := startedWatcher(t)

	for _, name := range []string{"display.template~", "display.template.swp", ".hidden"} {
		abs := filepath.Join(w.base, "widget", "Cart Summary", name)
		require.NoError(t, os.WriteFile(abs, []byte("tmp"), 0o644))
	}

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event for temp file: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestShouldIgnore_Cases(t *testing.T) {
	base := t.TempDir()
	w := New(base, asset.NewClassifier(base), slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name   string
		path   string
		ignore bool
	}{
		{"tracking root", filepath.Join(base, tracking.Dir), true},
		{"inside tracking root", filepath.Join(base, tracking.Dir, "widget", "A", "widget.json"), true},
		{"hidden file", filepath.Join(base, ".env"), true},
		{"editor backup", filepath.Join(base, "widget", "A", "display.template~"), true},
		{"vim swap", filepath.Join(base, "widget", "A", "display.template.swp"), true},
		{"normal file", filepath.Join(base, "widget", "A", "display.template"), false},
		{"nested normal", filepath.Join(base, "stack", "B", "instances", "C", "stack.template"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ignore, w.shouldIgnore(tt.path), "shouldIgnore(%q)", tt.path)
		})
	}
}
