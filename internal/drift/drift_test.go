package drift

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWorking(t *testing.T, base, rel, content string) {
	t.Helper()

	abs := filepath.Join(base, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
}

func TestFile_NoBaseCopy(t *testing.T) {
	base := t.TempDir()
	r := NewReporter(base)

	writeWorking(t, base, "widget/Cart Summary/display.template", "<div/>\n")

	change, err := r.File("widget/Cart Summary/display.template")
	require.NoError(t, err)
	assert.Nil(t, change, "never-pulled files have nothing to drift from")
}

func TestFile_Unchanged(t *testing.T) {
	base := t.TempDir()
	r := NewReporter(base)

	content := "<div>hello</div>\n"
	writeWorking(t, base, "widget/Cart Summary/display.template", content)
	require.NoError(t, r.SaveBase("widget/Cart Summary/display.template", []byte(content)))

	change, err := r.File("widget/Cart Summary/display.template")
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.False(t, change.Changed())
	assert.Zero(t, change.LinesAdded)
	assert.Zero(t, change.LinesRemoved)
}

func TestFile_LineCounts(t *testing.T) {
	base := t.TempDir()
	r := NewReporter(base)

	pulled := "one\ntwo\nthree\n"
	edited := "one\ntwo changed\nthree\nfour\n"

	writeWorking(t, base, "widget/Cart Summary/widget.less", edited)
	require.NoError(t, r.SaveBase("widget/Cart Summary/widget.less", []byte(pulled)))

	change, err := r.File("widget/Cart Summary/widget.less")
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.True(t, change.Changed())
	assert.Equal(t, 2, change.LinesAdded, "one edited, one appended")
	assert.Equal(t, 1, change.LinesRemoved)
}

func TestFile_DeletedLocally(t *testing.T) {
	base := t.TempDir()
	r := NewReporter(base)

	require.NoError(t, r.SaveBase("theme/Mono Theme/styles.less", []byte("body {}\n")))

	change, err := r.File("theme/Mono Theme/styles.less")
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.True(t, change.Deleted)
	assert.True(t, change.Changed())
}

func TestFile_NoTrailingNewline(t *testing.T) {
	base := t.TempDir()
	r := NewReporter(base)

	writeWorking(t, base, "global/app.js", "console.log(1)\nextra")
	require.NoError(t, r.SaveBase("global/app.js", []byte("console.log(1)\n")))

	change, err := r.File("global/app.js")
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.Equal(t, 1, change.LinesAdded)
}

func TestScan_ReportsOnlyDrifted(t *testing.T) {
	base := t.TempDir()
	r := NewReporter(base)

	writeWorking(t, base, "widget/A/display.template", "same\n")
	require.NoError(t, r.SaveBase("widget/A/display.template", []byte("same\n")))

	writeWorking(t, base, "widget/B/display.template", "edited\n")
	require.NoError(t, r.SaveBase("widget/B/display.template", []byte("original\n")))

	require.NoError(t, r.SaveBase("stack/C/stack.template", []byte("gone\n")))

	changes, err := r.Scan()
	require.NoError(t, err)
	require.Len(t, changes, 2)

	byPath := make(map[string]Change, len(changes))
	for _, c := range changes {
		byPath[c.Path] = c
	}

	assert.NotContains(t, byPath, "widget/A/display.template")

	edited, ok := byPath["widget/B/display.template"]
	require.True(t, ok)
	assert.Equal(t, 1, edited.LinesAdded)
	assert.Equal(t, 1, edited.LinesRemoved)

	deleted, ok := byPath["stack/C/stack.template"]
	require.True(t, ok)
	assert.True(t, deleted.Deleted)
}

func TestScan_NoTrackingRoot(t *testing.T) {
	r := NewReporter(t.TempDir())

	changes, err := r.Scan()
	require.NoError(t, err)
	assert.Empty(t, changes)
}

func TestSaveBase_Replaces(t *testing.T) {
	base := t.TempDir()
	r := NewReporter(base)

	rel := "widget/A/widget.less"
	writeWorking(t, base, rel, "v2\n")

	require.NoError(t, r.SaveBase(rel, []byte("v1\n")))
	require.NoError(t, r.SaveBase(rel, []byte("v2\n")))

	change, err := r.File(rel)
	require.NoError(t, err)
	require.NotNil(t, change)
	assert.False(t, change.Changed())
}
