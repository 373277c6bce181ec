// Package drift detects local modifications to synchronized files. Each
// pull stores a pristine copy of the downloaded content under the
// tracking root; drift is the line-level difference between that base
// copy and the working file.
package drift

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/mkowalski/designsync/internal/tracking"
)

// BaseSuffix is appended to a file's tracking-root mirror path to form
// the location of its last-pulled base copy.
const BaseSuffix = ".orig"

const (
	baseDirPerm  = fs.FileMode(0o755)
	baseFilePerm = fs.FileMode(0o644)
)

// Change summarizes the drift of a single file from its base copy.
type Change struct {
	// Path is the file's slash-separated path relative to the tracked base.
	Path string

	LinesAdded   int
	LinesRemoved int

	// Deleted is set when a base copy exists but the working file is gone.
	Deleted bool
}

// Changed reports whether the file differs from its base copy at all.
func (c Change) Changed() bool {
	return c.Deleted || c.LinesAdded > 0 || c.LinesRemoved > 0
}

// Reporter compares working files against their last-pulled base copies.
type Reporter struct {
	base string
	dmp  *diffmatchpatch.DiffMatchPatch
}

// NewReporter creates a reporter for the tree rooted at base.
func NewReporter(base string) *Reporter {
	return &Reporter{
		base: filepath.Clean(base),
		dmp:  diffmatchpatch.New(),
	}
}

func (r *Reporter) root() string {
	return filepath.Join(r.base, tracking.Dir)
}

func (r *Reporter) basePath(rel string) string {
	return filepath.Join(r.root(), filepath.FromSlash(rel)+BaseSuffix)
}

// SaveBase stores content as the base copy for the file at rel,
// replacing any previous copy. Called after every successful pull.
func (r *Reporter) SaveBase(rel string, content []byte) error {
	abs := r.basePath(rel)

	if err := os.MkdirAll(filepath.Dir(abs), baseDirPerm); err != nil {
		return fmt.Errorf("creating base copy directory: %w", err)
	}

	if err := os.WriteFile(abs, content, baseFilePerm); err != nil {
		return fmt.Errorf("writing base copy: %w", err)
	}

	return nil
}

// File reports the drift of a single file, or (nil, nil) when no base
// copy exists: a file never pulled has nothing to drift from.
func (r *Reporter) File(rel string) (*Change, error) {
	baseContent, err := os.ReadFile(r.basePath(rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading base copy for %s: %w", rel, err)
	}

	local, err := os.ReadFile(filepath.Join(r.base, filepath.FromSlash(rel)))
	if err != nil {
		if os.IsNotExist(err) {
			return &Change{Path: rel, Deleted: true}, nil
		}

		return nil, fmt.Errorf("reading %s: %w", rel, err)
	}

	change := r.diff(rel, string(baseContent), string(local))

	return &change, nil
}

// Scan walks every stored base copy and reports the files that have
// drifted. Unchanged files are omitted. A missing tracking root means
// nothing was ever pulled and yields an empty report.
func (r *Reporter) Scan() ([]Change, error) {
	var changes []Change

	root := r.root()

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(d.Name(), BaseSuffix) {
			return nil
		}

		relWithSuffix, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		rel := strings.TrimSuffix(filepath.ToSlash(relWithSuffix), BaseSuffix)

		change, err := r.File(rel)
		if err != nil {
			return err
		}

		if change != nil && change.Changed() {
			changes = append(changes, *change)
		}

		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("scanning base copies: %w", err)
	}

	return changes, nil
}

// diff computes a line-level change summary. Diffing runs in line mode
// so counts are whole lines rather than character runs.
func (r *Reporter) diff(rel, baseText, localText string) Change {
	chars1, chars2, lines := r.dmp.DiffLinesToChars(baseText, localText)
	diffs := r.dmp.DiffMain(chars1, chars2, false)
	diffs = r.dmp.DiffCleanupSemantic(diffs)
	diffs = r.dmp.DiffCharsToLines(diffs, lines)

	change := Change{Path: rel}

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			change.LinesAdded += lineCount(d.Text)
		case diffmatchpatch.DiffDelete:
			change.LinesRemoved += lineCount(d.Text)
		case diffmatchpatch.DiffEqual:
		}
	}

	return change
}

// lineCount counts the lines in a diff fragment. A trailing fragment
// without a final newline is still one line.
func lineCount(text string) int {
	if text == "" {
		return 0
	}

	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}

	return n
}
