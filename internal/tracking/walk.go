package tracking

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
)

// TypeTracked reports whether a widget or stack with the given type is
// already tracked locally. It walks the tracking tree depth-first and
// short-circuits on the first record whose widgetType or stackType
// matches. This is a local duplicate-detection pass, independent of the
// remote catalog.
func (s *Store) TypeTracked(typ string) (bool, error) {
	return s.scanRecords(func(name string, rec Record) bool {
		if name != widgetRecordFile && name != stackRecordFile {
			return false
		}

		return rec.WidgetType() == typ && typ != "" ||
			rec.StackType() == typ && typ != ""
	})
}

// ElementTagTracked reports whether an element with the given tag is
// already tracked locally, global or widget-scoped.
func (s *Store) ElementTagTracked(tag string) (bool, error) {
	return s.scanRecords(func(name string, rec Record) bool {
		return name == elementRecordFile && tag != "" && rec.Tag() == tag
	})
}

// scanRecords walks the tracking tree and applies match to every record
// file, stopping as soon as one matches. A missing tracking root means
// nothing is tracked, not an error.
func (s *Store) scanRecords(match func(fileName string, rec Record) bool) (bool, error) {
	found := false

	err := filepath.WalkDir(s.Root(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			// A record that fails to parse cannot match; keep walking.
			return nil
		}

		if match(d.Name(), rec) {
			found = true
			return fs.SkipAll
		}

		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}

		return false, err
	}

	return found, nil
}
