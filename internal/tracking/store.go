// Package tracking persists the local metadata records that tie each
// asset in the working tree to its remote identity. Records live as
// pretty-printed JSON files under a hidden tracking directory that
// mirrors the asset's structural position.
package tracking

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mkowalski/designsync/internal/asset"
	errs "github.com/mkowalski/designsync/internal/errors"
)

const (
	// Dir is the hidden tracking root under the tracked base directory.
	Dir = ".designsync"

	// trackingDirPerm is the permission mode for tracking directories.
	trackingDirPerm = fs.FileMode(0o755)

	// trackingFilePerm is the permission mode for tracking record files.
	trackingFilePerm = fs.FileMode(0o644)
)

// Record file names, one per trackable family.
const (
	widgetRecordFile         = "widget.json"
	widgetInstanceRecordFile = "widgetInstance.json"
	stackRecordFile          = "stack.json"
	stackInstanceRecordFile  = "stackInstance.json"
	elementRecordFile        = "element.json"
	themeRecordFile          = "theme.json"
)

// EtagField is the key under which the side-channel etag is attached to
// records returned by Read. It is never written to disk.
const EtagField = "etag"

// Record is a tracking metadata record. Field sets are family-specific,
// so records stay schemaless and merges are shallow key-by-key.
type Record map[string]any

// DisplayName returns the displayName field, or "".
func (r Record) DisplayName() string { return r.str("displayName") }

// Name returns the name field, or "". Stack instances are labelled by
// name rather than displayName.
func (r Record) Name() string { return r.str("name") }

// WidgetType returns the widgetType field, or "".
func (r Record) WidgetType() string { return r.str("widgetType") }

// StackType returns the stackType field, or "".
func (r Record) StackType() string { return r.str("stackType") }

// Tag returns the element tag field, or "".
func (r Record) Tag() string { return r.str("tag") }

// Version returns the version field as an int, or 0. JSON numbers
// decode as float64, so both forms are accepted.
func (r Record) Version() int {
	switch v := r["version"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}

	return 0
}

func (r Record) str(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}

	return ""
}

// Store reads and writes tracking records for the tree rooted at base.
type Store struct {
	base  string
	etags *EtagStore
}

// NewStore creates a store for the given base directory. etags may be
// nil, in which case records are returned without etag annotation.
func NewStore(base string, etags *EtagStore) *Store {
	return &Store{base: filepath.Clean(base), etags: etags}
}

// Root returns the absolute tracking root directory.
func (s *Store) Root() string {
	return filepath.Join(s.base, Dir)
}

// MetadataPath maps an asset path and kind to the location of its
// tracking record. Family records anchor at the first widget/stack
// segment of the path, instance records at the first instances segment.
// Kinds without on-disk metadata return ErrNoMetadataForKind.
func (s *Store) MetadataPath(path string, kind asset.Kind) (string, error) {
	rel, err := s.relRecordPath(path, kind)
	if err != nil {
		return "", err
	}

	return filepath.Join(s.Root(), filepath.FromSlash(rel)), nil
}

// relRecordPath computes the record location relative to the tracking root.
func (s *Store) relRecordPath(path string, kind asset.Kind) (string, error) {
	toks := asset.Tokens(s.base, path)
	if len(toks) == 0 {
		return "", fmt.Errorf("path %q is outside the tracked tree", path)
	}

	switch kind {
	case asset.KindWidget, asset.KindWidgetTemplate, asset.KindWidgetLess,
		asset.KindWidgetSnippets, asset.KindWidgetConfigSnippets,
		asset.KindWidgetConfigJSON, asset.KindWidgetMetadata,
		asset.KindWidgetJavaScript, asset.KindWidgetModuleJS:
		name, err := segmentAfter(toks, "widget")
		if err != nil {
			return "", err
		}

		return filepath.Join("widget", name, widgetRecordFile), nil

	case asset.KindWidgetInstance, asset.KindWidgetInstanceTemplate,
		asset.KindWidgetInstanceLess, asset.KindWidgetInstanceSnippets,
		asset.KindWidgetInstanceMetadata, asset.KindWidgetElementInstancesMetadata:
		name, err := segmentAfter(toks, "widget")
		if err != nil {
			return "", err
		}

		iname, err := segmentAfter(toks, "instances")
		if err != nil {
			return "", err
		}

		return filepath.Join("widget", name, "instances", iname, widgetInstanceRecordFile), nil

	case asset.KindWidgetElement, asset.KindWidgetElementTemplate,
		asset.KindWidgetElementJS, asset.KindWidgetElementMetadata:
		name, err := segmentAfter(toks, "widget")
		if err != nil {
			return "", err
		}

		tag, err := segmentAfter(toks, "element")
		if err != nil {
			return "", err
		}

		return filepath.Join("widget", name, "element", tag, elementRecordFile), nil

	case asset.KindStack, asset.KindStackTemplate, asset.KindStackLess,
		asset.KindStackVariablesLess, asset.KindStackMetadata:
		name, err := segmentAfter(toks, "stack")
		if err != nil {
			return "", err
		}

		return filepath.Join("stack", name, stackRecordFile), nil

	case asset.KindStackInstance, asset.KindStackInstanceTemplate,
		asset.KindStackInstanceLess, asset.KindStackInstanceVariablesLess,
		asset.KindStackInstanceMetadata:
		name, err := segmentAfter(toks, "stack")
		if err != nil {
			return "", err
		}

		iname, err := segmentAfter(toks, "instances")
		if err != nil {
			return "", err
		}

		return filepath.Join("stack", name, "instances", iname, stackInstanceRecordFile), nil

	case asset.KindGlobalElement, asset.KindGlobalElementTemplate,
		asset.KindGlobalElementJS, asset.KindGlobalElementMetadata:
		tag, err := segmentAfter(toks, "element")
		if err != nil {
			return "", err
		}

		return filepath.Join("element", tag, elementRecordFile), nil

	case asset.KindTheme, asset.KindThemeStyles,
		asset.KindThemeAdditionalStyles, asset.KindThemeVariables:
		name, err := segmentAfter(toks, "theme")
		if err != nil {
			return "", err
		}

		return filepath.Join("theme", name, themeRecordFile), nil
	}

	return "", fmt.Errorf("kind %q: %w", kind, errs.ErrNoMetadataForKind)
}

// segmentAfter returns the token following the first occurrence of
// marker in toks.
func segmentAfter(toks []string, marker string) (string, error) {
	for i, tok := range toks {
		if tok == marker && i+1 < len(toks) {
			return toks[i+1], nil
		}
	}

	return "", fmt.Errorf("path has no %s/<name> segment", marker)
}

// Read returns the tracking record for the asset at path, or (nil, nil)
// when no record has been written yet. Unless excludeEtag is set, the
// record's etag is attached from the side-channel store when known.
func (s *Store) Read(path string, kind asset.Kind, excludeEtag bool) (Record, error) {
	abs, err := s.MetadataPath(path, kind)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading tracking record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parsing tracking record %s: %w", abs, err)
	}

	if !excludeEtag && s.etags != nil {
		rel, _ := s.relRecordPath(path, kind)
		if etag, ok := s.etags.Get(rel); ok {
			rec[EtagField] = etag
		}
	}

	return rec, nil
}

// Write serializes record as pretty-printed JSON with a trailing
// newline at relPath under the tracking root, creating parent
// directories as needed.
func (s *Store) Write(relPath string, record Record) error {
	abs := filepath.Join(s.Root(), filepath.FromSlash(relPath))

	return writeRecordFile(abs, record)
}

// Update shallow-merges partial on top of the existing record for the
// asset at path and writes the result back. It fails with
// ErrNoTrackingRecord when no record exists; a merge never creates one.
func (s *Store) Update(path string, kind asset.Kind, partial Record) error {
	existing, err := s.Read(path, kind, true)
	if err != nil {
		return err
	}

	if existing == nil {
		return fmt.Errorf("updating %s: %w", path, errs.ErrNoTrackingRecord)
	}

	for k, v := range partial {
		existing[k] = v
	}

	abs, err := s.MetadataPath(path, kind)
	if err != nil {
		return err
	}

	return writeRecordFile(abs, existing)
}

func writeRecordFile(abs string, record Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing tracking record: %w", err)
	}

	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(abs), trackingDirPerm); err != nil {
		return fmt.Errorf("creating tracking directory: %w", err)
	}

	if err := os.WriteFile(abs, data, trackingFilePerm); err != nil {
		return fmt.Errorf("writing tracking record: %w", err)
	}

	return nil
}
