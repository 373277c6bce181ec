// Package match resolves local assets to their remote counterparts: the
// repository identifiers, versions and layout context a push needs to
// target the right server object. A clean "no remote match" is a valid
// result, not an error; only a missing local tracking record fails.
package match

import (
	"fmt"
	"log/slog"

	"github.com/mkowalski/designsync/internal/asset"
	"github.com/mkowalski/designsync/internal/catalog"
	errs "github.com/mkowalski/designsync/internal/errors"
	"github.com/mkowalski/designsync/internal/tracking"
)

// WidgetRef targets a widget descriptor on the server.
type WidgetRef struct {
	RepositoryID string
	WidgetType   string
	Elementized  bool
}

// WidgetInstanceRef targets a widget instance on the server. The layout
// fields are empty for instances that have never had a structural
// update and whose widget is not elementized.
type WidgetInstanceRef struct {
	RepositoryID           string
	DescriptorRepositoryID string
	DisplayName            string
	Version                int
	LayoutInstanceID       string
	LayoutDescriptorID     string
}

// StackRef targets a stack descriptor on the server.
type StackRef struct {
	RepositoryID string
	StackType    string
}

// StackInstanceRef targets a stack instance on the server.
type StackInstanceRef struct {
	RepositoryID           string
	DescriptorRepositoryID string
	Name                   string
	Version                int
}

// ElementRef targets an element on the server. WidgetID is set only for
// widget-scoped elements.
type ElementRef struct {
	Tag          string
	RepositoryID string
	WidgetID     string
}

// ThemeRef targets a theme on the server.
type ThemeRef struct {
	RepositoryID string
}

// Matcher answers "does this local asset already exist on the target,
// and under what identifiers?" against a fully populated catalog.
type Matcher struct {
	catalog    *catalog.Catalog
	store      *tracking.Store
	classifier *asset.Classifier
	logger     *slog.Logger
}

// New creates a matcher over the given catalog and tracking store.
func New(cat *catalog.Catalog, store *tracking.Store, classifier *asset.Classifier, logger *slog.Logger) *Matcher {
	return &Matcher{
		catalog:    cat,
		store:      store,
		classifier: classifier,
		logger:     logger,
	}
}

// record loads the tracking record matching requires. A match needs to
// know what to look for, so absence here is a failure, unlike the
// store's own read semantics.
func (m *Matcher) record(path string, kind asset.Kind) (tracking.Record, error) {
	rec, err := m.store.Read(path, kind, false)
	if err != nil {
		return nil, err
	}

	if rec == nil {
		return nil, fmt.Errorf("%s: %w", path, errs.ErrNoTrackingRecord)
	}

	return rec, nil
}

// Widget resolves a local widget to its remote descriptor, or (nil, nil)
// when the server has no widget with the tracked name and version.
func (m *Matcher) Widget(path string) (*WidgetRef, error) {
	rec, err := m.record(path, asset.KindWidget)
	if err != nil {
		return nil, err
	}

	d := m.catalog.FindWidgetDescriptor(rec.DisplayName(), rec.Version())
	if d == nil {
		m.logger.Info("no remote widget match",
			slog.String("displayName", rec.DisplayName()),
			slog.Int("version", rec.Version()))

		return nil, nil
	}

	m.logger.Info("remote widget matched",
		slog.String("displayName", d.DisplayName),
		slog.String("repositoryId", d.RepositoryID))

	return &WidgetRef{
		RepositoryID: d.RepositoryID,
		WidgetType:   d.WidgetType,
		Elementized:  d.Elementized(),
	}, nil
}

// WidgetInstance resolves a local widget instance. When the matched
// instance carries no currentLayout relation yet, the layout descriptor
// is inferred best-effort from the first layout of the owning widget's
// elementized descriptor.
func (m *Matcher) WidgetInstance(path string) (*WidgetInstanceRef, error) {
	rec, err := m.record(path, asset.KindWidgetInstance)
	if err != nil {
		return nil, err
	}

	inst, ok := m.catalog.WidgetInstance(rec.DisplayName(), rec.Version())
	if !ok {
		m.logger.Info("no remote widget instance match",
			slog.String("displayName", rec.DisplayName()),
			slog.Int("version", rec.Version()))

		return nil, nil
	}

	ref := &WidgetInstanceRef{
		RepositoryID: inst.RepositoryID,
		DisplayName:  inst.DisplayName,
		Version:      inst.Version,
	}
	if inst.Descriptor != nil {
		ref.DescriptorRepositoryID = inst.Descriptor.RepositoryID
	}

	if inst.CurrentLayout != nil {
		ref.LayoutInstanceID = inst.CurrentLayout.LayoutInstanceID
		ref.LayoutDescriptorID = inst.CurrentLayout.LayoutDescriptorID
	} else if layoutID := m.fallbackLayoutDescriptor(path); layoutID != "" {
		ref.LayoutDescriptorID = layoutID
	}

	m.logger.Info("remote widget instance matched",
		slog.String("displayName", inst.DisplayName),
		slog.String("repositoryId", inst.RepositoryID))

	return ref, nil
}

// fallbackLayoutDescriptor returns the first layout of the owning
// widget's descriptor when that widget is elementized. Pre-first-update
// instances have no layout relation of their own; inferring it from the
// descriptor can diverge when multiple layouts exist, so this is only a
// fallback. Elementized-ness is re-derived from the freshly cached
// descriptor, never trusted from local metadata.
func (m *Matcher) fallbackLayoutDescriptor(path string) string {
	widgetRec, err := m.store.Read(path, asset.KindWidget, true)
	if err != nil || widgetRec == nil {
		return ""
	}

	d := m.catalog.FindWidgetDescriptor(widgetRec.DisplayName(), widgetRec.Version())
	if d == nil || !d.Elementized() {
		return ""
	}

	return d.Layouts[0].RepositoryID
}

// Stack resolves a local stack to its remote descriptor.
func (m *Matcher) Stack(path string) (*StackRef, error) {
	rec, err := m.record(path, asset.KindStack)
	if err != nil {
		return nil, err
	}

	d := m.catalog.FindStackDescriptor(rec.DisplayName(), rec.Version())
	if d == nil {
		m.logger.Info("no remote stack match",
			slog.String("displayName", rec.DisplayName()),
			slog.Int("version", rec.Version()))

		return nil, nil
	}

	m.logger.Info("remote stack matched",
		slog.String("displayName", d.DisplayName),
		slog.String("repositoryId", d.RepositoryID))

	return &StackRef{
		RepositoryID: d.RepositoryID,
		StackType:    d.StackType,
	}, nil
}

// StackInstance resolves a local stack instance.
func (m *Matcher) StackInstance(path string) (*StackInstanceRef, error) {
	rec, err := m.record(path, asset.KindStackInstance)
	if err != nil {
		return nil, err
	}

	name := rec.Name()
	if name == "" {
		name = rec.DisplayName()
	}

	inst, ok := m.catalog.StackInstance(name, rec.Version())
	if !ok {
		m.logger.Info("no remote stack instance match",
			slog.String("name", name),
			slog.Int("version", rec.Version()))

		return nil, nil
	}

	ref := &StackInstanceRef{
		RepositoryID: inst.RepositoryID,
		Name:         inst.Name,
		Version:      inst.Version,
	}
	if inst.Descriptor != nil {
		ref.DescriptorRepositoryID = inst.Descriptor.RepositoryID
	}

	m.logger.Info("remote stack instance matched",
		slog.String("name", inst.Name),
		slog.String("repositoryId", inst.RepositoryID))

	return ref, nil
}

// Element resolves a local element, global or widget-scoped, deciding
// which by classifying the path. When the server does not support
// element listings it returns ErrElementsUnsupported: an empty element
// cache means "cannot know", not "does not exist".
func (m *Matcher) Element(path string) (*ElementRef, error) {
	kind := m.classifier.Classify(path)

	var global bool

	switch kind {
	case asset.KindGlobalElement, asset.KindGlobalElementTemplate,
		asset.KindGlobalElementJS, asset.KindGlobalElementMetadata:
		global = true
	case asset.KindWidgetElement, asset.KindWidgetElementTemplate,
		asset.KindWidgetElementJS, asset.KindWidgetElementMetadata:
		global = false
	default:
		return nil, fmt.Errorf("path %s is not an element (classified %q)", path, kind)
	}

	rec, err := m.record(path, kind)
	if err != nil {
		return nil, err
	}

	if !m.catalog.ElementsSupported() {
		return nil, fmt.Errorf("matching element %s: %w", rec.Tag(), errs.ErrElementsUnsupported)
	}

	if global {
		return m.globalElement(rec)
	}

	return m.widgetElement(path, rec)
}

func (m *Matcher) globalElement(rec tracking.Record) (*ElementRef, error) {
	el, ok := m.catalog.GlobalElement(rec.Tag())
	if !ok {
		m.logger.Info("no remote global element match", slog.String("tag", rec.Tag()))
		return nil, nil
	}

	m.logger.Info("remote global element matched",
		slog.String("tag", el.Tag),
		slog.String("repositoryId", el.RepositoryID))

	return &ElementRef{Tag: el.Tag, RepositoryID: el.RepositoryID}, nil
}

// widgetElement matches a widget-scoped element through its owning
// widget: the association is looked up, not stored, so the match is a
// descriptor agreeing with the element's recorded version and the
// owning widget's type.
func (m *Matcher) widgetElement(path string, rec tracking.Record) (*ElementRef, error) {
	widgetRec, err := m.store.Read(path, asset.KindWidget, true)
	if err != nil {
		return nil, err
	}

	if widgetRec == nil {
		return nil, fmt.Errorf("owning widget of element %s: %w", rec.Tag(), errs.ErrNoTrackingRecord)
	}

	d := m.catalog.FindWidgetDescriptorByType(widgetRec.WidgetType(), rec.Version())
	if d == nil {
		m.logger.Info("no remote widget element match",
			slog.String("tag", rec.Tag()),
			slog.String("widgetType", widgetRec.WidgetType()))

		return nil, nil
	}

	m.logger.Info("remote widget element matched",
		slog.String("tag", rec.Tag()),
		slog.String("widgetId", d.RepositoryID))

	return &ElementRef{Tag: rec.Tag(), WidgetID: d.RepositoryID}, nil
}

// Theme resolves a local theme by display name.
func (m *Matcher) Theme(path string) (*ThemeRef, error) {
	rec, err := m.record(path, asset.KindTheme)
	if err != nil {
		return nil, err
	}

	theme, ok := m.catalog.Theme(rec.DisplayName())
	if !ok {
		m.logger.Info("no remote theme match", slog.String("displayName", rec.DisplayName()))
		return nil, nil
	}

	m.logger.Info("remote theme matched",
		slog.String("displayName", theme.Name),
		slog.String("repositoryId", theme.RepositoryID))

	return &ThemeRef{RepositoryID: theme.RepositoryID}, nil
}

// WidgetExists reports whether the widget at path has a remote
// counterpart, discarding the reference payload.
func (m *Matcher) WidgetExists(path string) (bool, error) {
	ref, err := m.Widget(path)
	return ref != nil, err
}

// WidgetInstanceExists reports whether the widget instance at path has
// a remote counterpart.
func (m *Matcher) WidgetInstanceExists(path string) (bool, error) {
	ref, err := m.WidgetInstance(path)
	return ref != nil, err
}

// StackExists reports whether the stack at path has a remote counterpart.
func (m *Matcher) StackExists(path string) (bool, error) {
	ref, err := m.Stack(path)
	return ref != nil, err
}

// StackInstanceExists reports whether the stack instance at path has a
// remote counterpart.
func (m *Matcher) StackInstanceExists(path string) (bool, error) {
	ref, err := m.StackInstance(path)
	return ref != nil, err
}

// ElementExists reports whether the element at path has a remote
// counterpart. ErrElementsUnsupported propagates.
func (m *Matcher) ElementExists(path string) (bool, error) {
	ref, err := m.Element(path)
	return ref != nil, err
}

// ThemeExists reports whether the theme at path has a remote counterpart.
func (m *Matcher) ThemeExists(path string) (bool, error) {
	ref, err := m.Theme(path)
	return ref != nil, err
}
