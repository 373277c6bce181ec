// Package catalog holds the session-scoped index of everything the
// remote server currently has: widget and stack descriptors and
// instances, elements, and themes. It is populated once per session and
// immutable afterwards, so matchers read it without locking.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/mkowalski/designsync/internal/cms"
)

// InstanceKey builds the composite lookup key for widget and stack
// instances. Two instances may share a display name at different
// versions, and the server exposes no simpler stable key common to both
// families. Names are NFC-normalized so instances keyed from local
// paths and from server payloads agree on non-ASCII names.
func InstanceKey(displayName string, version int) string {
	return "Display Name: " + norm.NFC.String(displayName) + " Version: " + strconv.Itoa(version)
}

// lister is the subset of the cms client the catalog needs. Extracted
// for testability.
type lister interface {
	Supports(ctx context.Context, capabilities ...string) (bool, error)
	ListWidgetDescriptors(ctx context.Context) ([]cms.WidgetDescriptor, error)
	ListWidgetInstanceGroups(ctx context.Context, source string) ([]cms.WidgetDescriptor, error)
	ListStackDescriptors(ctx context.Context) ([]cms.StackDescriptor, error)
	ListStackInstanceGroups(ctx context.Context) ([]cms.StackDescriptor, error)
	ListThemes(ctx context.Context) ([]cms.Theme, error)
	ListElements(ctx context.Context, globalsOnly bool) ([]cms.Element, error)
}

// Catalog is the populated remote index for one session.
type Catalog struct {
	widgetDescriptors []cms.WidgetDescriptor
	widgetInstances   map[string]cms.WidgetInstance
	stackDescriptors  []cms.StackDescriptor
	stackInstances    map[string]cms.StackInstance
	widgetElements    map[string]cms.Element
	globalElements    map[string]cms.Element
	themes            map[string]cms.Theme
	elementsSupported bool
}

// Load fetches the seven remote collections concurrently and indexes
// them. Population is all-or-nothing: any fetch failing fails the whole
// load, and no partial catalog is returned.
func Load(ctx context.Context, client lister, logger *slog.Logger) (*Catalog, error) {
	elementsSupported, err := client.Supports(ctx, cms.CapabilityElements)
	if err != nil {
		return nil, fmt.Errorf("probing element capability: %w", err)
	}

	var (
		widgetDescs    []cms.WidgetDescriptor
		platformGroups []cms.WidgetDescriptor
		userGroups     []cms.WidgetDescriptor
		stackDescs     []cms.StackDescriptor
		stackGroups    []cms.StackDescriptor
		themes         []cms.Theme
		widgetEls      []cms.Element
		globalEls      []cms.Element
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		widgetDescs, err = client.ListWidgetDescriptors(gctx)
		return err
	})
	g.Go(func() (err error) {
		platformGroups, err = client.ListWidgetInstanceGroups(gctx, cms.SourcePlatform)
		return err
	})
	g.Go(func() (err error) {
		userGroups, err = client.ListWidgetInstanceGroups(gctx, cms.SourceUser)
		return err
	})
	g.Go(func() (err error) {
		stackDescs, err = client.ListStackDescriptors(gctx)
		return err
	})
	g.Go(func() (err error) {
		stackGroups, err = client.ListStackInstanceGroups(gctx)
		return err
	})
	g.Go(func() (err error) {
		themes, err = client.ListThemes(gctx)
		return err
	})
	g.Go(func() error {
		// Element listings are capability-gated. An unsupported server
		// leaves both element caches empty; callers must read empty as
		// "unsupported", not "nothing exists".
		if !elementsSupported {
			return nil
		}

		var err error
		if globalEls, err = client.ListElements(gctx, true); err != nil {
			return err
		}

		widgetEls, err = client.ListElements(gctx, false)

		return err
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("loading remote catalog: %w", err)
	}

	c := &Catalog{
		widgetDescriptors: widgetDescs,
		widgetInstances:   make(map[string]cms.WidgetInstance),
		stackDescriptors:  stackDescs,
		stackInstances:    make(map[string]cms.StackInstance),
		widgetElements:    indexElements(widgetEls),
		globalElements:    indexElements(globalEls),
		themes:            make(map[string]cms.Theme),
		elementsSupported: elementsSupported,
	}

	// The partitions were fetched concurrently but are applied in a
	// fixed order: platform first, then user-created, so that a
	// name+version collision resolves to the user partition
	// deterministically rather than by completion order.
	c.applyWidgetGroups(platformGroups)
	c.applyWidgetGroups(userGroups)
	c.applyStackGroups(stackGroups)

	for _, theme := range themes {
		c.themes[theme.Name] = theme
	}

	logger.Info("remote catalog loaded",
		slog.Int("widget_descriptors", len(c.widgetDescriptors)),
		slog.Int("widget_instances", len(c.widgetInstances)),
		slog.Int("stack_descriptors", len(c.stackDescriptors)),
		slog.Int("stack_instances", len(c.stackInstances)),
		slog.Int("themes", len(c.themes)),
		slog.Bool("elements_supported", elementsSupported),
	)

	return c, nil
}

// applyWidgetGroups flattens descriptor+instances groups into the
// instance map. Each instance keeps a back-reference to its descriptor
// with the instances list stripped to avoid cyclic retention.
func (c *Catalog) applyWidgetGroups(groups []cms.WidgetDescriptor) {
	for _, group := range groups {
		desc := group
		desc.Instances = nil

		for _, inst := range group.Instances {
			d := desc
			inst.Descriptor = &d
			c.widgetInstances[InstanceKey(inst.DisplayName, inst.Version)] = inst
		}
	}
}

func (c *Catalog) applyStackGroups(groups []cms.StackDescriptor) {
	for _, group := range groups {
		desc := group
		desc.Instances = nil

		for _, inst := range group.Instances {
			d := desc
			inst.Descriptor = &d
			c.stackInstances[InstanceKey(inst.Name, inst.Version)] = inst
		}
	}
}

func indexElements(els []cms.Element) map[string]cms.Element {
	m := make(map[string]cms.Element, len(els))
	for _, el := range els {
		m[el.Tag] = el
	}

	return m
}

// WidgetDescriptors returns the full descriptor list. Descriptors are
// matched by linear scan: composite identity is awkward across
// elementized and non-elementized variants, so no map is kept.
func (c *Catalog) WidgetDescriptors() []cms.WidgetDescriptor {
	return c.widgetDescriptors
}

// FindWidgetDescriptor returns the first descriptor agreeing on display
// name and version, or nil.
func (c *Catalog) FindWidgetDescriptor(displayName string, version int) *cms.WidgetDescriptor {
	for i := range c.widgetDescriptors {
		d := &c.widgetDescriptors[i]
		if d.DisplayName == displayName && d.Version == version {
			return d
		}
	}

	return nil
}

// FindWidgetDescriptorByType returns the first descriptor agreeing on
// widget type and version, or nil. Used for widget-scoped element
// matching, where the element knows its owning type rather than name.
func (c *Catalog) FindWidgetDescriptorByType(widgetType string, version int) *cms.WidgetDescriptor {
	for i := range c.widgetDescriptors {
		d := &c.widgetDescriptors[i]
		if d.WidgetType == widgetType && d.Version == version {
			return d
		}
	}

	return nil
}

// WidgetInstance looks up an instance by display name and version.
func (c *Catalog) WidgetInstance(displayName string, version int) (cms.WidgetInstance, bool) {
	inst, ok := c.widgetInstances[InstanceKey(displayName, version)]
	return inst, ok
}

// StackDescriptors returns the full stack descriptor list.
func (c *Catalog) StackDescriptors() []cms.StackDescriptor {
	return c.stackDescriptors
}

// FindStackDescriptor returns the first stack descriptor agreeing on
// display name and version, or nil.
func (c *Catalog) FindStackDescriptor(displayName string, version int) *cms.StackDescriptor {
	for i := range c.stackDescriptors {
		d := &c.stackDescriptors[i]
		if d.DisplayName == displayName && d.Version == version {
			return d
		}
	}

	return nil
}

// StackInstance looks up a stack instance by name and version.
func (c *Catalog) StackInstance(name string, version int) (cms.StackInstance, bool) {
	inst, ok := c.stackInstances[InstanceKey(name, version)]
	return inst, ok
}

// GlobalElement looks up a global element by tag.
func (c *Catalog) GlobalElement(tag string) (cms.Element, bool) {
	el, ok := c.globalElements[tag]
	return el, ok
}

// WidgetElement looks up a widget-scoped element by tag.
func (c *Catalog) WidgetElement(tag string) (cms.Element, bool) {
	el, ok := c.widgetElements[tag]
	return el, ok
}

// Theme looks up a theme by display name.
func (c *Catalog) Theme(name string) (cms.Theme, bool) {
	theme, ok := c.themes[name]
	return theme, ok
}

// ElementsSupported reports whether the server advertises element
// listings. When false, empty element lookups mean "unsupported", not
// "does not exist".
func (c *Catalog) ElementsSupported() bool {
	return c.elementsSupported
}
