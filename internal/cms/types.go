package cms

// Layout is a layout row owned by an elementized widget descriptor.
type Layout struct {
	RepositoryID string `json:"repositoryId"`
	DisplayName  string `json:"displayName"`
}

// WidgetDescriptor is the server record for a widget definition. In
// grouped instance listings the descriptor arrives with its Instances
// populated; plain descriptor listings leave it nil.
type WidgetDescriptor struct {
	RepositoryID string           `json:"repositoryId"`
	DisplayName  string           `json:"displayName"`
	Version      int              `json:"version"`
	WidgetType   string           `json:"widgetType"`
	Layouts      []Layout         `json:"layouts"`
	Instances    []WidgetInstance `json:"instances,omitempty"`
}

// Elementized reports whether the widget's layout is composed of
// elements. It is derivable only from the layouts list; local tracking
// metadata must never stand in for it.
func (d *WidgetDescriptor) Elementized() bool {
	return len(d.Layouts) > 0
}

// CurrentLayout relates a widget instance to its layout instance and
// layout descriptor. Present only after the instance's first
// structural update.
type CurrentLayout struct {
	LayoutInstanceID   string `json:"layoutInstanceId"`
	LayoutDescriptorID string `json:"layoutDescriptorId"`
}

// WidgetInstance is a placed occurrence of a widget on a page.
type WidgetInstance struct {
	RepositoryID  string            `json:"repositoryId"`
	DisplayName   string            `json:"displayName"`
	Version       int               `json:"version"`
	Descriptor    *WidgetDescriptor `json:"descriptor,omitempty"`
	CurrentLayout *CurrentLayout    `json:"currentLayout,omitempty"`
}

// StackDescriptor is the server record for a layout stack definition.
type StackDescriptor struct {
	RepositoryID string          `json:"repositoryId"`
	DisplayName  string          `json:"displayName"`
	Version      int             `json:"version"`
	StackType    string          `json:"stackType"`
	Instances    []StackInstance `json:"instances,omitempty"`
}

// StackInstance is a placed occurrence of a stack. The server exposes
// its label as name rather than displayName.
type StackInstance struct {
	RepositoryID string           `json:"repositoryId"`
	Name         string           `json:"name"`
	Version      int              `json:"version"`
	Descriptor   *StackDescriptor `json:"descriptor,omitempty"`
}

// Element is a composable unit identified by tag, either global or
// scoped to a widget type.
type Element struct {
	Tag          string `json:"tag"`
	RepositoryID string `json:"repositoryId"`
	Title        string `json:"title"`
}

// Theme is a server-side styling theme.
type Theme struct {
	RepositoryID string `json:"repositoryId"`
	Name         string `json:"name"`
}

// Widget instance listing partitions. The server splits instances into
// platform-supplied and user-created groups that must be merged.
const (
	SourcePlatform = "100"
	SourceUser     = "101"
)

// CapabilityElements is the registry capability gating element listings.
const CapabilityElements = "elementsListing"
