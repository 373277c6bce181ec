// Package asset classifies paths in a tracked design tree into asset
// kinds. The kind decides how every other component treats a file:
// where its tracking metadata lives, which remote collection it matches
// against, and whether it can be pushed at all.
package asset

// Kind identifies what a path in the tracked tree represents. The zero
// value KindUnknown means the path matched no recognized shape.
type Kind string

const (
	KindUnknown Kind = ""

	// Directory markers.
	KindWidgetsDirectory              Kind = "widgetsDirectory"
	KindStacksDirectory               Kind = "stacksDirectory"
	KindGlobalElementsDirectory       Kind = "globalElementsDirectory"
	KindThemesDirectory               Kind = "themesDirectory"
	KindGlobalSnippetsDirectory       Kind = "globalSnippetsDirectory"
	KindGlobalSnippetsLocaleDirectory Kind = "globalSnippetsLocaleDirectory"
	KindAppLevelJSDirectory           Kind = "appLevelJavaScriptDirectory"

	// Widget base assets.
	KindWidget               Kind = "widget"
	KindWidgetTemplate       Kind = "widgetTemplate"
	KindWidgetLess           Kind = "widgetLess"
	KindWidgetSnippets       Kind = "widgetSnippets"
	KindWidgetConfigSnippets Kind = "widgetConfigSnippets"
	KindWidgetConfigJSON     Kind = "widgetConfigJson"
	KindWidgetMetadata       Kind = "widgetMetadataJson"
	KindWidgetJavaScript     Kind = "widgetJavaScript"
	KindWidgetModuleJS       Kind = "widgetModuleJavaScript"

	// Widget instance assets.
	KindWidgetInstance                 Kind = "widgetInstance"
	KindWidgetInstanceTemplate         Kind = "widgetInstanceTemplate"
	KindWidgetInstanceLess             Kind = "widgetInstanceLess"
	KindWidgetInstanceSnippets         Kind = "widgetInstanceSnippets"
	KindWidgetInstanceMetadata         Kind = "widgetInstanceMetadataJson"
	KindWidgetElementInstancesMetadata Kind = "widgetElementInstancesMetadataJson"

	// Widget-scoped elements.
	KindWidgetElement         Kind = "widgetElement"
	KindWidgetElementTemplate Kind = "widgetElementTemplate"
	KindWidgetElementJS       Kind = "widgetElementJavaScript"
	KindWidgetElementMetadata Kind = "widgetElementMetadataJson"

	// Stack base assets.
	KindStack              Kind = "stack"
	KindStackTemplate      Kind = "stackTemplate"
	KindStackLess          Kind = "stackLess"
	KindStackVariablesLess Kind = "stackVariablesLess"
	KindStackMetadata      Kind = "stackMetadataJson"

	// Stack instance assets.
	KindStackInstance              Kind = "stackInstance"
	KindStackInstanceTemplate      Kind = "stackInstanceTemplate"
	KindStackInstanceLess          Kind = "stackInstanceLess"
	KindStackInstanceVariablesLess Kind = "stackInstanceVariablesLess"
	KindStackInstanceMetadata      Kind = "stackInstanceMetadataJson"

	// Global elements.
	KindGlobalElement         Kind = "globalElement"
	KindGlobalElementTemplate Kind = "globalElementTemplate"
	KindGlobalElementJS       Kind = "globalElementJavaScript"
	KindGlobalElementMetadata Kind = "globalElementMetadataJson"

	// Themes.
	KindTheme                 Kind = "theme"
	KindThemeStyles           Kind = "themeStyles"
	KindThemeAdditionalStyles Kind = "themeAdditionalStyles"
	KindThemeVariables        Kind = "themeVariables"

	// Global snippets and application-level JavaScript.
	KindGlobalSnippets Kind = "globalSnippets"
	KindAppLevelJS     Kind = "appLevelJavaScript"
)

// Known reports whether the kind is a recognized classification.
func (k Kind) Known() bool {
	return k != KindUnknown
}

// IsWidgetFamily reports whether the kind belongs to the widget family,
// including instances and widget-scoped elements.
func (k Kind) IsWidgetFamily() bool {
	switch k {
	case KindWidgetsDirectory,
		KindWidget, KindWidgetTemplate, KindWidgetLess, KindWidgetSnippets,
		KindWidgetConfigSnippets, KindWidgetConfigJSON, KindWidgetMetadata,
		KindWidgetJavaScript, KindWidgetModuleJS,
		KindWidgetInstance, KindWidgetInstanceTemplate, KindWidgetInstanceLess,
		KindWidgetInstanceSnippets, KindWidgetInstanceMetadata,
		KindWidgetElementInstancesMetadata,
		KindWidgetElement, KindWidgetElementTemplate, KindWidgetElementJS,
		KindWidgetElementMetadata:
		return true
	}

	return false
}

// IsStackFamily reports whether the kind belongs to the stack family.
func (k Kind) IsStackFamily() bool {
	switch k {
	case KindStacksDirectory,
		KindStack, KindStackTemplate, KindStackLess, KindStackVariablesLess,
		KindStackMetadata,
		KindStackInstance, KindStackInstanceTemplate, KindStackInstanceLess,
		KindStackInstanceVariablesLess, KindStackInstanceMetadata:
		return true
	}

	return false
}

// IsInstance reports whether the kind is an instance-variant, as opposed
// to a base (descriptor-level) asset of the same family.
func (k Kind) IsInstance() bool {
	switch k {
	case KindWidgetInstance, KindWidgetInstanceTemplate, KindWidgetInstanceLess,
		KindWidgetInstanceSnippets, KindWidgetInstanceMetadata,
		KindWidgetElementInstancesMetadata,
		KindStackInstance, KindStackInstanceTemplate, KindStackInstanceLess,
		KindStackInstanceVariablesLess, KindStackInstanceMetadata:
		return true
	}

	return false
}

// IsElement reports whether the kind is a global or widget-scoped element.
func (k Kind) IsElement() bool {
	switch k {
	case KindWidgetElement, KindWidgetElementTemplate, KindWidgetElementJS,
		KindWidgetElementMetadata,
		KindGlobalElement, KindGlobalElementTemplate, KindGlobalElementJS,
		KindGlobalElementMetadata:
		return true
	}

	return false
}

// IsThemeFamily reports whether the kind belongs to the theme family.
func (k Kind) IsThemeFamily() bool {
	switch k {
	case KindThemesDirectory, KindTheme, KindThemeStyles,
		KindThemeAdditionalStyles, KindThemeVariables:
		return true
	}

	return false
}

// IsDirectoryMarker reports whether the kind denotes a structural
// directory rather than a concrete asset.
func (k Kind) IsDirectoryMarker() bool {
	switch k {
	case KindWidgetsDirectory, KindStacksDirectory, KindGlobalElementsDirectory,
		KindThemesDirectory, KindGlobalSnippetsDirectory,
		KindGlobalSnippetsLocaleDirectory, KindAppLevelJSDirectory:
		return true
	}

	return false
}
