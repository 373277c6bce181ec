package asset

import (
	"os"
	"path/filepath"
	"strings"
)

// Family root directory names recognized at the top of the tracked tree.
const (
	widgetRoot   = "widget"
	stackRoot    = "stack"
	elementRoot  = "element"
	themeRoot    = "theme"
	snippetsRoot = "snippets"
	globalRoot   = "global"
)

// Segment names that switch rule sets within a family.
const (
	instancesSegment = "instances"
	elementSegment   = "element"
	moduleSegment    = "module"
)

// A rule maps a token pattern to a kind. Pattern elements are literal
// names except for the wildcards "*" (any single token) and "*.<ext>"
// (any token with that suffix). The first full-length match wins, so
// tables list more specific patterns first.
type rule struct {
	pattern []string
	kind    Kind
}

// widgetBaseRules match tokens after widget/<name>/.
var widgetBaseRules = []rule{
	{[]string{"display.template"}, KindWidgetTemplate},
	{[]string{"widget.less"}, KindWidgetLess},
	{[]string{"widgetMetadata.json"}, KindWidgetMetadata},
	{[]string{"js", "*.js"}, KindWidgetJavaScript},
	{[]string{"locales", "*", "*.json"}, KindWidgetSnippets},
	{[]string{"config", "configMetadata.json"}, KindWidgetConfigJSON},
	{[]string{"config", "locales", "*.json"}, KindWidgetConfigSnippets},
}

// widgetInstanceRules match tokens after widget/<name>/instances/<iname>/.
var widgetInstanceRules = []rule{
	{[]string{"display.template"}, KindWidgetInstanceTemplate},
	{[]string{"widget.less"}, KindWidgetInstanceLess},
	{[]string{"widgetInstanceMetadata.json"}, KindWidgetInstanceMetadata},
	{[]string{"elementInstancesMetadata.json"}, KindWidgetElementInstancesMetadata},
	{[]string{"locales", "*", "*.json"}, KindWidgetInstanceSnippets},
}

// widgetElementRules match tokens after widget/<name>/element/<tag>/.
var widgetElementRules = []rule{
	{[]string{"templates", "template.txt"}, KindWidgetElementTemplate},
	{[]string{"js", "element.js"}, KindWidgetElementJS},
	{[]string{"elementMetadata.json"}, KindWidgetElementMetadata},
}

// stackBaseRules match tokens after stack/<name>/.
var stackBaseRules = []rule{
	{[]string{"stack.template"}, KindStackTemplate},
	{[]string{"stack.less"}, KindStackLess},
	{[]string{"stack-variables.less"}, KindStackVariablesLess},
	{[]string{"stackMetadata.json"}, KindStackMetadata},
}

// stackInstanceRules match tokens after stack/<name>/instances/<iname>/.
var stackInstanceRules = []rule{
	{[]string{"stack.template"}, KindStackInstanceTemplate},
	{[]string{"stack.less"}, KindStackInstanceLess},
	{[]string{"stack-variables.less"}, KindStackInstanceVariablesLess},
	{[]string{"stackInstanceMetadata.json"}, KindStackInstanceMetadata},
}

// globalElementRules match tokens after element/<tag>/.
var globalElementRules = []rule{
	{[]string{"templates", "template.txt"}, KindGlobalElementTemplate},
	{[]string{"js", "element.js"}, KindGlobalElementJS},
	{[]string{"elementMetadata.json"}, KindGlobalElementMetadata},
}

// themeRules match tokens after theme/<name>/.
var themeRules = []rule{
	{[]string{"styles.less"}, KindThemeStyles},
	{[]string{"additionalStyles.less"}, KindThemeAdditionalStyles},
	{[]string{"variables.less"}, KindThemeVariables},
}

// matchRules returns the kind of the first rule whose pattern matches
// toks exactly, or KindUnknown.
func matchRules(rules []rule, toks []string) Kind {
	for _, r := range rules {
		if matchPattern(r.pattern, toks) {
			return r.kind
		}
	}

	return KindUnknown
}

func matchPattern(pattern, toks []string) bool {
	if len(pattern) != len(toks) {
		return false
	}

	for i, p := range pattern {
		switch {
		case p == "*":
			// any single token
		case strings.HasPrefix(p, "*."):
			if !strings.HasSuffix(toks[i], p[1:]) {
				return false
			}
		default:
			if p != toks[i] {
				return false
			}
		}
	}

	return true
}

// Classifier maps paths in a tracked tree to asset kinds.
type Classifier struct {
	base  string
	isDir func(string) bool
}

// NewClassifier creates a classifier for the tree rooted at base. The
// filesystem is consulted only to disambiguate directory-shaped paths
// from files where token count alone is insufficient.
func NewClassifier(base string) *Classifier {
	return &Classifier{
		base:  filepath.Clean(base),
		isDir: statIsDir,
	}
}

// statIsDir reports whether path is a directory. Paths that do not
// exist yet are treated as directories: classification of a path being
// created must not depend on creation order.
func statIsDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return true
	}

	return info.IsDir()
}

// Tokens splits path into slash-separated tokens relative to base.
// Absolute paths outside base yield nil, as do empty paths.
func Tokens(base, path string) []string {
	cleaned := filepath.Clean(path)
	if filepath.IsAbs(cleaned) {
		rel, err := filepath.Rel(filepath.Clean(base), cleaned)
		if err != nil || strings.HasPrefix(rel, "..") {
			return nil
		}

		cleaned = rel
	}

	if cleaned == "" || cleaned == "." {
		return nil
	}

	return strings.Split(filepath.ToSlash(cleaned), "/")
}

// Classify returns the asset kind for path, which may be absolute or
// relative to the tracked base. Paths outside every recognized shape
// yield KindUnknown.
func (c *Classifier) Classify(path string) Kind {
	toks := Tokens(c.base, path)
	if len(toks) == 0 {
		return KindUnknown
	}

	switch toks[0] {
	case widgetRoot:
		return c.classifyWidget(toks[1:])
	case stackRoot:
		return c.classifyStack(toks[1:])
	case elementRoot:
		return classifyEntity(toks[1:], KindGlobalElementsDirectory, KindGlobalElement, globalElementRules)
	case themeRoot:
		return classifyEntity(toks[1:], KindThemesDirectory, KindTheme, themeRules)
	case snippetsRoot:
		return c.classifySnippets(toks[1:])
	case globalRoot:
		return classifyAppLevel(toks[1:])
	}

	return KindUnknown
}

// classifyWidget handles tokens after the widget family root. The
// instances, element and module segments each switch to their own rule
// set; everything else goes through the base table.
func (c *Classifier) classifyWidget(toks []string) Kind {
	if len(toks) == 0 {
		return KindWidgetsDirectory
	}

	if len(toks) == 1 {
		return KindWidget
	}

	body := toks[1:]

	switch body[0] {
	case instancesSegment:
		if len(body) < 2 {
			return KindUnknown
		}

		if len(body) == 2 {
			return KindWidgetInstance
		}

		return matchRules(widgetInstanceRules, body[2:])

	case elementSegment:
		if len(body) < 2 {
			return KindUnknown
		}

		if len(body) == 2 {
			return KindWidgetElement
		}

		return matchRules(widgetElementRules, body[2:])

	case moduleSegment:
		if matchPattern([]string{moduleSegment, "js", "*.js"}, body) {
			return KindWidgetModuleJS
		}

		return KindUnknown
	}

	return matchRules(widgetBaseRules, body)
}

// classifyStack mirrors classifyWidget without element or module rules.
func (c *Classifier) classifyStack(toks []string) Kind {
	if len(toks) == 0 {
		return KindStacksDirectory
	}

	if len(toks) == 1 {
		return KindStack
	}

	body := toks[1:]

	if body[0] == instancesSegment {
		if len(body) < 2 {
			return KindUnknown
		}

		if len(body) == 2 {
			return KindStackInstance
		}

		return matchRules(stackInstanceRules, body[2:])
	}

	return matchRules(stackBaseRules, body)
}

// classifyEntity covers the simple families (global elements, themes):
// bare root is the directory marker, root+name the bare entity, deeper
// paths go through the family rule table.
func classifyEntity(toks []string, dirKind, entityKind Kind, rules []rule) Kind {
	if len(toks) == 0 {
		return dirKind
	}

	if len(toks) == 1 {
		return entityKind
	}

	return matchRules(rules, toks[1:])
}

// classifySnippets handles the global snippets tree. A single trailing
// segment is a locale directory only when it is directory-shaped; a
// stray file directly under snippets/ is unclassifiable.
func (c *Classifier) classifySnippets(toks []string) Kind {
	switch len(toks) {
	case 0:
		return KindGlobalSnippetsDirectory
	case 1:
		if c.isDir(filepath.Join(c.base, snippetsRoot, toks[0])) {
			return KindGlobalSnippetsLocaleDirectory
		}

		return KindUnknown
	case 2:
		if strings.HasSuffix(toks[1], ".json") {
			return KindGlobalSnippets
		}
	}

	return KindUnknown
}

// classifyAppLevel handles application-level JavaScript under global/.
func classifyAppLevel(toks []string) Kind {
	switch len(toks) {
	case 0:
		return KindAppLevelJSDirectory
	case 1:
		if strings.HasSuffix(toks[0], ".js") {
			return KindAppLevelJS
		}
	}

	return KindUnknown
}
