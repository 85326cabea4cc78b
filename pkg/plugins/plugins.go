// Package plugins defines the capability contract plugins expose to the
// rendering engine and the registry that tracks which plugins are enabled.
//
// The engine only ever consumes an ordered view: enable order is part of
// the observable contract, both for template root precedence and for the
// order in which patch fragments are joined.
package plugins

import "io/fs"

// Patch is a text fragment a plugin contributes to a named extension point
// inside a template.
type Patch struct {
	// Plugin is the contributing plugin's name.
	Plugin string

	// Location names the extension point the fragment targets.
	Location string

	// Content is the raw fragment text, injected without rendering.
	Content string
}

// Plugin is the capability interface enabled plugins satisfy. Any conforming
// type works; InlinePlugin is the in-memory implementation used by tests
// and built-ins.
type Plugin interface {
	// Name returns the unique plugin name.
	Name() string

	// TemplateFS returns the plugin's template root, or nil when the
	// plugin ships no templates. Template names inside the root are
	// prefixed with the plugin name: "<name>/<category>/...".
	TemplateFS() fs.FS

	// Patches returns the plugin's patch contributions.
	Patches() []Patch
}

// InlinePlugin is a Plugin held entirely in memory.
type InlinePlugin struct {
	PluginName string
	Templates  fs.FS
	Fragments  []Patch
}

func (p InlinePlugin) Name() string { return p.PluginName }

func (p InlinePlugin) TemplateFS() fs.FS { return p.Templates }

func (p InlinePlugin) Patches() []Patch {
	out := make([]Patch, len(p.Fragments))
	for i, f := range p.Fragments {
		f.Plugin = p.PluginName
		out[i] = f
	}
	return out
}
