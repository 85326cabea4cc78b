package plugins

import (
	"os"
	"path/filepath"

	"github.com/c3ho/tutor/pkg/errors"
)

// LoadLocal builds a registry from plugin directories under dir, enabling
// them in the order given by enabled. Each plugin unpacks as:
//
//	<dir>/<name>/templates/<name>/<category>/...   template root
//	<dir>/<name>/patches/<location>                one patch fragment per file
//
// The templates directory nests the plugin name so template logical paths
// carry the plugin prefix, keeping plugin trees disjoint from the base tree
// and from each other. A name with no matching directory is an error: the
// configuration references a plugin that is not installed.
func LoadLocal(dir string, enabled []string) (*Registry, error) {
	registry := NewRegistry()
	for _, name := range enabled {
		pluginDir := filepath.Join(dir, name)
		info, err := os.Stat(pluginDir)
		if err != nil || !info.IsDir() {
			return nil, errors.Newf(errors.ErrPluginNotFound,
				"plugin '%s' is enabled but not installed under %s", name, dir)
		}

		plugin := InlinePlugin{PluginName: name}
		templatesDir := filepath.Join(pluginDir, "templates")
		if info, err := os.Stat(templatesDir); err == nil && info.IsDir() {
			plugin.Templates = os.DirFS(templatesDir)
		}

		fragments, err := readPatchDir(name, filepath.Join(pluginDir, "patches"))
		if err != nil {
			return nil, err
		}
		plugin.Fragments = fragments

		if err := registry.Enable(plugin); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// readPatchDir loads one patch fragment per file; the file name is the
// patch location.
func readPatchDir(pluginName, dir string) ([]Patch, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, errors.ErrPluginInvalid,
			"failed to read patches for plugin '%s'", pluginName)
	}

	var out []Patch
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrPluginInvalid,
				"failed to read patch '%s' for plugin '%s'", entry.Name(), pluginName)
		}
		out = append(out, Patch{
			Plugin:   pluginName,
			Location: entry.Name(),
			Content:  string(data),
		})
	}
	return out, nil
}
