package main

import (
	"github.com/spf13/afero"

	"github.com/c3ho/tutor/pkg/config"
	"github.com/c3ho/tutor/pkg/env"
	"github.com/c3ho/tutor/pkg/paths"
	"github.com/c3ho/tutor/pkg/plugins"
)

// runtime bundles the collaborators a rendering command needs: the merged
// configuration, the enabled-plugin registry derived from it, and the
// renderer wired to the real filesystem.
type runtime struct {
	config   map[string]interface{}
	registry *plugins.Registry
	renderer *env.Renderer
}

// loadRuntime loads the merged configuration, enables the plugins it
// names, and resolves template-valued configuration entries.
func loadRuntime(root string) (*runtime, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, err
	}

	registry, err := plugins.LoadLocal(paths.PluginsDir(root), enabledPlugins(cfg))
	if err != nil {
		return nil, err
	}

	renderer := env.NewRenderer(registry, afero.NewOsFs())
	if err := config.RenderValues(cfg, renderer.RenderString); err != nil {
		return nil, err
	}

	return &runtime{config: cfg, registry: registry, renderer: renderer}, nil
}

// renderEnv materializes the base trees and every enabled plugin's tree
// under root/env.
func (rt *runtime) renderEnv(root string) error {
	if err := rt.renderer.SaveAll(root, rt.config); err != nil {
		return err
	}
	for _, p := range rt.registry.Enabled() {
		if err := rt.renderer.SavePluginTemplates(p, root, rt.config); err != nil {
			return err
		}
	}
	return nil
}

// enabledPlugins extracts the PLUGINS list from a configuration mapping.
func enabledPlugins(cfg map[string]interface{}) []string {
	raw, ok := cfg["PLUGINS"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		if name, ok := entry.(string); ok {
			out = append(out, name)
		}
	}
	return out
}
