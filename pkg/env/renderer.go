package env

import (
	"path"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/c3ho/tutor/pkg/logging"
	"github.com/c3ho/tutor/pkg/paths"
	"github.com/c3ho/tutor/pkg/plugins"
)

// Renderer is the engine façade: it renders single strings, named
// templates, and whole template trees, writing tree output through a
// Materializer. Environments are obtained from an internal cache keyed by
// the enabled plugin set, so enabling or disabling a plugin transparently
// rebuilds the template view on the next render.
type Renderer struct {
	baseRoots    []Root
	ignore       []string
	registry     *plugins.Registry
	cache        *Cache
	materializer *Materializer
	logger       zerolog.Logger
}

// NewRenderer creates a renderer over the built-in base template tree,
// writing output through target.
func NewRenderer(registry *plugins.Registry, target afero.Fs) *Renderer {
	return NewRendererWithRoots(registry, target, []Root{BaseRoot()}, []string{PartialsFolder})
}

// NewRendererWithRoots creates a renderer over explicit base roots. Used by
// tests and by callers layering extra template trees over the built-ins.
func NewRendererWithRoots(registry *plugins.Registry, target afero.Fs, baseRoots []Root, ignore []string) *Renderer {
	return &Renderer{
		baseRoots:    baseRoots,
		ignore:       ignore,
		registry:     registry,
		cache:        NewCache(),
		materializer: NewMaterializer(target),
		logger:       logging.GetLogger("env.renderer"),
	}
}

// Environment returns the render environment for the current plugin set,
// building it when the cached one is stale.
func (r *Renderer) Environment() (*Environment, error) {
	return r.cache.Get(r.baseRoots, r.registry, Options{Ignore: r.ignore})
}

// InvalidateCache drops the cached environment.
func (r *Renderer) InvalidateCache() {
	r.cache.Invalidate()
}

// RenderString renders text as a one-off template against config.
func (r *Renderer) RenderString(config map[string]interface{}, text string) (string, error) {
	environment, err := r.Environment()
	if err != nil {
		return "", err
	}
	return environment.RenderString(config, text)
}

// RenderTemplate joins nameParts into a template name, resolves it and
// renders it against config.
func (r *Renderer) RenderTemplate(config map[string]interface{}, nameParts ...string) (string, error) {
	environment, err := r.Environment()
	if err != nil {
		return "", err
	}
	return environment.RenderTemplate(config, path.Join(nameParts...))
}

// SaveAll renders every base template tree into root/env, mirroring logical
// paths. Binary templates are copied verbatim. Re-runs against the same
// root and config produce byte-identical output.
func (r *Renderer) SaveAll(root string, config map[string]interface{}) error {
	environment, err := r.Environment()
	if err != nil {
		return err
	}

	done := logging.LogOperationStart(r.logger, "save-all")
	defer done()

	for _, category := range Categories {
		for name := range environment.Walk(category) {
			artifact, err := r.renderOne(environment, config, name)
			if err != nil {
				return err
			}
			artifact.Path = path.Join(paths.EnvDirName, name)
			if err := r.materializer.Write(root, artifact); err != nil {
				return err
			}
		}
	}
	return nil
}

// SavePluginTemplates renders one enabled plugin's template tree into
// root/env/plugins. Only templates under recognized category subfolders of
// the plugin's root are materialized; loose files directly under the
// plugin folder exist for composition and are never written out.
func (r *Renderer) SavePluginTemplates(p plugins.Plugin, root string, config map[string]interface{}) error {
	if p.TemplateFS() == nil {
		return nil
	}
	environment, err := r.Environment()
	if err != nil {
		return err
	}

	for name := range environment.Walk(p.Name()) {
		if !pluginTemplateIsPublished(p.Name(), name) {
			r.logger.Trace().Str("template", name).Msg("Skipping unpublished plugin template")
			continue
		}
		artifact, err := r.renderOne(environment, config, name)
		if err != nil {
			return err
		}
		artifact.Path = path.Join(paths.EnvDirName, paths.PluginsDirName, name)
		if err := r.materializer.Write(root, artifact); err != nil {
			return err
		}
	}
	return nil
}

// renderOne classifies and renders a single template into an artifact.
func (r *Renderer) renderOne(environment *Environment, config map[string]interface{}, name string) (Artifact, error) {
	data, err := environment.Locator().ReadSource(name)
	if err != nil {
		return Artifact{}, err
	}

	if IsBinary(name) || SniffBinary(data) {
		return Artifact{Path: name, Content: data, Binary: true}, nil
	}

	rendered, err := environment.RenderTemplate(config, name)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Path: name, Content: []byte(rendered)}, nil
}

// pluginTemplateIsPublished applies the plugin layout convention: template
// names look like "<plugin>/<category>/...", and only the recognized
// categories are published.
func pluginTemplateIsPublished(pluginName, name string) bool {
	rel := strings.TrimPrefix(name, pluginName+"/")
	if rel == name {
		return false
	}
	segments := strings.SplitN(rel, "/", 2)
	if len(segments) < 2 {
		// A loose file at the plugin root.
		return false
	}
	return IsCategory(segments[0])
}
