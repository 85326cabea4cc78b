package env

import (
	stderrors "errors"
	"iter"
	"sort"
	"strings"

	mj "github.com/mitsuhiko/minijinja/minijinja-go/v2"
	mjval "github.com/mitsuhiko/minijinja/minijinja-go/v2/value"
	"github.com/rs/zerolog"

	"github.com/c3ho/tutor/pkg/errors"
	"github.com/c3ho/tutor/pkg/logging"
)

// stringTemplateName is the synthetic name under which one-off string
// templates are compiled.
const stringTemplateName = "<string>"

// Options configure a render environment. Roots and Ignore are fixed for
// the environment's lifetime; the render context is passed per call.
type Options struct {
	// Roots are the template roots in precedence order (last wins).
	Roots []Root

	// Ignore lists folder names excluded from tree enumeration.
	Ignore []string

	// Patches supplies plugin patch fragments to the patch() function.
	// May be nil, in which case every location renders empty.
	Patches PatchSource

	// Globals are read-only configuration-derived values available to
	// every template underneath the per-call context.
	Globals map[string]interface{}
}

// Environment is a compiled, reusable rendering context bound to a fixed
// set of template roots and exposed globals. One environment renders many
// (context, template) pairs.
type Environment struct {
	locator *Locator
	jinja   *mj.Environment
	opts    Options
	exposed map[string]struct{}
	broken  map[string]error
	logger  zerolog.Logger
}

// New compiles a render environment: it wires the locator over the given
// roots, registers the patch() function and common_domain filter, and loads
// every resolvable text template.
func New(opts Options) (*Environment, error) {
	e := &Environment{
		locator: NewLocator(opts.Roots, opts.Ignore),
		opts:    opts,
		broken:  make(map[string]error),
		logger:  logging.GetLogger("env.environment"),
	}
	e.jinja, e.exposed = newJinja(opts.Patches)

	for _, name := range e.locator.ListTemplates() {
		if IsBinary(name) {
			continue
		}
		data, err := e.locator.ReadSource(name)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrEnvironmentBuild,
				"failed to load template '%s'", name)
		}
		if SniffBinary(data) {
			continue
		}
		if err := e.jinja.AddTemplate(name, string(data)); err != nil {
			// A syntax error in one template must not poison renders of
			// unrelated templates. Surface it when this name is rendered.
			e.broken[name] = errors.Wrapf(err, errors.ErrTemplateRender,
				"template '%s' failed to compile", name)
			e.logger.Warn().Err(err).Str("template", name).Msg("Template failed to compile")
		}
	}

	e.logger.Debug().
		Int("roots", len(opts.Roots)).
		Int("templates", len(e.locator.ListTemplates())).
		Msg("Render environment built")
	return e, nil
}

// newJinja constructs the underlying engine with strict-undefined semantics
// and the exposed globals/filters. The returned set holds the names visible
// to templates without appearing in the render context.
func newJinja(patches PatchSource) (*mj.Environment, map[string]struct{}) {
	jinja := mj.NewEnvironment()
	jinja.SetUndefinedBehavior(mj.UndefinedStrict)

	jinja.AddFunction("patch", func(state *mj.State, args []mj.Value, kwargs map[string]mj.Value) (mj.Value, error) {
		if len(args) < 1 {
			return mjval.Undefined(), errors.New(errors.ErrInvalidInput, "patch() requires a location argument")
		}
		location, ok := args[0].AsString()
		if !ok {
			return mjval.Undefined(), errors.New(errors.ErrInvalidInput, "patch() location must be a string")
		}
		separator, err := kwargString(kwargs, "separator", "\n")
		if err != nil {
			return mjval.Undefined(), err
		}
		suffix, err := kwargString(kwargs, "suffix", "")
		if err != nil {
			return mjval.Undefined(), err
		}

		if patches == nil {
			return mjval.FromSafeString(""), nil
		}
		return mjval.FromSafeString(JoinPatches(patches.Collect(location), separator, suffix)), nil
	})

	jinja.AddFilter("common_domain", func(state mj.FilterState, value mj.Value, args []mj.Value, kwargs map[string]mj.Value) (mj.Value, error) {
		a, ok := value.AsString()
		if !ok {
			return mjval.Undefined(), errors.New(errors.ErrInvalidInput, "common_domain input must be a string")
		}
		if len(args) < 1 {
			return mjval.Undefined(), errors.New(errors.ErrInvalidInput, "common_domain requires a domain argument")
		}
		b, ok := args[0].AsString()
		if !ok {
			return mjval.Undefined(), errors.New(errors.ErrInvalidInput, "common_domain argument must be a string")
		}
		return mjval.FromString(commonDomain(a, b)), nil
	})

	exposed := map[string]struct{}{
		"patch": {},
	}
	return jinja, exposed
}

// RenderTemplate resolves a template name and renders it with the given
// configuration mapping.
func (e *Environment) RenderTemplate(config map[string]interface{}, name string) (string, error) {
	if err, ok := e.broken[name]; ok {
		return "", err
	}

	tmpl, err := e.jinja.GetTemplate(name)
	if err != nil {
		// Distinguish unknown names from engine-side failures.
		if _, rerr := e.locator.Resolve(name); rerr != nil {
			return "", rerr
		}
		return "", errors.Wrapf(err, errors.ErrTemplateRender,
			"failed to load template '%s'", name)
	}

	ctx := e.renderContext(config)
	if err := e.checkMissing(tmpl, ctx); err != nil {
		return "", err
	}

	out, err := tmpl.Render(ctx)
	if err != nil {
		return "", e.wrapRenderError(name, err)
	}
	return out, nil
}

// RenderString compiles text as a one-off template and renders it with the
// given configuration mapping. The scratch environment shares the exposed
// globals and filters but is not tree-aware.
func (e *Environment) RenderString(config map[string]interface{}, text string) (string, error) {
	jinja, _ := newJinja(e.opts.Patches)
	if err := jinja.AddTemplate(stringTemplateName, text); err != nil {
		return "", errors.Wrap(err, errors.ErrTemplateRender, "string template failed to compile")
	}
	tmpl, err := jinja.GetTemplate(stringTemplateName)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrTemplateRender, "string template failed to load")
	}

	ctx := e.renderContext(config)
	if err := e.checkMissing(tmpl, ctx); err != nil {
		return "", err
	}

	out, err := tmpl.Render(ctx)
	if err != nil {
		return "", e.wrapRenderError(stringTemplateName, err)
	}
	return out, nil
}

// Walk enumerates template names under prefix, ignore folders excluded.
func (e *Environment) Walk(prefix string) iter.Seq[string] {
	return e.locator.Walk(prefix)
}

// ListTemplates returns the raw loader view, ignored folders included.
func (e *Environment) ListTemplates() []string {
	return e.locator.ListTemplates()
}

// Locator exposes the environment's template locator.
func (e *Environment) Locator() *Locator {
	return e.locator
}

// renderContext layers the per-call configuration over the environment's
// globals. Context keys shadow globals.
func (e *Environment) renderContext(config map[string]interface{}) map[string]interface{} {
	ctx := make(map[string]interface{}, len(e.opts.Globals)+len(config))
	for k, v := range e.opts.Globals {
		ctx[k] = v
	}
	for k, v := range config {
		ctx[k] = v
	}
	return ctx
}

// checkMissing fails with MISSING_CONFIGURATION when the template references
// a top-level variable that is neither in the context nor an exposed global.
func (e *Environment) checkMissing(tmpl *mj.Template, ctx map[string]interface{}) error {
	var missing []string
	for _, name := range tmpl.UndeclaredVariables(false) {
		if _, ok := ctx[name]; ok {
			continue
		}
		if _, ok := e.exposed[name]; ok {
			continue
		}
		missing = append(missing, name)
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return errors.Newf(errors.ErrMissingConfig,
		"missing configuration value: %s", missing[0]).
		WithDetail("key", missing[0])
}

// wrapRenderError classifies an engine failure: strict-undefined errors from
// included templates become MISSING_CONFIGURATION, everything else surfaces
// as a render failure.
func (e *Environment) wrapRenderError(name string, err error) error {
	var engineErr *mj.Error
	if stderrors.As(err, &engineErr) && engineErr.Kind == mj.ErrUndefinedVar {
		return errors.Wrapf(err, errors.ErrMissingConfig,
			"template '%s' references a missing configuration value", name)
	}
	return errors.Wrapf(err, errors.ErrTemplateRender,
		"failed to render template '%s'", name)
}

func kwargString(kwargs map[string]mj.Value, key, fallback string) (string, error) {
	v, ok := kwargs[key]
	if !ok {
		return fallback, nil
	}
	s, ok := v.AsString()
	if !ok {
		return "", errors.Newf(errors.ErrInvalidInput, "patch() %s must be a string", key)
	}
	return s, nil
}

// commonDomain returns the longest shared dotted-label suffix of two domain
// names: commonDomain("d1.mydomain.com", "d2.mydomain.com") == "mydomain.com".
// Labels are compared from the right; the empty string means no labels match.
func commonDomain(a, b string) string {
	la := strings.Split(a, ".")
	lb := strings.Split(b, ".")

	var shared []string
	for i, j := len(la)-1, len(lb)-1; i >= 0 && j >= 0; i, j = i-1, j-1 {
		if la[i] != lb[j] {
			break
		}
		shared = append([]string{la[i]}, shared...)
	}
	return strings.Join(shared, ".")
}
