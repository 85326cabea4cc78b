package plugins

import (
	"sync"

	"github.com/c3ho/tutor/pkg/errors"
)

// Registry tracks enabled plugins in enable order. Iteration order is the
// order in which plugins were enabled, never alphabetical: template root
// precedence and patch joining both depend on it.
type Registry struct {
	mu      sync.RWMutex
	byName  map[string]Plugin
	ordered []string
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Plugin),
	}
}

// Enable adds a plugin at the end of the enable order.
func (r *Registry) Enable(p Plugin) error {
	if p == nil || p.Name() == "" {
		return errors.New(errors.ErrInvalidInput, "plugin name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.byName[name]; exists {
		return errors.Newf(errors.ErrPluginInvalid, "plugin '%s' is already enabled", name)
	}

	r.byName[name] = p
	r.ordered = append(r.ordered, name)
	return nil
}

// Disable removes a plugin from the registry.
func (r *Registry) Disable(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[name]; !exists {
		return errors.Newf(errors.ErrPluginNotFound, "plugin '%s' is not enabled", name)
	}

	delete(r.byName, name)
	for i, n := range r.ordered {
		if n == name {
			r.ordered = append(r.ordered[:i], r.ordered[i+1:]...)
			break
		}
	}
	return nil
}

// Get retrieves an enabled plugin by name.
func (r *Registry) Get(name string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, exists := r.byName[name]
	if !exists {
		return nil, errors.Newf(errors.ErrPluginNotFound, "plugin '%s' is not enabled", name)
	}
	return p, nil
}

// Has reports whether a plugin is enabled.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.byName[name]
	return exists
}

// Enabled returns the enabled plugins in enable order.
func (r *Registry) Enabled() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Plugin, 0, len(r.ordered))
	for _, name := range r.ordered {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns the enabled plugin names in enable order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Count returns the number of enabled plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.ordered)
}
