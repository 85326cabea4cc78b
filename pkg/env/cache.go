package env

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/c3ho/tutor/pkg/logging"
	"github.com/c3ho/tutor/pkg/plugins"
	"github.com/rs/zerolog"
)

// Cache holds the current render environment keyed by a fingerprint of the
// inputs that determine its identity: base roots plus the enabled plugin
// set in enable order. Two configurations with equal fingerprints share one
// environment; a fingerprint change replaces the cached entry so stale
// template listings can never leak across renders.
//
// Lookup-or-build is guarded by a mutex: concurrent Get calls with the same
// fingerprint observe a single build.
type Cache struct {
	mu          sync.Mutex
	fingerprint string
	env         *Environment
	logger      zerolog.Logger
}

// NewCache creates an empty environment cache. Tests should construct their
// own instance rather than sharing one across cases.
func NewCache() *Cache {
	return &Cache{
		logger: logging.GetLogger("env.cache"),
	}
}

// Fingerprint derives the cache key from the base roots and the registry's
// enabled plugins, in enable order.
func Fingerprint(baseRoots []Root, registry *plugins.Registry) string {
	h := sha256.New()
	for _, root := range baseRoots {
		fmt.Fprintf(h, "root:%s\n", root.ID)
	}
	if registry != nil {
		for _, name := range registry.Names() {
			fmt.Fprintf(h, "plugin:%s\n", name)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached environment when the fingerprint still matches,
// else builds a replacement wired with the base roots plus one root per
// enabled plugin, in enable order.
func (c *Cache) Get(baseRoots []Root, registry *plugins.Registry, opts Options) (*Environment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fingerprint := Fingerprint(baseRoots, registry)
	if c.env != nil && c.fingerprint == fingerprint {
		return c.env, nil
	}

	roots := make([]Root, 0, len(baseRoots))
	roots = append(roots, baseRoots...)
	if registry != nil {
		for _, p := range registry.Enabled() {
			if p.TemplateFS() == nil {
				continue
			}
			roots = append(roots, Root{ID: "plugin:" + p.Name(), FS: p.TemplateFS()})
		}
		if opts.Patches == nil {
			opts.Patches = NewPatches(registry)
		}
	}
	opts.Roots = roots

	environment, err := New(opts)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("fingerprint", fingerprint[:12]).
		Bool("replaced", c.env != nil).
		Msg("Render environment cached")
	c.fingerprint = fingerprint
	c.env = environment
	return environment, nil
}

// Invalidate drops the cached environment; the next Get rebuilds.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.fingerprint = ""
	c.env = nil
}
