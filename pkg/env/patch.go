package env

import (
	"strings"

	"github.com/c3ho/tutor/pkg/logging"
	"github.com/c3ho/tutor/pkg/plugins"
	"github.com/rs/zerolog"
)

// PatchSource yields the fragments contributed for a patch location, in the
// order they must be joined.
type PatchSource interface {
	Collect(location string) []plugins.Patch
}

// Patches aggregates patch fragments from a plugin registry. Fragment order
// follows the registry's enable order, which is part of the observable
// contract.
type Patches struct {
	registry *plugins.Registry
	logger   zerolog.Logger
}

// NewPatches creates a patch aggregator over a plugin registry.
func NewPatches(registry *plugins.Registry) *Patches {
	return &Patches{
		registry: registry,
		logger:   logging.GetLogger("env.patches"),
	}
}

// Collect returns all fragments enabled plugins contribute for location.
func (p *Patches) Collect(location string) []plugins.Patch {
	var out []plugins.Patch
	for _, plugin := range p.registry.Enabled() {
		for _, patch := range plugin.Patches() {
			if patch.Location == location {
				out = append(out, patch)
			}
		}
	}
	p.logger.Trace().
		Str("location", location).
		Int("fragments", len(out)).
		Msg("Collected patch fragments")
	return out
}

// JoinPatches renders a fragment sequence: suffix is appended to each
// fragment, then the results are joined with separator.
func JoinPatches(fragments []plugins.Patch, separator, suffix string) string {
	parts := make([]string, len(fragments))
	for i, f := range fragments {
		parts[i] = f.Content + suffix
	}
	return strings.Join(parts, separator)
}
