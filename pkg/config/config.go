// Package config loads and saves the tutor configuration mapping: embedded
// defaults, the user's config.yml at the project root, and TUTOR_*
// environment overrides, merged in that order. The engine consumes the
// merged mapping as an opaque, read-only render context.
package config

import (
	_ "embed"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/c3ho/tutor/pkg/errors"
	"github.com/c3ho/tutor/pkg/paths"
)

//go:embed defaults.yml
var defaultsYAML []byte

// EnvPrefix marks environment variables that override configuration keys:
// TUTOR_LMS_HOST overrides LMS_HOST.
const EnvPrefix = "TUTOR_"

// LoadDefaults returns the embedded default configuration. Some default
// values are themselves templates (for instance CMS_HOST derives from
// LMS_HOST) and must be rendered with RenderValues before templates
// consume them.
func LoadDefaults() (map[string]interface{}, error) {
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: defaultsYAML}, yaml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load default configuration")
	}
	return k.Raw(), nil
}

// LoadCurrent returns the user-supplied configuration stored at the project
// root, or an empty mapping when none exists yet.
func LoadCurrent(root string) (map[string]interface{}, error) {
	path := paths.ConfigFile(root)
	if _, err := os.Stat(path); err != nil {
		return map[string]interface{}{}, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load configuration from %s", path)
	}
	return k.Raw(), nil
}

// Load returns the fully merged configuration: defaults, then config.yml,
// then TUTOR_* environment overrides.
func Load(root string) (map[string]interface{}, error) {
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultsYAML}, yaml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load default configuration")
	}

	path := paths.ConfigFile(root)
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load configuration from %s", path)
		}
	}

	if overrides := envOverrides(); len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to apply environment overrides")
		}
	}

	return k.Raw(), nil
}

// Save writes cfg as YAML to the project root's config.yml, creating the
// root directory when needed. Only keys differing from defaults need to be
// present in cfg; callers usually pass the user-facing subset.
func Save(root string, cfg map[string]interface{}) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return errors.Wrapf(err, errors.ErrConfigSave, "failed to create project root %s", root)
	}

	data, err := yamlv3.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, errors.ErrConfigSave, "failed to serialize configuration")
	}

	path := paths.ConfigFile(root)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, errors.ErrConfigSave, "failed to write %s", path)
	}
	return nil
}

// Merge copies every key of src that is absent from dst. Existing dst keys
// always win: merging defaults under user configuration never overrides
// user choices.
func Merge(dst, src map[string]interface{}) {
	for key, value := range src {
		if _, ok := dst[key]; !ok {
			dst[key] = value
		}
	}
}

// RenderValues renders every string value containing template syntax
// against the full mapping, in one pass over lexically sorted keys.
// Default values may reference other keys (CMS_HOST uses LMS_HOST) but
// must not form chains or cycles.
func RenderValues(cfg map[string]interface{}, render func(map[string]interface{}, string) (string, error)) error {
	keys := make([]string, 0, len(cfg))
	for key := range cfg {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value, ok := cfg[key].(string)
		if !ok || !strings.Contains(value, "{{") {
			continue
		}
		rendered, err := render(cfg, value)
		if err != nil {
			return errors.Wrapf(err, errors.ErrConfigLoad, "failed to render configuration value %s", key)
		}
		cfg[key] = rendered
	}
	return nil
}

// envOverrides collects TUTOR_* environment variables into a configuration
// mapping, parsing booleans and integers so templates see typed values.
func envOverrides() map[string]interface{} {
	out := make(map[string]interface{})
	for _, entry := range os.Environ() {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 || !strings.HasPrefix(parts[0], EnvPrefix) {
			continue
		}
		key := strings.TrimPrefix(parts[0], EnvPrefix)
		if key == "" || key == "ROOT" {
			// TUTOR_ROOT selects the project root, it is not a
			// configuration key.
			continue
		}
		out[key] = parseScalar(parts[1])
	}
	return out
}

func parseScalar(value string) interface{} {
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return int(i)
	}
	return value
}

// rawBytesProvider adapts an in-memory byte slice to the koanf provider
// interface.
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New(errors.ErrInternal, "not implemented")
}
