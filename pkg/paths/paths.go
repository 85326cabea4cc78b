// Package paths centralizes filesystem path handling for tutor: locating
// the project root and mapping logical template names to their rendered
// destinations under <root>/env.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// Environment variable names
const (
	// EnvTutorRoot overrides the project root directory
	EnvTutorRoot = "TUTOR_ROOT"
)

// Directory and file names inside the project root. These are not
// user-configurable: rendered output layout must stay consistent across
// installations.
const (
	// EnvDirName is the directory holding all rendered artifacts
	EnvDirName = "env"

	// PluginsDirName is the subdirectory for plugin-rendered artifacts
	PluginsDirName = "plugins"

	// ConfigFileName is the user configuration file at the project root
	ConfigFileName = "config.yml"
)

// Root returns the project root directory: the explicit argument when
// non-empty, then $TUTOR_ROOT, then the XDG data directory.
func Root(root string) string {
	if root != "" {
		return expandHome(root)
	}
	if env := os.Getenv(EnvTutorRoot); env != "" {
		return expandHome(env)
	}
	return filepath.Join(xdg.DataHome, "tutor")
}

// ConfigFile returns the path of the user configuration file.
func ConfigFile(root string) string {
	return filepath.Join(root, ConfigFileName)
}

// PluginsDir returns the directory holding locally installed plugins.
func PluginsDir(root string) string {
	return filepath.Join(root, PluginsDirName)
}

// EnvPath joins path fragments under the root's env directory:
// EnvPath("/tmp", "local", "docker-compose.yml") -> /tmp/env/local/docker-compose.yml.
func EnvPath(root string, parts ...string) string {
	return filepath.Join(append([]string{root, EnvDirName}, parts...)...)
}

// PluginEnvPath joins path fragments under the env directory reserved for
// one plugin's rendered artifacts.
func PluginEnvPath(root string, parts ...string) string {
	return EnvPath(root, append([]string{PluginsDirName}, parts...)...)
}

func expandHome(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
