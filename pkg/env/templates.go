package env

import (
	"embed"
	"io/fs"
)

//go:embed templates
var embeddedTemplates embed.FS

// PartialsFolder is the folder name holding shared template fragments.
// Its contents are composed into other templates but never independently
// materialized.
const PartialsFolder = "partials"

// Categories are the recognized top-level template categories. They drive
// base-tree materialization and double as the allow-list for plugin
// template subfolders: a plugin file outside these categories is
// enumerable but never written to the target tree.
var Categories = []string{"apps", "build", "hooks", "k8s", "local"}

// BaseRoot returns the built-in template tree shipped with the binary.
func BaseRoot() Root {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		// embed paths are fixed at compile time
		panic(err)
	}
	return Root{ID: "base", FS: sub}
}

// IsCategory reports whether name is a recognized template category.
func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}
