// Package env implements the template resolution and rendering engine:
// multi-root template lookup with shadowing, plugin template overlays,
// patch extension points, environment caching keyed by the enabled plugin
// set, and materialization of rendered trees under <root>/env.
package env

import (
	"io/fs"
	"iter"
	"path"
	"sort"
	"strings"

	"github.com/c3ho/tutor/pkg/errors"
	"github.com/c3ho/tutor/pkg/logging"
	"github.com/rs/zerolog"
)

// Root is one directory tree searched for templates. ID must be stable for
// the life of the process: it feeds the environment cache fingerprint.
type Root struct {
	ID string
	FS fs.FS
}

// Source identifies the concrete file a template name resolved to.
type Source struct {
	Root Root
	Name string
}

// Locator resolves logical template names against an ordered list of roots.
// Later roots shadow earlier ones on name collision.
type Locator struct {
	roots  []Root
	ignore []string
	logger zerolog.Logger
}

// NewLocator creates a locator over roots. Any path segment matching one of
// the ignore folder names is excluded from tree walks but stays resolvable
// by direct lookup, so templates can include partials that are never
// independently materialized.
func NewLocator(roots []Root, ignore []string) *Locator {
	return &Locator{
		roots:  roots,
		ignore: ignore,
		logger: logging.GetLogger("env.locator"),
	}
}

// Resolve returns the concrete source for a template name, searching roots
// in reverse declared order so the last registered root wins.
func (l *Locator) Resolve(name string) (Source, error) {
	for i := len(l.roots) - 1; i >= 0; i-- {
		root := l.roots[i]
		if root.FS == nil {
			continue
		}
		if info, err := fs.Stat(root.FS, name); err == nil && !info.IsDir() {
			return Source{Root: root, Name: name}, nil
		}
	}
	return Source{}, errors.Newf(errors.ErrTemplateNotFound,
		"template '%s' could not be found in any template root", name).
		WithDetail("template", name)
}

// ReadSource resolves a template name and returns its raw bytes.
func (l *Locator) ReadSource(name string) ([]byte, error) {
	src, err := l.Resolve(name)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(src.Root.FS, src.Name)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTemplateNotFound,
			"template '%s' resolved but could not be read", name)
	}
	return data, nil
}

// Walk returns a restartable sequence of every template name under prefix,
// de-duplicated across roots, in lexical order. Names containing an ignored
// folder segment are skipped.
func (l *Locator) Walk(prefix string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, name := range l.list(prefix, false) {
			if !yield(name) {
				return
			}
		}
	}
}

// ListTemplates returns every template name visible to the locator,
// including those inside ignored folders. This is the raw loader view;
// tree-walk callers should use Walk instead.
func (l *Locator) ListTemplates() []string {
	return l.list("", true)
}

func (l *Locator) list(prefix string, includeIgnored bool) []string {
	seen := make(map[string]struct{})
	for _, root := range l.roots {
		if root.FS == nil {
			continue
		}
		err := fs.WalkDir(root.FS, ".", func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				// A root missing the walked subtree is not an error:
				// plugin roots routinely lack whole categories.
				return fs.SkipDir
			}
			if d.IsDir() {
				return nil
			}
			if prefix != "" && p != prefix && !strings.HasPrefix(p, prefix+"/") {
				return nil
			}
			if !includeIgnored && l.isIgnored(p) {
				return nil
			}
			seen[p] = struct{}{}
			return nil
		})
		if err != nil {
			l.logger.Warn().Err(err).Str("root", root.ID).Msg("Failed to walk template root")
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// isIgnored reports whether any segment of a logical path matches a
// configured ignore folder. The final segment is the file itself and is
// never matched.
func (l *Locator) isIgnored(name string) bool {
	if len(l.ignore) == 0 {
		return false
	}
	dir := path.Dir(name)
	for dir != "." && dir != "/" {
		base := path.Base(dir)
		for _, folder := range l.ignore {
			if base == folder {
				return true
			}
		}
		dir = path.Dir(dir)
	}
	return false
}
