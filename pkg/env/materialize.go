package env

import (
	"io/fs"
	"path/filepath"

	"github.com/c3ho/tutor/pkg/errors"
	"github.com/c3ho/tutor/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Artifact is one rendered or raw-copied output file. It has no identity
// beyond its destination path within a single materialization pass.
type Artifact struct {
	// Path is the destination path relative to the materialization root.
	Path string

	// Content is the full file content.
	Content []byte

	// Binary marks content that was copied verbatim rather than rendered.
	Binary bool
}

// Materializer writes artifacts under a destination root, creating
// intermediate directories as needed. The first I/O failure aborts the
// pass: partial-success semantics belong to a higher layer.
type Materializer struct {
	fs     afero.Fs
	logger zerolog.Logger
}

// NewMaterializer creates a materializer writing through the given
// filesystem.
func NewMaterializer(fsys afero.Fs) *Materializer {
	return &Materializer{
		fs:     fsys,
		logger: logging.GetLogger("env.materializer"),
	}
}

// Write stores one artifact at root/<artifact path>.
func (m *Materializer) Write(root string, artifact Artifact) error {
	dst := filepath.Join(root, filepath.FromSlash(artifact.Path))

	if err := m.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrapf(err, errors.ErrMaterialize,
			"failed to create directory for '%s'", dst)
	}

	var perm fs.FileMode = 0o644
	if err := afero.WriteFile(m.fs, dst, artifact.Content, perm); err != nil {
		return errors.Wrapf(err, errors.ErrMaterialize,
			"failed to write '%s'", dst)
	}

	m.logger.Debug().
		Str("path", dst).
		Int("bytes", len(artifact.Content)).
		Bool("binary", artifact.Binary).
		Msg("Materialized artifact")
	return nil
}
