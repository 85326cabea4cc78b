package env

import (
	"testing"
	"testing/fstest"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c3ho/tutor/pkg/errors"
	"github.com/c3ho/tutor/pkg/plugins"
)

var pngHeader = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x01}

func testRenderer(t *testing.T, registry *plugins.Registry) (*Renderer, afero.Fs) {
	t.Helper()

	base := fstest.MapFS{
		"local/docker-compose.yml":                 &fstest.MapFile{Data: []byte("image: {{ DOCKER_IMAGE_OPENEDX }}\n")},
		"apps/openedx/settings/production.py":      &fstest.MapFile{Data: []byte("{% include \"apps/openedx/settings/partials/common.py\" %}\n")},
		"apps/openedx/settings/partials/common.py": &fstest.MapFile{Data: []byte("LMS_HOST = \"{{ LMS_HOST }}\"")},
		"apps/openedx/favicon.png":                 &fstest.MapFile{Data: pngHeader},
		"hooks/mysql/init":                         &fstest.MapFile{Data: []byte("CREATE DATABASE {{ MYSQL_DATABASE }};\n")},
	}
	target := afero.NewMemMapFs()
	renderer := NewRendererWithRoots(registry, target,
		[]Root{{ID: "base", FS: base}}, []string{PartialsFolder})
	return renderer, target
}

func testConfig() map[string]interface{} {
	return map[string]interface{}{
		"DOCKER_IMAGE_OPENEDX": "overhangio/openedx:17.0.0",
		"LMS_HOST":             "www.myopenedx.com",
		"MYSQL_DATABASE":       "openedx",
	}
}

func TestRendererSaveAll(t *testing.T) {
	t.Run("renders every category under root/env", func(t *testing.T) {
		renderer, target := testRenderer(t, plugins.NewRegistry())
		require.NoError(t, renderer.SaveAll("/tutor", testConfig()))

		compose, err := afero.ReadFile(target, "/tutor/env/local/docker-compose.yml")
		require.NoError(t, err)
		assert.Equal(t, "image: overhangio/openedx:17.0.0\n", string(compose))

		hook, err := afero.ReadFile(target, "/tutor/env/hooks/mysql/init")
		require.NoError(t, err)
		assert.Equal(t, "CREATE DATABASE openedx;\n", string(hook))
	})

	t.Run("partials are composed but never materialized", func(t *testing.T) {
		renderer, target := testRenderer(t, plugins.NewRegistry())
		require.NoError(t, renderer.SaveAll("/tutor", testConfig()))

		settings, err := afero.ReadFile(target, "/tutor/env/apps/openedx/settings/production.py")
		require.NoError(t, err)
		assert.Contains(t, string(settings), `LMS_HOST = "www.myopenedx.com"`)

		exists, err := afero.Exists(target, "/tutor/env/apps/openedx/settings/partials/common.py")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("binary templates are copied byte-for-byte", func(t *testing.T) {
		renderer, target := testRenderer(t, plugins.NewRegistry())
		require.NoError(t, renderer.SaveAll("/tutor", testConfig()))

		data, err := afero.ReadFile(target, "/tutor/env/apps/openedx/favicon.png")
		require.NoError(t, err)
		assert.Equal(t, pngHeader, data)
	})

	t.Run("binary extension wins even over template-like text", func(t *testing.T) {
		base := fstest.MapFS{
			"apps/asset.woff": &fstest.MapFile{Data: []byte("{{ LMS_HOST }}")},
		}
		target := afero.NewMemMapFs()
		renderer := NewRendererWithRoots(plugins.NewRegistry(), target,
			[]Root{{ID: "base", FS: base}}, nil)
		require.NoError(t, renderer.SaveAll("/tutor", map[string]interface{}{}))

		data, err := afero.ReadFile(target, "/tutor/env/apps/asset.woff")
		require.NoError(t, err)
		assert.Equal(t, "{{ LMS_HOST }}", string(data))
	})

	t.Run("write failure surfaces immediately and aborts the pass", func(t *testing.T) {
		base := fstest.MapFS{
			"apps/a.conf": &fstest.MapFile{Data: []byte("a\n")},
			"local/b.yml": &fstest.MapFile{Data: []byte("b\n")},
		}
		backing := afero.NewMemMapFs()
		renderer := NewRendererWithRoots(plugins.NewRegistry(), afero.NewReadOnlyFs(backing),
			[]Root{{ID: "base", FS: base}}, nil)

		err := renderer.SaveAll("/tutor", map[string]interface{}{})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrMaterialize))

		// Nothing after the failed write lands on the target.
		empty, statErr := afero.IsEmpty(backing, "/")
		require.NoError(t, statErr)
		assert.True(t, empty)
	})

	t.Run("re-running produces identical output", func(t *testing.T) {
		renderer, target := testRenderer(t, plugins.NewRegistry())
		require.NoError(t, renderer.SaveAll("/tutor", testConfig()))
		first, err := afero.ReadFile(target, "/tutor/env/local/docker-compose.yml")
		require.NoError(t, err)

		require.NoError(t, renderer.SaveAll("/tutor", testConfig()))
		second, err := afero.ReadFile(target, "/tutor/env/local/docker-compose.yml")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestRendererPluginTemplates(t *testing.T) {
	newPlugin := func() plugins.InlinePlugin {
		return plugins.InlinePlugin{
			PluginName: "minio",
			Templates: fstest.MapFS{
				"minio/apps/minio.conf":    &fstest.MapFile{Data: []byte("host: {{ LMS_HOST }}\n")},
				"minio/build/Dockerfile":   &fstest.MapFile{Data: []byte("FROM minio/minio\n")},
				"minio/notes.txt":          &fstest.MapFile{Data: []byte("loose file\n")},
				"minio/scratch/unused.yml": &fstest.MapFile{Data: []byte("unrecognized category\n")},
			},
		}
	}

	t.Run("publishes templates under recognized categories", func(t *testing.T) {
		registry := plugins.NewRegistry()
		require.NoError(t, registry.Enable(newPlugin()))
		renderer, target := testRenderer(t, registry)

		p, err := registry.Get("minio")
		require.NoError(t, err)
		require.NoError(t, renderer.SavePluginTemplates(p, "/tutor", testConfig()))

		conf, err := afero.ReadFile(target, "/tutor/env/plugins/minio/apps/minio.conf")
		require.NoError(t, err)
		assert.Equal(t, "host: www.myopenedx.com\n", string(conf))

		dockerfile, err := afero.ReadFile(target, "/tutor/env/plugins/minio/build/Dockerfile")
		require.NoError(t, err)
		assert.Equal(t, "FROM minio/minio\n", string(dockerfile))
	})

	t.Run("loose files and unknown categories are never written", func(t *testing.T) {
		registry := plugins.NewRegistry()
		require.NoError(t, registry.Enable(newPlugin()))
		renderer, target := testRenderer(t, registry)

		p, err := registry.Get("minio")
		require.NoError(t, err)
		require.NoError(t, renderer.SavePluginTemplates(p, "/tutor", testConfig()))

		for _, path := range []string{
			"/tutor/env/plugins/minio/notes.txt",
			"/tutor/env/plugins/minio/scratch/unused.yml",
		} {
			exists, err := afero.Exists(target, path)
			require.NoError(t, err)
			assert.False(t, exists, path)
		}
	})

	t.Run("plugin without templates is a no-op", func(t *testing.T) {
		registry := plugins.NewRegistry()
		require.NoError(t, registry.Enable(plugins.InlinePlugin{PluginName: "bare"}))
		renderer, _ := testRenderer(t, registry)

		p, err := registry.Get("bare")
		require.NoError(t, err)
		assert.NoError(t, renderer.SavePluginTemplates(p, "/tutor", testConfig()))
	})
}

func TestRendererShadowing(t *testing.T) {
	// A plugin shadowing a base template changes what SaveAll writes, and
	// enabling it mid-flight invalidates the cached environment.
	registry := plugins.NewRegistry()
	renderer, target := testRenderer(t, registry)

	require.NoError(t, renderer.SaveAll("/tutor", testConfig()))
	before, err := afero.ReadFile(target, "/tutor/env/local/docker-compose.yml")
	require.NoError(t, err)
	assert.Contains(t, string(before), "overhangio/openedx")

	require.NoError(t, registry.Enable(plugins.InlinePlugin{
		PluginName: "override",
		Templates: fstest.MapFS{
			"local/docker-compose.yml": &fstest.MapFile{Data: []byte("image: custom\n")},
		},
	}))

	require.NoError(t, renderer.SaveAll("/tutor", testConfig()))
	after, err := afero.ReadFile(target, "/tutor/env/local/docker-compose.yml")
	require.NoError(t, err)
	assert.Equal(t, "image: custom\n", string(after))
}

func TestRendererRenderTemplate(t *testing.T) {
	renderer, _ := testRenderer(t, plugins.NewRegistry())

	out, err := renderer.RenderTemplate(testConfig(), "local", "docker-compose.yml")
	require.NoError(t, err)
	assert.Equal(t, "image: overhangio/openedx:17.0.0\n", out)
}

func TestPluginTemplateIsPublished(t *testing.T) {
	assert.True(t, pluginTemplateIsPublished("minio", "minio/apps/minio.conf"))
	assert.True(t, pluginTemplateIsPublished("minio", "minio/build/a/b/Dockerfile"))
	assert.False(t, pluginTemplateIsPublished("minio", "minio/notes.txt"))
	assert.False(t, pluginTemplateIsPublished("minio", "minio/scratch/x.yml"))
	assert.False(t, pluginTemplateIsPublished("minio", "other/apps/x.yml"))
}
