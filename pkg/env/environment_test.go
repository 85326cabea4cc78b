package env

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c3ho/tutor/pkg/errors"
	"github.com/c3ho/tutor/pkg/plugins"
)

func testEnvironment(t *testing.T, files map[string]string, patches PatchSource) *Environment {
	t.Helper()

	root := fstest.MapFS{}
	for name, content := range files {
		root[name] = &fstest.MapFile{Data: []byte(content)}
	}
	environment, err := New(Options{
		Roots:   []Root{{ID: "base", FS: root}},
		Ignore:  []string{PartialsFolder},
		Patches: patches,
	})
	require.NoError(t, err)
	return environment
}

func TestEnvironmentRenderString(t *testing.T) {
	environment := testEnvironment(t, nil, nil)

	t.Run("renders variables", func(t *testing.T) {
		out, err := environment.RenderString(map[string]interface{}{"NAME": "openedx"}, "hello {{ NAME }}")
		require.NoError(t, err)
		assert.Equal(t, "hello openedx", out)
	})

	t.Run("renders conditionals", func(t *testing.T) {
		cfg := map[string]interface{}{"ENABLE_HTTPS": true, "LMS_HOST": "lms.example.com"}
		out, err := environment.RenderString(cfg, "{% if ENABLE_HTTPS %}https{% else %}http{% endif %}://{{ LMS_HOST }}")
		require.NoError(t, err)
		assert.Equal(t, "https://lms.example.com", out)
	})

	t.Run("missing variable fails with the key name", func(t *testing.T) {
		_, err := environment.RenderString(map[string]interface{}{}, "{{ LMS_HOST }}")
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrMissingConfig))
		assert.Equal(t, "LMS_HOST", errors.GetErrorDetails(err)["key"])
	})

	t.Run("first missing key in sorted order is reported", func(t *testing.T) {
		_, err := environment.RenderString(map[string]interface{}{}, "{{ ZZZ }} {{ AAA }}")
		require.Error(t, err)
		assert.Equal(t, "AAA", errors.GetErrorDetails(err)["key"])
	})

	t.Run("invalid syntax fails with a render error", func(t *testing.T) {
		_, err := environment.RenderString(map[string]interface{}{}, "{% if %}")
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrTemplateRender))
	})
}

func TestEnvironmentCommonDomain(t *testing.T) {
	environment := testEnvironment(t, nil, nil)

	cases := []struct {
		a, b, want string
	}{
		{"www.myopenedx.com", "studio.myopenedx.com", "myopenedx.com"},
		{"lms.a.example.com", "cms.b.example.com", "example.com"},
		{"same.host.com", "same.host.com", "same.host.com"},
		{"one.com", "two.org", ""},
	}
	for _, tc := range cases {
		cfg := map[string]interface{}{"A": tc.a, "B": tc.b}
		out, err := environment.RenderString(cfg, "{{ A|common_domain(B) }}")
		require.NoError(t, err)
		assert.Equal(t, tc.want, out, "%s / %s", tc.a, tc.b)
	}
}

func TestEnvironmentPatchFunction(t *testing.T) {
	registry := plugins.NewRegistry()
	require.NoError(t, registry.Enable(plugins.InlinePlugin{
		PluginName: "minio",
		Fragments:  []plugins.Patch{{Location: "caddyfile", Content: "minio-block"}},
	}))
	require.NoError(t, registry.Enable(plugins.InlinePlugin{
		PluginName: "forum",
		Fragments:  []plugins.Patch{{Location: "caddyfile", Content: "forum-block"}},
	}))

	t.Run("joins fragments in enable order", func(t *testing.T) {
		environment := testEnvironment(t, nil, NewPatches(registry))
		out, err := environment.RenderString(nil, `{{ patch("caddyfile") }}`)
		require.NoError(t, err)
		assert.Equal(t, "minio-block\nforum-block", out)
	})

	t.Run("separator and suffix kwargs", func(t *testing.T) {
		environment := testEnvironment(t, nil, NewPatches(registry))
		out, err := environment.RenderString(nil, `{{ patch("caddyfile", separator=",\n", suffix=";") }}`)
		require.NoError(t, err)
		assert.Equal(t, "minio-block;,\nforum-block;", out)
	})

	t.Run("unmatched location renders empty", func(t *testing.T) {
		environment := testEnvironment(t, nil, NewPatches(registry))
		out, err := environment.RenderString(nil, `[{{ patch("nope") }}]`)
		require.NoError(t, err)
		assert.Equal(t, "[]", out)
	})

	t.Run("nil patch source renders empty", func(t *testing.T) {
		environment := testEnvironment(t, nil, nil)
		out, err := environment.RenderString(nil, `[{{ patch("caddyfile") }}]`)
		require.NoError(t, err)
		assert.Equal(t, "[]", out)
	})
}

func TestEnvironmentRenderTemplate(t *testing.T) {
	files := map[string]string{
		"local/docker-compose.yml":         "image: {{ DOCKER_IMAGE_OPENEDX }}\n",
		"apps/settings/production.py":      "{% include \"apps/settings/partials/common.py\" %}\nDEBUG = False\n",
		"apps/settings/partials/common.py": "PLATFORM_NAME = \"{{ PLATFORM_NAME }}\"",
	}

	t.Run("renders a named template", func(t *testing.T) {
		environment := testEnvironment(t, files, nil)
		out, err := environment.RenderTemplate(map[string]interface{}{
			"DOCKER_IMAGE_OPENEDX": "overhangio/openedx:17.0.0",
		}, "local/docker-compose.yml")
		require.NoError(t, err)
		assert.Equal(t, "image: overhangio/openedx:17.0.0\n", out)
	})

	t.Run("includes resolve against the loader view", func(t *testing.T) {
		environment := testEnvironment(t, files, nil)
		out, err := environment.RenderTemplate(map[string]interface{}{
			"PLATFORM_NAME": "My Open edX",
		}, "apps/settings/production.py")
		require.NoError(t, err)
		assert.Contains(t, out, `PLATFORM_NAME = "My Open edX"`)
		assert.Contains(t, out, "DEBUG = False")
	})

	t.Run("unknown template fails with template not found", func(t *testing.T) {
		environment := testEnvironment(t, files, nil)
		_, err := environment.RenderTemplate(nil, "local/missing.yml")
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrTemplateNotFound))
	})

	t.Run("undefined key inside an include is missing configuration", func(t *testing.T) {
		// The pre-render check only sees the outer template's variables;
		// the engine's strict-undefined failure must classify the same way.
		environment := testEnvironment(t, map[string]string{
			"apps/outer.py":          "{% include \"apps/partials/inner.py\" %}",
			"apps/partials/inner.py": "{{ SECRET_KEY }}",
		}, nil)

		_, err := environment.RenderTemplate(map[string]interface{}{}, "apps/outer.py")
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrMissingConfig))
	})

	t.Run("a broken template does not poison the others", func(t *testing.T) {
		environment := testEnvironment(t, map[string]string{
			"local/good.yml":   "ok: {{ VALUE }}\n",
			"local/broken.yml": "{% if %}\n",
		}, nil)

		out, err := environment.RenderTemplate(map[string]interface{}{"VALUE": 1}, "local/good.yml")
		require.NoError(t, err)
		assert.Equal(t, "ok: 1\n", out)

		_, err = environment.RenderTemplate(nil, "local/broken.yml")
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrTemplateRender))
	})
}

func TestEnvironmentGlobals(t *testing.T) {
	root := fstest.MapFS{}
	environment, err := New(Options{
		Roots:   []Root{{ID: "base", FS: root}},
		Globals: map[string]interface{}{"TUTOR_VERSION": "1.0.0"},
	})
	require.NoError(t, err)

	t.Run("globals are visible to templates", func(t *testing.T) {
		out, err := environment.RenderString(nil, "{{ TUTOR_VERSION }}")
		require.NoError(t, err)
		assert.Equal(t, "1.0.0", out)
	})

	t.Run("context keys shadow globals", func(t *testing.T) {
		out, err := environment.RenderString(map[string]interface{}{"TUTOR_VERSION": "2.0.0"}, "{{ TUTOR_VERSION }}")
		require.NoError(t, err)
		assert.Equal(t, "2.0.0", out)
	})
}
