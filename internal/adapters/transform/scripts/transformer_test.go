package scripts_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/transform/scripts"
	"go.trai.ch/kiln/internal/core/domain"
)

func setupEntry(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"App.js": "import { greet } from './lib/greet.js';\n" +
			"const longVariableName = greet('kiln');\n" +
			"const fallback = window.kiln ?? 'none';\n" +
			"document.title = longVariableName + fallback;\n",
		"lib/greet.js": "export function greet(name) {\n  return `hello ${name}`;\n}\n",
	}
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return root, filepath.Join(root, "App.js")
}

func TestTransform_Development(t *testing.T) {
	root, entry := setupEntry(t)

	out, err := scripts.New().Transform(context.Background(), domain.TransformRequest{
		Class:      domain.Scripts,
		Sources:    []string{entry},
		SourceRoot: root,
		Config:     domain.NewModeConfig(domain.Scripts, domain.Development),
	})
	require.NoError(t, err)
	require.Len(t, out.Files, 1)
	assert.Equal(t, "bundle.js", out.Files[0].Path)

	js := string(out.Files[0].Contents)
	assert.Contains(t, js, "sourceMappingURL=data:")
	assert.Contains(t, js, "longVariableName", "identifiers are kept")
	assert.Contains(t, js, "function greet", "imports are bundled")
	assert.NotContains(t, js, "??", "nullish coalescing is lowered to ES2015")
}

func TestTransform_Production(t *testing.T) {
	root, entry := setupEntry(t)

	out, err := scripts.New().Transform(context.Background(), domain.TransformRequest{
		Class:      domain.Scripts,
		Sources:    []string{entry},
		SourceRoot: root,
		Config:     domain.NewModeConfig(domain.Scripts, domain.Production),
	})
	require.NoError(t, err)
	require.Len(t, out.Files, 1)

	js := string(out.Files[0].Contents)
	assert.NotContains(t, js, "sourceMappingURL")
	assert.NotContains(t, js, "longVariableName", "identifiers are minified")
}

func TestTransform_EntryMustBeUnique(t *testing.T) {
	tests := []struct {
		name    string
		sources []string
	}{
		{name: "no entry", sources: nil},
		{name: "two entries", sources: []string{"/a.js", "/b.js"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := scripts.New().Transform(context.Background(), domain.TransformRequest{
				Class:   domain.Scripts,
				Sources: tt.sources,
				Config:  domain.NewModeConfig(domain.Scripts, domain.Development),
			})
			require.ErrorContains(t, err, domain.ErrEntryModuleNotFound.Error())
		})
	}
}

func TestTransform_ResolveError(t *testing.T) {
	root := t.TempDir()
	entry := filepath.Join(root, "App.js")
	require.NoError(t, os.WriteFile(entry, []byte("import './missing.js';\n"), 0o600))

	_, err := scripts.New().Transform(context.Background(), domain.TransformRequest{
		Class:      domain.Scripts,
		Sources:    []string{entry},
		SourceRoot: root,
		Config:     domain.NewModeConfig(domain.Scripts, domain.Development),
	})
	require.ErrorContains(t, err, "transformation failed")
	assert.Contains(t, err.Error(), "missing.js")
}
