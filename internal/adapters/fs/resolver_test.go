package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/fs"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

func TestResolver_ResolveSources_Success(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"src/scss/b.scss":           "b",
		"src/scss/a.scss":           "a",
		"src/scss/partials/_x.scss": "x",
		"src/js/App.js":             "app",
	})

	resolver := fs.NewResolver()

	resolved, err := resolver.ResolveSources(tmpDir, "src/scss/*.scss")
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(tmpDir, "src", "scss", "a.scss"),
		filepath.Join(tmpDir, "src", "scss", "b.scss"),
	}, resolved)
}

func TestResolver_ResolveSources_DoubleStarAndBraces(t *testing.T) {
	tmpDir := t.TempDir()
	writeFiles(t, tmpDir, map[string]string{
		"src/views/pages/index.html": "",
		"src/views/pages/about.md":   "",
		"src/views/pages/notes.txt":  "",
		"src/assets/img/logo.png":    "",
		"src/assets/icons/a/b.svg":   "",
	})

	resolver := fs.NewResolver()

	pages, err := resolver.ResolveSources(tmpDir, "src/views/pages/*.{html,md}")
	require.NoError(t, err)
	assert.Len(t, pages, 2)

	assets, err := resolver.ResolveSources(tmpDir, "src/assets/**/*")
	require.NoError(t, err)
	// Directories are never returned.
	assert.Equal(t, []string{
		filepath.Join(tmpDir, "src", "assets", "icons", "a", "b.svg"),
		filepath.Join(tmpDir, "src", "assets", "img", "logo.png"),
	}, assets)
}

func TestResolver_ResolveSources_NoMatches(t *testing.T) {
	tmpDir := t.TempDir()
	resolver := fs.NewResolver()

	resolved, err := resolver.ResolveSources(tmpDir, "src/missing/**/*.js")
	require.NoError(t, err)
	assert.Empty(t, resolved)
}

func TestResolver_ResolveSources_MalformedPattern(t *testing.T) {
	tmpDir := t.TempDir()
	resolver := fs.NewResolver()

	_, err := resolver.ResolveSources(tmpDir, "src/[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to resolve sources")
}
