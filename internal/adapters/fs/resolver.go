package fs

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.SourceResolver = (*Resolver)(nil)

// Resolver implements the SourceResolver interface using doublestar globs.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// ResolveSources expands the root-relative pattern to absolute file paths.
func (r *Resolver) ResolveSources(root, pattern string) ([]string, error) {
	pattern = filepath.ToSlash(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return nil, zerr.With(domain.ErrSourceResolutionFailed, "pattern", pattern)
	}

	// A missing static base simply means there is nothing to build.
	base := domain.StaticBase(pattern)
	if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(base))); os.IsNotExist(err) {
		return []string{}, nil
	}

	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrSourceResolutionFailed.Error()), "pattern", pattern)
	}

	uniquePaths := make(map[string]bool, len(matches))
	for _, match := range matches {
		uniquePaths[filepath.Join(root, filepath.FromSlash(match))] = true
	}

	result := make([]string, 0, len(uniquePaths))
	for path := range uniquePaths {
		result = append(result, path)
	}
	sort.Strings(result)

	return result, nil
}
