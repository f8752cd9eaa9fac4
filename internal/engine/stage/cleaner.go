// Package stage implements the clean and build stages for one asset class.
package stage

import (
	"context"
	"fmt"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Cleaner removes previously generated output of an asset class.
type Cleaner struct {
	paths  domain.PathConfig
	tree   ports.OutputTree
	logger ports.Logger
}

// NewCleaner creates a Cleaner for the given path configuration.
func NewCleaner(paths domain.PathConfig, tree ports.OutputTree, logger ports.Logger) *Cleaner {
	return &Cleaner{paths: paths, tree: tree, logger: logger}
}

// Clean deletes every file below the class output directory that matches its
// clean glob. Running it twice is the same as running it once.
func (c *Cleaner) Clean(_ context.Context, class domain.AssetClass) error {
	entry, ok := c.paths.Entry(class)
	if !ok {
		return zerr.With(zerr.With(domain.ErrInvalidPathConfig, "reason", "missing entry"), "class", class.String())
	}

	dir := entry.OutputDir(c.paths.Root)
	n, err := c.tree.Clean(dir, entry.CleanPattern())
	if err != nil {
		err = zerr.With(zerr.Wrap(err, domain.ErrCleanFailed.Error()), "class", class.String())
		return zerr.With(err, "path", dir)
	}

	if n > 0 {
		c.logger.Info(fmt.Sprintf("%s: removed %d file(s) from %s", class, n, relToRoot(c.paths.Root, dir)))
	}
	return nil
}

func relToRoot(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
