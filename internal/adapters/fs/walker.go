// Package fs provides file system adapters for resolving sources and managing output trees.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
)

// Walker walks output directories.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkDirs yields every directory below root, deepest first.
// It is used to prune directories left empty after a clean.
func (w *Walker) WalkDirs(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		var dirs []string
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // Unreadable directories are skipped
			}
			if d.IsDir() && path != root {
				dirs = append(dirs, path)
			}
			return nil
		})
		for i := len(dirs) - 1; i >= 0; i-- {
			if !yield(dirs[i]) {
				return
			}
		}
	}
}
