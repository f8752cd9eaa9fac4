package fs

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.OutputTree = (*Tree)(nil)

// Tree implements ports.OutputTree on the local file system.
// Every operation is anchored under its output directory through os.DirFS,
// so a glob or relative path can never reach outside of it.
type Tree struct {
	walker *Walker
}

// NewTree creates a new Tree.
func NewTree(walker *Walker) *Tree {
	return &Tree{walker: walker}
}

// Clean removes every file under dir matching pattern and prunes the
// directories that become empty. It returns the number of removed files.
func (t *Tree) Clean(dir, pattern string) (int, error) {
	pattern = filepath.ToSlash(pattern)
	if path.IsAbs(pattern) || !doublestar.ValidatePattern(pattern) {
		return 0, zerr.With(domain.ErrPathOutsideOutput, "pattern", pattern)
	}

	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrCleanFailed.Error()), "dir", dir)
	}
	if !info.IsDir() {
		return 0, zerr.With(zerr.Wrap(errors.New("not a directory"), domain.ErrCleanFailed.Error()), "dir", dir)
	}

	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrCleanFailed.Error()), "pattern", pattern)
	}
	sort.Strings(matches)

	removed := 0
	for _, rel := range matches {
		if !filepath.IsLocal(filepath.FromSlash(rel)) {
			return removed, zerr.With(domain.ErrPathOutsideOutput, "path", rel)
		}
		target := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, zerr.With(zerr.Wrap(err, domain.ErrCleanFailed.Error()), "path", target)
		}
		removed++
	}

	if removed > 0 {
		t.pruneEmpty(dir)
	}
	return removed, nil
}

// Write stores files under dir, creating parent directories as needed.
// Each file is written to a temporary sibling first and renamed into place so
// the development server never serves a partial artifact.
func (t *Tree) Write(dir string, files []domain.OutputFile) ([]string, error) {
	written := make([]string, 0, len(files))
	for _, f := range files {
		rel := filepath.FromSlash(f.Path)
		if !filepath.IsLocal(rel) {
			return written, zerr.With(domain.ErrPathOutsideOutput, "path", f.Path)
		}
		target := filepath.Join(dir, rel)
		if err := writeFileAtomic(target, f.Contents); err != nil {
			return written, zerr.With(zerr.Wrap(err, domain.ErrOutputWriteFailed.Error()), "path", target)
		}
		written = append(written, target)
	}
	return written, nil
}

// Remove deletes a single dir-relative path. Directories are removed recursively.
func (t *Tree) Remove(dir, rel string) error {
	local := filepath.FromSlash(rel)
	if !filepath.IsLocal(local) {
		return zerr.With(domain.ErrPathOutsideOutput, "path", rel)
	}
	target := filepath.Join(dir, local)
	if err := os.RemoveAll(target); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrOutputRemoveFailed.Error()), "path", target)
	}
	t.pruneParents(dir, filepath.Dir(target))
	return nil
}

// pruneEmpty removes every empty directory below dir. dir itself is kept.
func (t *Tree) pruneEmpty(dir string) {
	for sub := range t.walker.WalkDirs(dir) {
		_ = os.Remove(sub) // Fails on non-empty directories, which is what we want.
	}
}

// pruneParents removes empty directories from start up to, but excluding, dir.
func (t *Tree) pruneParents(dir, start string) {
	for cur := start; cur != dir; cur = filepath.Dir(cur) {
		rel, err := filepath.Rel(dir, cur)
		if err != nil || !filepath.IsLocal(rel) {
			return
		}
		if err := os.Remove(cur); err != nil {
			return
		}
	}
}

func writeFileAtomic(target string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
