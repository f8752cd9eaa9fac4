// Package watcher delivers file system changes for glob subscriptions using fsnotify.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// shouldSkipDirectories are directories that should not be watched.
var shouldSkipDirectories = map[string]bool{
	".git":         true,
	".jj":          true,
	"node_modules": true,
}

// ContentHasher hashes file contents to drop writes that change nothing.
type ContentHasher interface {
	ComputeFileHash(path string) (uint64, error)
}

// Watcher creates one fsnotify watcher per subscription.
type Watcher struct {
	hasher ContentHasher
	logger ports.Logger
}

// NewWatcher creates a new file system watcher.
func NewWatcher(hasher ContentHasher, logger ports.Logger) *Watcher {
	return &Watcher{hasher: hasher, logger: logger}
}

// Subscribe watches the static base directory of pattern below root and
// reports changes to matching files. When the base directory does not exist
// yet, its nearest existing ancestor inside root is watched instead.
func (w *Watcher) Subscribe(
	ctx context.Context, root, pattern string, onEvent func(ports.WatchEvent),
) (ports.Subscription, error) {
	pattern = filepath.ToSlash(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return nil, zerr.With(zerr.With(domain.ErrWatchFailed, "reason", "malformed glob"), "pattern", pattern)
	}

	root = filepath.Clean(root)
	base := nearestExisting(root, filepath.Join(root, filepath.FromSlash(domain.StaticBase(pattern))))

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrWatchFailed.Error()), "pattern", pattern)
	}

	subCtx, cancel := context.WithCancel(ctx)
	s := &subscription{
		fsw:     fsw,
		root:    root,
		pattern: pattern,
		onEvent: onEvent,
		hasher:  w.hasher,
		logger:  w.logger,
		hashes:  make(map[string]uint64),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	for dir := range watchRecursively(base) {
		if err := fsw.Add(dir); err != nil {
			cancel()
			_ = fsw.Close()
			return nil, zerr.With(zerr.Wrap(err, domain.ErrWatchFailed.Error()), "path", dir)
		}
		s.seed(dir)
	}

	go s.processEvents(subCtx)

	return s, nil
}

type subscription struct {
	fsw     *fsnotify.Watcher
	root    string
	pattern string
	onEvent func(ports.WatchEvent)
	hasher  ContentHasher
	logger  ports.Logger

	// hashes is only touched by the event loop after Subscribe returns.
	hashes map[string]uint64

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// Unsubscribe stops the event loop and releases the fsnotify watcher.
func (s *subscription) Unsubscribe() error {
	s.cancel()
	<-s.done
	return s.close()
}

func (s *subscription) close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.fsw.Close()
	})
	return s.closeErr
}

func (s *subscription) processEvents(ctx context.Context) {
	defer close(s.done)
	defer s.close() //nolint:errcheck // Close error is reported by Unsubscribe

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.fsw.Events:
			if !ok {
				return
			}
			s.handle(event)
		case err, ok := <-s.fsw.Errors:
			if !ok {
				return
			}
			if s.logger != nil {
				s.logger.Error(zerr.With(zerr.Wrap(err, domain.ErrWatchFailed.Error()), "pattern", s.pattern))
			}
		}
	}
}

func (s *subscription) handle(event fsnotify.Event) {
	path := event.Name

	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			s.addDirectory(path)
			return
		}
		if !s.matches(path) {
			return
		}
		s.remember(path)
		s.emit(path, domain.Added)

	case event.Has(fsnotify.Write):
		if !s.matches(path) || s.unchanged(path) {
			return
		}
		s.emit(path, domain.Modified)

	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		known := s.forget(path)
		if !known && !s.matches(path) {
			return
		}
		s.emit(path, domain.Removed)
	}
}

// addDirectory starts watching a directory created after Subscribe and
// reports the matching files that already landed in it.
func (s *subscription) addDirectory(dir string) {
	if shouldSkipDirectories[filepath.Base(dir)] {
		return
	}
	for d := range watchRecursively(dir) {
		if err := s.fsw.Add(d); err != nil {
			if s.logger != nil {
				s.logger.Error(zerr.With(zerr.Wrap(err, domain.ErrWatchFailed.Error()), "path", d))
			}
			continue
		}
		for _, file := range s.matchingFiles(d) {
			s.remember(file)
			s.emit(file, domain.Added)
		}
	}
}

func (s *subscription) emit(path string, kind domain.ChangeKind) {
	if s.onEvent != nil {
		s.onEvent(ports.WatchEvent{Path: path, Kind: kind})
	}
}

func (s *subscription) matches(path string) bool {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}
	ok, err := doublestar.Match(s.pattern, rel)
	return err == nil && ok
}

// seed records the current hash of every matching file directly in dir.
func (s *subscription) seed(dir string) {
	for _, file := range s.matchingFiles(dir) {
		s.remember(file)
	}
}

func (s *subscription) matchingFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if s.matches(path) {
			files = append(files, path)
		}
	}
	return files
}

func (s *subscription) remember(path string) {
	if s.hasher == nil {
		return
	}
	if sum, err := s.hasher.ComputeFileHash(path); err == nil {
		s.hashes[path] = sum
	}
}

// unchanged reports whether the file still has the last seen content hash,
// updating the stored hash otherwise.
func (s *subscription) unchanged(path string) bool {
	if s.hasher == nil {
		return false
	}
	sum, err := s.hasher.ComputeFileHash(path)
	if err != nil {
		return false
	}
	prev, ok := s.hashes[path]
	s.hashes[path] = sum
	return ok && prev == sum
}

// forget drops the stored hashes for path and everything below it. It reports
// whether anything was known about path.
func (s *subscription) forget(path string) bool {
	known := false
	prefix := path + string(filepath.Separator)
	for p := range s.hashes {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(s.hashes, p)
			known = true
		}
	}
	return known
}

// watchRecursively walks the directory tree and yields all directories.
func watchRecursively(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // Skip unreadable directories
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && shouldSkipDirectories[d.Name()] {
				return fs.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func nearestExisting(root, dir string) string {
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return dir
		}
		if dir == root {
			return root
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return root
		}
		dir = parent
	}
}
