// Package watch rebuilds asset classes when their sources change.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Builder runs one build of an asset class.
type Builder interface {
	Build(ctx context.Context, class domain.AssetClass) domain.BuildResult
}

const (
	defaultMaxTries        = 5
	defaultInitialInterval = 100 * time.Millisecond
)

// Deps are the collaborators of a Stage.
type Deps struct {
	Watcher      ports.Watcher
	Builder      Builder
	Tree         ports.OutputTree
	Transformers ports.TransformerSet
	Notifier     ports.ReloadNotifier
	Logger       ports.Logger
}

// Stage owns one subscription, debouncer and worker per asset class.
type Stage struct {
	cfg      *domain.Config
	deps     Deps
	maxTries uint
	initial  time.Duration
}

// New creates a watch Stage.
func New(cfg *domain.Config, deps Deps) *Stage {
	return &Stage{
		cfg:      cfg,
		deps:     deps,
		maxTries: defaultMaxTries,
		initial:  defaultInitialInterval,
	}
}

// WithRetry sets how often a failing subscription is retried and the first
// backoff interval.
func (s *Stage) WithRetry(maxTries uint, initial time.Duration) *Stage {
	s.maxTries = maxTries
	s.initial = initial
	return s
}

// Run watches the given classes until ctx is cancelled. A class whose
// subscription cannot be established is logged and skipped.
func (s *Stage) Run(ctx context.Context, classes []domain.AssetClass) error {
	var (
		wg      sync.WaitGroup
		workers []*worker
	)

	for _, class := range classes {
		w, err := s.start(ctx, class)
		if err != nil {
			s.deps.Logger.Error(zerr.With(err, "class", class.String()))
			continue
		}
		workers = append(workers, w)
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}

	if len(workers) == 0 && len(classes) > 0 {
		return zerr.With(domain.ErrWatchFailed, "reason", "no class could be watched")
	}

	s.deps.Logger.Info(fmt.Sprintf("watching %d asset class(es) for changes", len(workers)))
	<-ctx.Done()

	for _, w := range workers {
		w.debouncer.Stop()
		if err := w.sub.Unsubscribe(); err != nil {
			s.deps.Logger.Error(zerr.With(zerr.Wrap(err, domain.ErrWatchFailed.Error()), "class", w.class.String()))
		}
	}
	wg.Wait()
	return nil
}

func (s *Stage) start(ctx context.Context, class domain.AssetClass) (*worker, error) {
	entry, ok := s.cfg.Paths.Entry(class)
	if !ok {
		return nil, zerr.With(domain.ErrInvalidPathConfig, "reason", "missing entry")
	}

	w := &worker{
		stage: s,
		class: class,
		entry: entry,
		wake:  make(chan struct{}, 1),
	}
	if mapper, ok := s.deps.Transformers[class].(ports.OutputMapper); ok {
		w.mapper = mapper
	}
	w.debouncer = NewDebouncer(s.cfg.DebounceWindow(), func([]string) { w.requestBuild() })

	sub, err := s.subscribe(ctx, entry.WatchPattern(), w.handle)
	if err != nil {
		return nil, err
	}
	w.sub = sub
	return w, nil
}

func (s *Stage) subscribe(ctx context.Context, pattern string, fn func(ports.WatchEvent)) (ports.Subscription, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.initial

	return backoff.Retry(ctx, func() (ports.Subscription, error) {
		return s.deps.Watcher.Subscribe(ctx, s.cfg.Paths.Root, pattern, fn)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(s.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.deps.Logger.Warn(fmt.Sprintf("watch %s failed, retrying in %s: %v", pattern, next.Round(time.Millisecond), err))
		}),
	)
}

// worker serializes all builds and removals of one class.
type worker struct {
	stage     *Stage
	class     domain.AssetClass
	entry     domain.PathEntry
	mapper    ports.OutputMapper
	debouncer *Debouncer
	sub       ports.Subscription

	mu       sync.Mutex
	build    bool
	removals []string
	wake     chan struct{}
}

// handle routes a raw watch event. Removed sources of one-to-one classes are
// mirrored directly; everything else goes through the debouncer.
func (w *worker) handle(ev ports.WatchEvent) {
	change := domain.ChangeEvent{Class: w.class, Path: ev.Path, Kind: ev.Kind}

	if change.Kind == domain.Removed && w.mapper != nil && w.entry.MatchesSource(w.stage.cfg.Paths.Root, change.Path) {
		w.mu.Lock()
		w.removals = append(w.removals, change.Path)
		w.mu.Unlock()
		w.signal()
		return
	}

	w.debouncer.Add(change.Path)
}

func (w *worker) requestBuild() {
	w.mu.Lock()
	w.build = true
	w.mu.Unlock()
	w.signal()
}

func (w *worker) signal() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *worker) take() ([]string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	removals, build := w.removals, w.build
	w.removals, w.build = nil, false
	return removals, build
}

func (w *worker) loop(ctx context.Context) {
	// Builds are never cancelled halfway; a shutdown abandons the loop instead.
	buildCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.wake:
		}

		for {
			removals, build := w.take()
			if len(removals) == 0 && !build {
				break
			}
			if len(removals) > 0 && w.removeOutputs(removals) {
				w.stage.deps.Notifier.BroadcastReload()
			}
			if build {
				if result := w.stage.deps.Builder.Build(buildCtx, w.class); result.Success {
					w.stage.deps.Notifier.BroadcastReload()
				}
			}
			if ctx.Err() != nil {
				return
			}
		}
	}
}

// removeOutputs deletes the outputs mapped from removed sources. It reports
// whether anything was removed.
func (w *worker) removeOutputs(paths []string) bool {
	root := w.stage.cfg.Paths.Root
	sourceRoot := w.entry.SourceRoot(root)
	outDir := w.entry.OutputDir(root)

	removed := false
	for _, path := range paths {
		rel, err := filepath.Rel(sourceRoot, path)
		if err != nil {
			continue
		}
		out := w.mapper.OutputPath(filepath.ToSlash(rel))
		if err := w.stage.deps.Tree.Remove(outDir, out); err != nil {
			w.stage.deps.Logger.Error(zerr.With(err, "class", w.class.String()))
			continue
		}
		w.stage.deps.Logger.Info(fmt.Sprintf("%s: removed %s", w.class, relToRoot(root, filepath.Join(outDir, filepath.FromSlash(out)))))
		removed = true
	}
	return removed
}

func relToRoot(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
