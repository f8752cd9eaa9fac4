package watch_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/transform/images"
	"go.trai.ch/kiln/internal/adapters/transform/markup"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/watch"
	"go.uber.org/mock/gomock"
)

const root = "/project"

// fakeWatcher hands out subscriptions and lets tests push events into them.
type fakeWatcher struct {
	mu       sync.Mutex
	handlers map[string]func(ports.WatchEvent)
	failures map[string]int
}

type fakeSub struct{}

func (fakeSub) Unsubscribe() error { return nil }

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{handlers: map[string]func(ports.WatchEvent){}, failures: map[string]int{}}
}

func (f *fakeWatcher) Subscribe(_ context.Context, _, pattern string, fn func(ports.WatchEvent)) (ports.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures[pattern] != 0 {
		if f.failures[pattern] > 0 {
			f.failures[pattern]--
		}
		return nil, domain.ErrWatchFailed
	}
	f.handlers[pattern] = fn
	return fakeSub{}, nil
}

func (f *fakeWatcher) emit(pattern, path string, kind domain.ChangeKind) {
	f.mu.Lock()
	fn := f.handlers[pattern]
	f.mu.Unlock()
	fn(ports.WatchEvent{Path: path, Kind: kind})
}

// fakeBuilder counts builds per class and can hold a build open.
type fakeBuilder struct {
	mu      sync.Mutex
	builds  map[domain.AssetClass]int
	fail    bool
	gate    chan struct{}
	running chan struct{}
}

func newFakeBuilder() *fakeBuilder {
	return &fakeBuilder{builds: map[domain.AssetClass]int{}}
}

func (f *fakeBuilder) Build(_ context.Context, class domain.AssetClass) domain.BuildResult {
	f.mu.Lock()
	f.builds[class]++
	gate, running, fail := f.gate, f.running, f.fail
	f.mu.Unlock()

	if running != nil {
		running <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if fail {
		return domain.BuildResult{Class: class, Err: errors.New("broken")}
	}
	return domain.BuildResult{Class: class, Success: true}
}

func (f *fakeBuilder) count(class domain.AssetClass) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.builds[class]
}

type fakeNotifier struct {
	mu      sync.Mutex
	reloads int
}

func (f *fakeNotifier) BroadcastReload() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reloads
}

type harness struct {
	watcher  *fakeWatcher
	builder  *fakeBuilder
	notifier *fakeNotifier
	tree     *mocks.MockOutputTree
	cancel   context.CancelFunc
	done     chan error
}

func startStage(t *testing.T, classes []domain.AssetClass, setup func(h *harness)) *harness {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()

	h := &harness{
		watcher:  newFakeWatcher(),
		builder:  newFakeBuilder(),
		notifier: &fakeNotifier{},
		tree:     mocks.NewMockOutputTree(ctrl),
		done:     make(chan error, 1),
	}
	if setup != nil {
		setup(h)
	}

	cfg := domain.NewConfig(root)
	s := watch.New(cfg, watch.Deps{
		Watcher: h.watcher,
		Builder: h.builder,
		Tree:    h.tree,
		Transformers: ports.TransformerSet{
			domain.Styles: mocks.NewMockTransformer(ctrl),
			domain.Images: images.New(),
			domain.Markup: markup.New(),
		},
		Notifier: h.notifier,
		Logger:   logger,
	}).WithRetry(3, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- s.Run(ctx, classes) }()
	synctest.Wait()
	return h
}

func (h *harness) stop(t *testing.T) {
	t.Helper()
	h.cancel()
	require.NoError(t, <-h.done)
}

const (
	stylesWatch = "src/scss/**/*.scss"
	imagesWatch = "src/assets/**/*"
	markupWatch = "src/views/**/*.{html,md}"
)

func TestStage_DebounceCollapse(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := startStage(t, []domain.AssetClass{domain.Styles}, nil)

		for range 10 {
			h.watcher.emit(stylesWatch, root+"/src/scss/a.scss", domain.Modified)
			time.Sleep(5 * time.Millisecond)
		}
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()

		assert.Equal(t, 1, h.builder.count(domain.Styles))
		assert.Equal(t, 1, h.notifier.count())
		h.stop(t)
	})
}

func TestStage_ReloadGating(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := startStage(t, []domain.AssetClass{domain.Styles}, func(h *harness) {
			h.builder.fail = true
		})

		h.watcher.emit(stylesWatch, root+"/src/scss/a.scss", domain.Modified)
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()

		assert.Equal(t, 1, h.builder.count(domain.Styles))
		assert.Zero(t, h.notifier.count(), "failed builds never reload")

		// The watcher survives the failure.
		h.builder.mu.Lock()
		h.builder.fail = false
		h.builder.mu.Unlock()
		h.watcher.emit(stylesWatch, root+"/src/scss/a.scss", domain.Modified)
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()

		assert.Equal(t, 2, h.builder.count(domain.Styles))
		assert.Equal(t, 1, h.notifier.count())
		h.stop(t)
	})
}

func TestStage_ImageDeletePropagation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := startStage(t, []domain.AssetClass{domain.Images}, func(h *harness) {
			h.tree.EXPECT().Remove(filepath.Join(root, "dist", "assets"), "x/y.png").Return(nil)
		})

		h.watcher.emit(imagesWatch, root+"/src/assets/x/y.png", domain.Removed)
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()

		assert.Zero(t, h.builder.count(domain.Images), "a removal is mirrored without a rebuild")
		assert.Equal(t, 1, h.notifier.count())
		h.stop(t)
	})
}

func TestStage_MarkupPageRemovalDeletesOutput(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := startStage(t, []domain.AssetClass{domain.Markup}, func(h *harness) {
			h.tree.EXPECT().Remove(filepath.Join(root, "dist"), "about.html").Return(nil)
		})

		h.watcher.emit(markupWatch, root+"/src/views/pages/about.md", domain.Removed)
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()

		assert.Zero(t, h.builder.count(domain.Markup), "a removed page is mirrored without a rebuild")
		assert.Equal(t, 1, h.notifier.count())
		h.stop(t)
	})
}

func TestStage_MarkupPartialRemovalRebuilds(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		// No Remove expectation: a partial has no output of its own.
		h := startStage(t, []domain.AssetClass{domain.Markup}, nil)

		h.watcher.emit(markupWatch, root+"/src/views/partials/nav.html", domain.Removed)
		h.watcher.emit(markupWatch, root+"/src/views/layouts/base.html", domain.Modified)
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()

		assert.Equal(t, 1, h.builder.count(domain.Markup), "partial changes collapse into one rebuild")
		assert.Equal(t, 1, h.notifier.count())
		h.stop(t)
	})
}

func TestStage_StylesRemovalRebuilds(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := startStage(t, []domain.AssetClass{domain.Styles}, nil)

		h.watcher.emit(stylesWatch, root+"/src/scss/b.scss", domain.Removed)
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()

		assert.Equal(t, 1, h.builder.count(domain.Styles))
		assert.Equal(t, 1, h.notifier.count())
		h.stop(t)
	})
}

func TestStage_TriggerDuringBuildCollapsesToOneFollowUp(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		gate := make(chan struct{})
		running := make(chan struct{}, 4)
		h := startStage(t, []domain.AssetClass{domain.Styles}, func(h *harness) {
			h.builder.gate = gate
			h.builder.running = running
		})

		h.watcher.emit(stylesWatch, root+"/src/scss/a.scss", domain.Modified)
		time.Sleep(100 * time.Millisecond)
		<-running

		// Three separate bursts arrive while the first build is running.
		for range 3 {
			h.watcher.emit(stylesWatch, root+"/src/scss/a.scss", domain.Modified)
			time.Sleep(100 * time.Millisecond)
		}
		gate <- struct{}{}
		<-running
		gate <- struct{}{}
		synctest.Wait()

		assert.Equal(t, 2, h.builder.count(domain.Styles))
		assert.Equal(t, 2, h.notifier.count())
		h.stop(t)
	})
}

func TestStage_FailedSubscriptionIsSkipped(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := startStage(t, []domain.AssetClass{domain.Styles, domain.Images}, func(h *harness) {
			h.watcher.failures[imagesWatch] = -1
		})

		h.watcher.emit(stylesWatch, root+"/src/scss/a.scss", domain.Modified)
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()

		assert.Equal(t, 1, h.builder.count(domain.Styles))
		h.stop(t)
	})
}

func TestStage_SubscriptionRetried(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		h := startStage(t, []domain.AssetClass{domain.Styles}, func(h *harness) {
			h.watcher.failures[stylesWatch] = 2
		})
		time.Sleep(time.Second)
		synctest.Wait()

		h.watcher.emit(stylesWatch, root+"/src/scss/a.scss", domain.Modified)
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()

		assert.Equal(t, 1, h.builder.count(domain.Styles))
		h.stop(t)
	})
}

func TestStage_NothingWatchable(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctrl := gomock.NewController(t)
		logger := mocks.NewMockLogger(ctrl)
		logger.EXPECT().Warn(gomock.Any()).AnyTimes()
		logger.EXPECT().Error(gomock.Any()).Times(1)

		w := newFakeWatcher()
		w.failures[stylesWatch] = -1

		s := watch.New(domain.NewConfig(root), watch.Deps{
			Watcher:  w,
			Builder:  newFakeBuilder(),
			Notifier: &fakeNotifier{},
			Logger:   logger,
		}).WithRetry(2, time.Millisecond)

		err := s.Run(context.Background(), []domain.AssetClass{domain.Styles})
		require.Error(t, err)
		assert.ErrorContains(t, err, domain.ErrWatchFailed.Error())
	})
}
