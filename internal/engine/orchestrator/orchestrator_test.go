package orchestrator_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/orchestrator"
	"go.uber.org/mock/gomock"
)

// recorder logs the stage calls in order.
type recorder struct {
	mu       sync.Mutex
	calls    []string
	failing  map[domain.AssetClass]bool
	cleanErr map[domain.AssetClass]error
	watched  []domain.AssetClass
}

func newRecorder() *recorder {
	return &recorder{failing: map[domain.AssetClass]bool{}, cleanErr: map[domain.AssetClass]error{}}
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) Clean(_ context.Context, class domain.AssetClass) error {
	r.add("clean " + class.String())
	return r.cleanErr[class]
}

func (r *recorder) Build(_ context.Context, class domain.AssetClass) domain.BuildResult {
	r.add("build " + class.String())
	if r.failing[class] {
		return domain.BuildResult{Class: class, Err: errors.New("broken")}
	}
	return domain.BuildResult{Class: class, Success: true}
}

func (r *recorder) Run(ctx context.Context, classes []domain.AssetClass) error {
	r.add("watch")
	r.mu.Lock()
	r.watched = classes
	r.mu.Unlock()
	<-ctx.Done()
	return nil
}

func setup(t *testing.T) (*orchestrator.Orchestrator, *recorder, *mocks.MockLogger) {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	rec := newRecorder()
	o := orchestrator.New(rec, rec, rec, telemetry.NewNoOpTracer(), logger)
	return o, rec, logger
}

func TestBuildAll_FanOutIsolation(t *testing.T) {
	o, rec, _ := setup(t)
	rec.failing[domain.Scripts] = true

	results, err := o.BuildAll(context.Background(), domain.AllAssetClasses())
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrBuildExecutionFailed.Error())

	require.Len(t, results, 4)
	for i, class := range domain.AllAssetClasses() {
		assert.Equal(t, class, results[i].Class)
		assert.Equal(t, class != domain.Scripts, results[i].Success, class.String())
	}
	assert.Len(t, rec.calls, 4, "every class is built even though one failed")
}

func TestBuildAll_Success(t *testing.T) {
	o, _, _ := setup(t)

	results, err := o.BuildAll(context.Background(), []domain.AssetClass{domain.Styles, domain.Images})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.True(t, results[1].Success)
}

func TestCleanAll_JoinsFailures(t *testing.T) {
	o, rec, logger := setup(t)
	rec.cleanErr[domain.Markup] = domain.ErrCleanFailed
	logger.EXPECT().Error(domain.ErrCleanFailed)

	err := o.CleanAll(context.Background(), domain.AllAssetClasses())
	require.Error(t, err)
	assert.Equal(t, []string{"clean styles", "clean scripts", "clean markup", "clean images"}, rec.calls)
}

func TestRun_Sequencing(t *testing.T) {
	o, rec, logger := setup(t)
	rec.cleanErr[domain.Images] = domain.ErrCleanFailed
	rec.failing[domain.Styles] = true
	logger.EXPECT().Error(gomock.Any())
	logger.EXPECT().Warn(gomock.Any())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Run(ctx, domain.AllAssetClasses()) }()

	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.watched) > 0
	}, defaultWait, tick)
	cancel()
	require.NoError(t, <-done)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.calls, 9)
	for i := range 4 {
		assert.Contains(t, rec.calls[i], "clean ", "cleans come first")
	}
	for i := 4; i < 8; i++ {
		assert.Contains(t, rec.calls[i], "build ", "builds happen before watching")
	}
	assert.Equal(t, "watch", rec.calls[8])
	assert.Equal(t, domain.AllAssetClasses(), rec.watched)
}

func TestRun_CancelledBeforeWatch(t *testing.T) {
	o, rec, _ := setup(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, o.Run(ctx, []domain.AssetClass{domain.Styles}))
	assert.NotContains(t, rec.calls, "watch")
}
