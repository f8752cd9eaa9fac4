package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func newProvider(application *app.App, logger *mocks.MockLogger) ComponentProvider {
	return func(_ context.Context) (*app.Components, func(), error) {
		return &app.Components{
			App:    application,
			Logger: logger,
		}, func() {}, nil
	}
}

// TestRun_Success verifies that the run function returns 0 when the command succeeds.
func TestRun_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	application := app.New(app.Deps{
		Loader: mocks.NewMockConfigLoader(ctrl),
		Logger: mockLogger,
	})

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, newProvider(application, mockLogger))
	assert.Equal(t, 0, exitCode)
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

// TestRun_ExecutionError verifies that run logs the error and returns 1 when a command fails.
func TestRun_ExecutionError(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLoader := mocks.NewMockConfigLoader(ctrl)
	mockLogger := mocks.NewMockLogger(ctrl)
	application := app.New(app.Deps{Loader: mockLoader, Logger: mockLogger})

	dir := t.TempDir()
	mockLoader.EXPECT().Load(dir, gomock.Any()).Return(nil, errors.New("load failed"))
	mockLogger.EXPECT().Error(gomock.Any()).Times(1)

	exitCode := run(context.Background(), []string{"build"}, new(bytes.Buffer), newProvider(application, mockLogger),
		func(a *app.App) {
			a.WithWorkDir(dir)
		})

	assert.Equal(t, 1, exitCode)
}

// TestRun_CleanFailureIsNotLoggedTwice verifies that failures already reported
// by the stages only set the exit code.
func TestRun_CleanFailureIsNotLoggedTwice(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLoader := mocks.NewMockConfigLoader(ctrl)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockTree := mocks.NewMockOutputTree(ctrl)
	application := app.New(app.Deps{Loader: mockLoader, Logger: mockLogger, Tree: mockTree})

	dir := t.TempDir()
	mockLoader.EXPECT().Load(dir, gomock.Any()).Return(domain.NewConfig(dir), nil)
	mockTree.EXPECT().Clean(gomock.Any(), gomock.Any()).Return(0, errors.New("read-only file system"))
	// Logged once by the orchestrator, not again by run.
	mockLogger.EXPECT().Error(gomock.Any()).Times(1)

	exitCode := run(context.Background(), []string{"clean:styles"}, new(bytes.Buffer), newProvider(application, mockLogger),
		func(a *app.App) {
			a.WithWorkDir(dir)
		})

	assert.Equal(t, 1, exitCode)
}
