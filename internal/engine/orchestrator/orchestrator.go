// Package orchestrator sequences the clean, build and watch stages.
package orchestrator

import (
	"context"
	"errors"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Cleaner removes the generated output of one class.
type Cleaner interface {
	Clean(ctx context.Context, class domain.AssetClass) error
}

// Builder runs one build of an asset class.
type Builder interface {
	Build(ctx context.Context, class domain.AssetClass) domain.BuildResult
}

// Watcher blocks watching the given classes until ctx is cancelled.
type Watcher interface {
	Run(ctx context.Context, classes []domain.AssetClass) error
}

// Orchestrator runs clean, then all builds in parallel, then watch.
type Orchestrator struct {
	cleaner Cleaner
	builder Builder
	watcher Watcher
	tracer  ports.Tracer
	logger  ports.Logger
}

// New creates a new Orchestrator.
func New(cleaner Cleaner, builder Builder, watcher Watcher, tracer ports.Tracer, logger ports.Logger) *Orchestrator {
	return &Orchestrator{
		cleaner: cleaner,
		builder: builder,
		watcher: watcher,
		tracer:  tracer,
		logger:  logger,
	}
}

// CleanAll cleans every class in order. Each failure is logged; the joined
// failures are returned.
func (o *Orchestrator) CleanAll(ctx context.Context, classes []domain.AssetClass) error {
	var errs error
	for _, class := range classes {
		if err := o.cleaner.Clean(ctx, class); err != nil {
			o.logger.Error(err)
			errs = errors.Join(errs, err)
		}
	}
	return errs
}

// BuildAll builds every class concurrently and waits for all of them. A
// failing class never cancels its siblings. The results keep the order of
// classes.
func (o *Orchestrator) BuildAll(ctx context.Context, classes []domain.AssetClass) ([]domain.BuildResult, error) {
	ctx, span := o.tracer.Start(ctx, "build all")
	defer span.End()

	names := make([]string, len(classes))
	for i, c := range classes {
		names[i] = c.String()
	}
	o.tracer.EmitPlan(ctx, names)

	results := make([]domain.BuildResult, len(classes))
	var g errgroup.Group
	for i, class := range classes {
		g.Go(func() error {
			results[i] = o.builder.Build(ctx, class)
			return nil
		})
	}
	_ = g.Wait()

	var failed []string
	for _, r := range results {
		if !r.Success {
			failed = append(failed, r.Class.String())
		}
	}
	if len(failed) > 0 {
		err := zerr.With(domain.ErrBuildExecutionFailed, "failed", failed)
		span.RecordError(err)
		return results, err
	}
	return results, nil
}

// Run cleans and builds every class, then watches until ctx is cancelled.
// Clean and build failures are logged and never stop the watcher.
func (o *Orchestrator) Run(ctx context.Context, classes []domain.AssetClass) error {
	_ = o.CleanAll(ctx, classes)

	if _, err := o.BuildAll(ctx, classes); err != nil {
		o.logger.Warn("initial build finished with errors, watching for fixes")
	}

	if ctx.Err() != nil {
		return nil
	}
	return o.watcher.Run(ctx, classes)
}
