package stage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Digester fingerprints the files written by a build.
type Digester interface {
	ComputeDigest(paths []string) (string, error)
}

// BuilderDeps are the collaborators of a Builder.
type BuilderDeps struct {
	Resolver     ports.SourceResolver
	Transformers ports.TransformerSet
	Tree         ports.OutputTree
	Digester     Digester
	Tracer       ports.Tracer
	Metrics      ports.Metrics
	Logger       ports.Logger
}

// Builder runs one complete build of an asset class: resolve sources,
// transform, write outputs.
type Builder struct {
	cfg   *domain.Config
	deps  BuilderDeps
	modes map[domain.AssetClass]domain.ModeConfig
}

// NewBuilder creates a Builder. The per-class ModeConfig table is computed
// once here and never changes.
func NewBuilder(cfg *domain.Config, deps BuilderDeps) *Builder {
	modes := make(map[domain.AssetClass]domain.ModeConfig, len(domain.AllAssetClasses()))
	for _, class := range domain.AllAssetClasses() {
		modes[class] = domain.NewModeConfig(class, cfg.Mode)
	}
	return &Builder{cfg: cfg, deps: deps, modes: modes}
}

// ModeConfig returns the configuration handed to the class transformer.
func (b *Builder) ModeConfig(class domain.AssetClass) domain.ModeConfig {
	return b.modes[class]
}

// Build runs the build for class. Failures are reported in the result, never
// as a panic or a returned error.
func (b *Builder) Build(ctx context.Context, class domain.AssetClass) domain.BuildResult {
	start := time.Now()
	result := domain.BuildResult{
		ID:    uuid.NewString(),
		Class: class,
		Mode:  b.cfg.Mode,
	}

	ctx, span := b.deps.Tracer.Start(ctx, "build "+class.String(),
		ports.WithAttribute("kiln.class", class.String()),
		ports.WithAttribute("kiln.mode", b.cfg.Mode.String()),
		ports.WithAttribute("kiln.build_id", result.ID),
	)
	defer span.End()

	outputs, sizes, err := b.run(ctx, class)
	result.Duration = time.Since(start)
	result.Outputs = outputs
	result.Sizes = sizes

	if err != nil {
		result.Err = zerr.With(err, "class", class.String())
		result.ErrorDetail = err.Error()
		span.RecordError(err)
		span.SetAttribute("kiln.success", false)
		b.deps.Logger.Error(result.Err)
	} else {
		result.Success = true
		result.Digest = b.digest(outputs)
		span.SetAttribute("kiln.success", true)
		span.SetAttribute("kiln.files", len(outputs))
		span.SetAttribute("kiln.digest", result.Digest)
		b.deps.Logger.Info(summary(result))
	}

	if b.deps.Metrics != nil {
		b.deps.Metrics.ObserveBuild(result)
	}
	return result
}

func (b *Builder) run(ctx context.Context, class domain.AssetClass) ([]string, *domain.SizeStats, error) {
	root := b.cfg.Paths.Root
	entry, ok := b.cfg.Paths.Entry(class)
	if !ok {
		return nil, nil, zerr.With(domain.ErrInvalidPathConfig, "reason", "missing entry")
	}

	transformer, ok := b.deps.Transformers[class]
	if !ok || transformer == nil {
		return nil, nil, domain.ErrTransformerMissing
	}

	sources, err := b.deps.Resolver.ResolveSources(root, entry.SourcePattern())
	if err != nil {
		return nil, nil, err
	}
	if len(sources) == 0 && class != domain.Scripts {
		b.deps.Logger.Warn(fmt.Sprintf("%s: %s %s", class, domain.ErrNoSources.Error(), entry.SourcePattern()))
	}

	req := domain.TransformRequest{
		Class:       class,
		Sources:     sources,
		SourceRoot:  entry.SourceRoot(root),
		IncludeRoot: entry.WatchRoot(root),
		Config:      b.modes[class],
	}

	out, err := safeTransform(ctx, transformer, req)
	if err != nil {
		return nil, nil, zerr.With(err, "files", len(sources))
	}

	written, err := b.deps.Tree.Write(entry.OutputDir(root), out.Files)
	if err != nil {
		return nil, nil, err
	}

	return written, out.Sizes, nil
}

// safeTransform converts a transformer panic into a failed build.
func safeTransform(
	ctx context.Context, t ports.Transformer, req domain.TransformRequest,
) (out domain.TransformOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = zerr.With(domain.ErrTransformFailed, "panic", fmt.Sprint(r))
		}
	}()
	return t.Transform(ctx, req)
}

func (b *Builder) digest(outputs []string) string {
	if b.deps.Digester == nil || len(outputs) == 0 {
		return ""
	}
	d, err := b.deps.Digester.ComputeDigest(outputs)
	if err != nil {
		b.deps.Logger.Warn(fmt.Sprintf("could not fingerprint outputs: %v", err))
		return ""
	}
	return d
}

func summary(r domain.BuildResult) string {
	msg := fmt.Sprintf("%s built in %s", r.Class, r.Duration.Round(time.Millisecond))
	if r.Sizes != nil {
		msg += fmt.Sprintf(" (%s → %s, saved %s)",
			formatBytes(r.Sizes.Original), formatBytes(r.Sizes.Transformed), savedPercent(*r.Sizes))
	}
	return msg
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}

func savedPercent(s domain.SizeStats) string {
	if s.Original <= 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", float64(s.Saved())*100/float64(s.Original))
}
