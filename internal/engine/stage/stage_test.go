package stage_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/stage"
	"go.uber.org/mock/gomock"
)

const root = "/project"

type builderMocks struct {
	resolver    *mocks.MockSourceResolver
	transformer *mocks.MockTransformer
	tree        *mocks.MockOutputTree
	metrics     *mocks.MockMetrics
	logger      *mocks.MockLogger
	span        *mocks.MockSpan
}

type fakeDigester struct{ err error }

func (f fakeDigester) ComputeDigest(paths []string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "digest-" + strings.Join(paths, ","), nil
}

func setupBuilder(t *testing.T, mode domain.BuildMode) (*stage.Builder, builderMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := builderMocks{
		resolver:    mocks.NewMockSourceResolver(ctrl),
		transformer: mocks.NewMockTransformer(ctrl),
		tree:        mocks.NewMockOutputTree(ctrl),
		metrics:     mocks.NewMockMetrics(ctrl),
		logger:      mocks.NewMockLogger(ctrl),
		span:        mocks.NewMockSpan(ctrl),
	}

	m.span.EXPECT().End().AnyTimes()
	m.span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	m.span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()

	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, m.span
		},
	).AnyTimes()

	cfg := domain.NewConfig(root)
	cfg.Mode = mode

	b := stage.NewBuilder(cfg, stage.BuilderDeps{
		Resolver: m.resolver,
		Transformers: ports.TransformerSet{
			domain.Styles:  m.transformer,
			domain.Scripts: m.transformer,
			domain.Images:  m.transformer,
		},
		Tree:     m.tree,
		Digester: fakeDigester{},
		Tracer:   tracer,
		Metrics:  m.metrics,
		Logger:   m.logger,
	})
	return b, m
}

func TestBuilder_Build_Success(t *testing.T) {
	b, m := setupBuilder(t, domain.Production)

	sources := []string{root + "/src/scss/a.scss", root + "/src/scss/b.scss"}
	m.resolver.EXPECT().ResolveSources(root, "src/scss/*.scss").Return(sources, nil)
	m.transformer.EXPECT().Transform(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, req domain.TransformRequest) (domain.TransformOutput, error) {
			assert.Equal(t, domain.Styles, req.Class)
			assert.Equal(t, sources, req.Sources)
			assert.Equal(t, filepath.Join(root, "src", "scss"), req.SourceRoot)
			assert.Equal(t, filepath.Join(root, "src", "scss"), req.IncludeRoot)
			assert.True(t, req.Config.Minify)
			assert.False(t, req.Config.SourceMaps)
			return domain.TransformOutput{
				Files: []domain.OutputFile{{Path: "main.css", Contents: []byte(".a{}")}},
				Sizes: &domain.SizeStats{Original: 2048, Transformed: 1024},
			}, nil
		},
	)
	m.tree.EXPECT().Write(filepath.Join(root, "dist", "css"), gomock.Len(1)).
		Return([]string{root + "/dist/css/main.css"}, nil)
	m.logger.EXPECT().Info(gomock.Any()).Do(func(msg string) {
		assert.True(t, strings.HasPrefix(msg, "styles built in "), msg)
		assert.True(t, strings.HasSuffix(msg, "(2.0 KiB → 1.0 KiB, saved 50%)"), msg)
	})
	m.metrics.EXPECT().ObserveBuild(gomock.Any()).Do(func(r domain.BuildResult) {
		assert.True(t, r.Success)
	})

	result := b.Build(context.Background(), domain.Styles)

	require.True(t, result.Success)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, domain.Production, result.Mode)
	assert.Equal(t, []string{root + "/dist/css/main.css"}, result.Outputs)
	assert.Equal(t, "digest-"+root+"/dist/css/main.css", result.Digest)
	require.NotNil(t, result.Sizes)
	assert.LessOrEqual(t, result.Sizes.Transformed, result.Sizes.Original)
	assert.NoError(t, result.Err)
}

func TestBuilder_Build_ModeExclusivity(t *testing.T) {
	for _, mode := range []domain.BuildMode{domain.Development, domain.Production} {
		t.Run(mode.String(), func(t *testing.T) {
			b, m := setupBuilder(t, mode)

			m.resolver.EXPECT().ResolveSources(root, "src/js/App.js").Return([]string{root + "/src/js/App.js"}, nil)
			m.transformer.EXPECT().Transform(gomock.Any(), gomock.Any()).DoAndReturn(
				func(_ context.Context, req domain.TransformRequest) (domain.TransformOutput, error) {
					dev := mode == domain.Development
					assert.Equal(t, dev, req.Config.SourceMaps)
					assert.Equal(t, !dev, req.Config.Minify)
					return domain.TransformOutput{}, nil
				},
			)
			m.tree.EXPECT().Write(gomock.Any(), gomock.Any()).Return(nil, nil)
			m.logger.EXPECT().Info(gomock.Any())
			m.metrics.EXPECT().ObserveBuild(gomock.Any())

			assert.True(t, b.Build(context.Background(), domain.Scripts).Success)
			assert.Equal(t, mode, b.ModeConfig(domain.Scripts).Mode)
		})
	}
}

func TestBuilder_Build_TransformFailure(t *testing.T) {
	b, m := setupBuilder(t, domain.Development)

	m.resolver.EXPECT().ResolveSources(gomock.Any(), gomock.Any()).Return([]string{root + "/src/scss/a.scss"}, nil)
	m.transformer.EXPECT().Transform(gomock.Any(), gomock.Any()).
		Return(domain.TransformOutput{}, domain.ErrTransformFailed)
	m.logger.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.ErrorContains(t, err, domain.ErrTransformFailed.Error())
	})
	m.metrics.EXPECT().ObserveBuild(gomock.Any()).Do(func(r domain.BuildResult) {
		assert.False(t, r.Success)
	})

	result := b.Build(context.Background(), domain.Styles)

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorDetail, domain.ErrTransformFailed.Error())
	assert.Empty(t, result.Outputs)
}

func TestBuilder_Build_RecoversPanic(t *testing.T) {
	b, m := setupBuilder(t, domain.Development)

	m.resolver.EXPECT().ResolveSources(gomock.Any(), gomock.Any()).Return(nil, nil)
	m.logger.EXPECT().Warn(gomock.Any())
	m.transformer.EXPECT().Transform(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, domain.TransformRequest) (domain.TransformOutput, error) {
			panic("boom")
		},
	)
	m.logger.EXPECT().Error(gomock.Any())
	m.metrics.EXPECT().ObserveBuild(gomock.Any())

	result := b.Build(context.Background(), domain.Images)

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorDetail, domain.ErrTransformFailed.Error())
}

func TestBuilder_Build_MissingTransformer(t *testing.T) {
	b, m := setupBuilder(t, domain.Development)

	m.logger.EXPECT().Error(gomock.Any())
	m.metrics.EXPECT().ObserveBuild(gomock.Any())

	result := b.Build(context.Background(), domain.Markup)

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorDetail, domain.ErrTransformerMissing.Error())
}

func TestBuilder_Build_WriteFailure(t *testing.T) {
	b, m := setupBuilder(t, domain.Development)

	m.resolver.EXPECT().ResolveSources(gomock.Any(), gomock.Any()).Return([]string{root + "/src/assets/x.png"}, nil)
	m.transformer.EXPECT().Transform(gomock.Any(), gomock.Any()).
		Return(domain.TransformOutput{Files: []domain.OutputFile{{Path: "x.png"}}}, nil)
	m.tree.EXPECT().Write(gomock.Any(), gomock.Any()).
		Return(nil, errors.New(domain.ErrOutputWriteFailed.Error()))
	m.logger.EXPECT().Error(gomock.Any())
	m.metrics.EXPECT().ObserveBuild(gomock.Any())

	result := b.Build(context.Background(), domain.Images)

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorDetail, domain.ErrOutputWriteFailed.Error())
}

func TestCleaner_Clean(t *testing.T) {
	ctrl := gomock.NewController(t)
	tree := mocks.NewMockOutputTree(ctrl)
	logger := mocks.NewMockLogger(ctrl)
	c := stage.NewCleaner(domain.NewPathConfig(root), tree, logger)

	tree.EXPECT().Clean(filepath.Join(root, "dist", "css"), "**/*.{css,css.map}").Return(2, nil)
	logger.EXPECT().Info("styles: removed 2 file(s) from dist/css")
	require.NoError(t, c.Clean(context.Background(), domain.Styles))

	tree.EXPECT().Clean(filepath.Join(root, "dist"), "*.html").Return(0, nil)
	require.NoError(t, c.Clean(context.Background(), domain.Markup))

	tree.EXPECT().Clean(gomock.Any(), gomock.Any()).Return(0, errors.New("permission denied"))
	err := c.Clean(context.Background(), domain.Images)
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrCleanFailed.Error())
	assert.ErrorContains(t, err, "permission denied")
}
