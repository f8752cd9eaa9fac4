// Package styles concatenates stylesheets into a single CSS bundle using esbuild.
package styles

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/kiln/internal/adapters/transform"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ ports.Transformer = (*Transformer)(nil)

// Referenced binary files stay as plain url() references.
var externalAssets = []string{
	"/*",
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.svg", "*.webp", "*.avif", "*.ico",
	"*.woff", "*.woff2", "*.ttf", "*.otf", "*.eot",
}

// Transformer implements ports.Transformer for stylesheets.
//
// Every source becomes an @import of a synthesized entry, so the sources are
// concatenated in order and their own imports are inlined by the bundler.
// Nesting and modern syntax are lowered and vendor prefixes are added
// according to the configured browser targets.
type Transformer struct{}

// New creates a new styles Transformer.
func New() *Transformer {
	return &Transformer{}
}

// Transform bundles req.Sources into the configured bundle file.
func (t *Transformer) Transform(_ context.Context, req domain.TransformRequest) (domain.TransformOutput, error) {
	if len(req.Sources) == 0 {
		return domain.TransformOutput{}, nil
	}

	cfg := req.Config
	entry := entryContents(req.SourceRoot, req.Sources)

	if !cfg.Minify {
		css, err := t.bundle(req, entry, cfg)
		if err != nil {
			return domain.TransformOutput{}, err
		}
		return domain.TransformOutput{
			Files: []domain.OutputFile{{Path: cfg.Bundle, Contents: css}},
		}, nil
	}

	// Production: measure the readable output first so the saving can be reported.
	readable := cfg
	readable.Minify = false
	readable.SourceMaps = false
	readable.OutputStyle = domain.OutputNested
	original, err := t.bundle(req, entry, readable)
	if err != nil {
		return domain.TransformOutput{}, err
	}

	minified, err := t.bundle(req, entry, cfg)
	if err != nil {
		return domain.TransformOutput{}, err
	}

	var sizes *domain.SizeStats
	if cfg.ReportSizes {
		sizes = &domain.SizeStats{Original: int64(len(original)), Transformed: int64(len(minified))}
	}

	return domain.TransformOutput{
		Files: []domain.OutputFile{{Path: cfg.Bundle, Contents: minified}},
		Sizes: sizes,
	}, nil
}

func (t *Transformer) bundle(req domain.TransformRequest, entry string, cfg domain.ModeConfig) ([]byte, error) {
	result := api.Build(api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   entry,
			ResolveDir: req.SourceRoot,
			Sourcefile: cfg.Bundle,
			Loader:     api.LoaderCSS,
		},
		AbsWorkingDir:     req.SourceRoot,
		Bundle:            true,
		Write:             false,
		Outfile:           filepath.Join(req.SourceRoot, ".kiln", cfg.Bundle),
		Loader:            map[string]api.Loader{".scss": api.LoaderCSS, ".css": api.LoaderCSS},
		ResolveExtensions: []string{".scss", ".css"},
		External:          externalAssets,
		Engines:           transform.Engines(cfg.Targets),
		MinifyWhitespace:  cfg.Minify || cfg.OutputStyle == domain.OutputCompressed,
		MinifyIdentifiers: cfg.Minify,
		MinifySyntax:      cfg.Minify,
		Sourcemap:         transform.SourceMap(cfg),
		LogLevel:          api.LogLevelSilent,
	})

	if err := transform.BuildError(result.Errors); err != nil {
		return nil, err
	}

	for _, file := range result.OutputFiles {
		if strings.HasSuffix(file.Path, ".css") {
			return file.Contents, nil
		}
	}
	return []byte{}, nil
}

// entryContents synthesizes a stylesheet importing every source in order.
func entryContents(root string, sources []string) string {
	var b strings.Builder
	for _, src := range sources {
		rel, err := filepath.Rel(root, src)
		if err != nil {
			rel = src
		}
		fmt.Fprintf(&b, "@import %q;\n", "./"+filepath.ToSlash(rel))
	}
	return b.String()
}
