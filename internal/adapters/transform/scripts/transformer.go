// Package scripts bundles the JavaScript entry module using esbuild.
package scripts

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/kiln/internal/adapters/transform"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Transformer = (*Transformer)(nil)

// Transformer implements ports.Transformer for scripts.
type Transformer struct{}

// New creates a new scripts Transformer.
func New() *Transformer {
	return &Transformer{}
}

// Transform bundles the single entry module and everything it imports.
func (t *Transformer) Transform(_ context.Context, req domain.TransformRequest) (domain.TransformOutput, error) {
	if len(req.Sources) != 1 {
		return domain.TransformOutput{}, zerr.With(
			zerr.With(domain.ErrEntryModuleNotFound, "matched", len(req.Sources)),
			"source_root", req.SourceRoot,
		)
	}
	entry := req.Sources[0]
	cfg := req.Config

	result := api.Build(api.BuildOptions{
		EntryPoints:       []string{entry},
		AbsWorkingDir:     filepath.Dir(entry),
		Bundle:            true,
		Write:             false,
		Outfile:           filepath.Join(filepath.Dir(entry), ".kiln", cfg.Bundle),
		Format:            api.FormatIIFE,
		Target:            api.ES2015,
		Platform:          api.PlatformBrowser,
		JSX:               api.JSXAutomatic,
		Loader:            map[string]api.Loader{".js": api.LoaderJSX},
		MinifyWhitespace:  cfg.Minify,
		MinifyIdentifiers: cfg.Minify,
		MinifySyntax:      cfg.Minify,
		TreeShaking:       api.TreeShakingTrue,
		Sourcemap:         transform.SourceMap(cfg),
		Define: map[string]string{
			"process.env.NODE_ENV": `"` + cfg.Mode.String() + `"`,
		},
		LogLevel: api.LogLevelSilent,
	})

	if err := transform.BuildError(result.Errors); err != nil {
		return domain.TransformOutput{}, zerr.With(err, "entry", entry)
	}

	for _, file := range result.OutputFiles {
		if strings.HasSuffix(file.Path, ".js") {
			return domain.TransformOutput{
				Files: []domain.OutputFile{{Path: cfg.Bundle, Contents: file.Contents}},
			}, nil
		}
	}
	return domain.TransformOutput{}, zerr.With(domain.ErrTransformFailed, "entry", entry)
}
