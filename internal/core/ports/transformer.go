package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

//go:generate mockgen -source=transformer.go -destination=mocks/mock_transformer.go -package=mocks

// Transformer converts the sources of one asset class into output files.
// Implementations receive a fully resolved ModeConfig and never look at the
// build mode themselves. They must not write to the output directory.
type Transformer interface {
	Transform(ctx context.Context, req domain.TransformRequest) (domain.TransformOutput, error)
}

// OutputMapper is implemented by transformers that produce one output file per
// source file. It lets a removed source be mirrored by removing its output.
type OutputMapper interface {
	// OutputPath maps a source path relative to the source root to an output
	// path relative to the output directory. Both are slash-separated.
	OutputPath(rel string) string
}

// TransformerSet maps every asset class to its transformer.
type TransformerSet map[domain.AssetClass]Transformer
