// Package images mirrors binary assets, recompressing PNG and JPEG files.
package images

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var (
	_ ports.Transformer  = (*Transformer)(nil)
	_ ports.OutputMapper = (*Transformer)(nil)
)

// JPEGQuality is the quality used when re-encoding JPEG files.
const JPEGQuality = 82

// Transformer implements ports.Transformer for binary assets.
type Transformer struct {
	workers int
}

// New creates a new images Transformer.
func New() *Transformer {
	return &Transformer{workers: runtime.GOMAXPROCS(0)}
}

// OutputPath mirrors the source path.
func (t *Transformer) OutputPath(rel string) string {
	return filepath.ToSlash(rel)
}

// Transform mirrors every source below the output directory. PNG files are
// re-encoded losslessly with the best compression level and JPEG files at
// JPEGQuality; whichever of the original and re-encoded bytes is smaller wins.
func (t *Transformer) Transform(ctx context.Context, req domain.TransformRequest) (domain.TransformOutput, error) {
	files := make([]domain.OutputFile, len(req.Sources))
	originals := make([]int64, len(req.Sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(t.workers, 1))

	for i, src := range req.Sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			rel, err := filepath.Rel(req.SourceRoot, src)
			if err != nil {
				rel = filepath.Base(src)
			}

			data, err := os.ReadFile(src) //nolint:gosec // Path comes from the resolved source glob
			if err != nil {
				return zerr.With(zerr.Wrap(err, domain.ErrSourceResolutionFailed.Error()), "file", src)
			}
			originals[i] = int64(len(data))

			out := data
			if req.Config.Compress {
				out, err = compress(data, filepath.Ext(src))
				if err != nil {
					return zerr.With(zerr.Wrap(err, domain.ErrTransformFailed.Error()), "file", src)
				}
			}

			files[i] = domain.OutputFile{Path: t.OutputPath(rel), Contents: out}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.TransformOutput{}, err
	}

	var sizes *domain.SizeStats
	if req.Config.ReportSizes {
		sizes = &domain.SizeStats{}
		for i, f := range files {
			sizes.Original += originals[i]
			sizes.Transformed += int64(len(f.Contents))
		}
	}

	return domain.TransformOutput{Files: files, Sizes: sizes}, nil
}

// compress returns the smaller of data and its re-encoding.
// Formats other than PNG and JPEG are returned unchanged.
func compress(data []byte, ext string) ([]byte, error) {
	var encode func(img image.Image, buf *bytes.Buffer) error

	switch strings.ToLower(ext) {
	case ".png":
		encode = func(img image.Image, buf *bytes.Buffer) error {
			enc := png.Encoder{CompressionLevel: png.BestCompression}
			return enc.Encode(buf, img)
		}
	case ".jpg", ".jpeg":
		encode = func(img image.Image, buf *bytes.Buffer) error {
			return jpeg.Encode(buf, img, &jpeg.Options{Quality: JPEGQuality})
		}
	default:
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := encode(img, &buf); err != nil {
		return nil, err
	}
	if buf.Len() >= len(data) {
		return data, nil
	}
	return buf.Bytes(), nil
}
