// Package markup renders page templates and markdown pages to HTML files.
package markup

import (
	"bytes"
	"context"
	"html/template"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.Transformer  = (*Transformer)(nil)
	_ ports.OutputMapper = (*Transformer)(nil)
)

// LayoutTemplate is the template markdown pages are wrapped in when defined.
const LayoutTemplate = "layout"

const fallbackLayout = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
{{.Content}}
</body>
</html>
`

// Page is the data every page template is executed with.
type Page struct {
	// Title is the first level-one markdown heading, or the page name.
	Title string
	// Path is the output path of the page, slash-separated.
	Path string
	// Mode is "development" or "production".
	Mode string
	// Content is the rendered markdown body. Empty for template pages.
	Content template.HTML
}

// Transformer implements ports.Transformer for markup.
type Transformer struct {
	md goldmark.Markdown
}

// New creates a new markup Transformer.
func New() *Transformer {
	return &Transformer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}
}

// OutputPath maps a page path relative to the pages directory to its HTML file.
func (t *Transformer) OutputPath(rel string) string {
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, path.Ext(rel)) + ".html"
}

// Transform renders every page in req.Sources.
func (t *Transformer) Transform(ctx context.Context, req domain.TransformRequest) (domain.TransformOutput, error) {
	if len(req.Sources) == 0 {
		return domain.TransformOutput{}, nil
	}

	pages := make(map[string]bool, len(req.Sources))
	for _, src := range req.Sources {
		pages[src] = true
	}

	base, err := t.loadShared(req.IncludeRoot, pages)
	if err != nil {
		return domain.TransformOutput{}, err
	}

	files := make([]domain.OutputFile, 0, len(req.Sources))
	for _, src := range req.Sources {
		if err := ctx.Err(); err != nil {
			return domain.TransformOutput{}, err
		}

		rel, err := filepath.Rel(req.SourceRoot, src)
		if err != nil {
			rel = filepath.Base(src)
		}
		out := t.OutputPath(rel)

		rendered, err := t.renderPage(base, src, out, req.Config)
		if err != nil {
			return domain.TransformOutput{}, zerr.With(err, "file", src)
		}

		formatted, err := Format(rendered, req.Config.Pretty)
		if err != nil {
			return domain.TransformOutput{}, zerr.With(zerr.Wrap(err, domain.ErrTransformFailed.Error()), "file", src)
		}
		files = append(files, domain.OutputFile{Path: out, Contents: formatted})
	}

	return domain.TransformOutput{Files: files}, nil
}

// loadShared parses every HTML template below root that is not a page.
// Each is registered under its root-relative path without extension, so
// "partials/header.html" is available as {{template "partials/header" .}}.
func (t *Transformer) loadShared(root string, pages map[string]bool) (*template.Template, error) {
	base := template.New("")
	if root == "" {
		return base, nil
	}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || pages[p] || filepath.Ext(p) != ".html" {
			return nil
		}

		content, err := os.ReadFile(p) //nolint:gosec // Path is below the configured views root
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), ".html")
		if _, err := base.New(name).Parse(string(content)); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrTransformFailed.Error()), "file", p)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return base, nil
}

func (t *Transformer) renderPage(base *template.Template, src, out string, cfg domain.ModeConfig) ([]byte, error) {
	content, err := os.ReadFile(src) //nolint:gosec // Path comes from the resolved source glob
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrSourceResolutionFailed.Error())
	}

	set, err := base.Clone()
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrTransformFailed.Error())
	}

	page := Page{
		Title: strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		Path:  out,
		Mode:  cfg.Mode.String(),
	}

	entry := out
	if filepath.Ext(src) == ".md" {
		body, title, err := t.markdown(content)
		if err != nil {
			return nil, err
		}
		page.Content = template.HTML(body) //nolint:gosec // Markdown pages are trusted project sources
		if title != "" {
			page.Title = title
		}

		entry = LayoutTemplate
		if set.Lookup(LayoutTemplate) == nil {
			if _, err := set.New(LayoutTemplate).Parse(fallbackLayout); err != nil {
				return nil, zerr.Wrap(err, domain.ErrTransformFailed.Error())
			}
		}
	} else if _, err := set.New(entry).Parse(string(content)); err != nil {
		return nil, zerr.Wrap(err, domain.ErrTransformFailed.Error())
	}

	var buf bytes.Buffer
	if err := set.ExecuteTemplate(&buf, entry, page); err != nil {
		return nil, zerr.Wrap(err, domain.ErrTransformFailed.Error())
	}
	return buf.Bytes(), nil
}

// markdown converts a markdown body to HTML and extracts the first h1.
func (t *Transformer) markdown(source []byte) (string, string, error) {
	doc := t.md.Parser().Parse(text.NewReader(source))

	var title string
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		heading, ok := n.(*gmast.Heading)
		if !entering || !ok || heading.Level != 1 {
			return gmast.WalkContinue, nil
		}
		title = headingText(heading, source)
		return gmast.WalkStop, nil
	})

	var buf bytes.Buffer
	if err := t.md.Renderer().Render(&buf, source, doc); err != nil {
		return "", "", zerr.Wrap(err, domain.ErrTransformFailed.Error())
	}
	return buf.String(), title, nil
}

func headingText(n gmast.Node, source []byte) string {
	var b strings.Builder
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if t, ok := c.(*gmast.Text); ok && entering {
			b.Write(t.Segment.Value(source))
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
