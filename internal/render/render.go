package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/siteforge/internal/frontmatter"
)

// Renderer turns one document's source text into an HTML fragment. sourceDir
// is the document's parent directory and is used to resolve relative
// references.
type Renderer interface {
	Render(ctx context.Context, source, sourceDir string) (string, error)
}

// Func adapts a function to Renderer.
type Func func(ctx context.Context, source, sourceDir string) (string, error)

// Render calls f.
func (f Func) Render(ctx context.Context, source, sourceDir string) (string, error) {
	return f(ctx, source, sourceDir)
}

// Goldmark is the default Renderer.
type Goldmark struct {
	md       goldmark.Markdown
	settings Settings
}

// New builds a goldmark pipeline for settings.
func New(settings Settings) *Goldmark {
	var exts []goldmark.Extender
	if settings.GFM {
		exts = append(exts, extension.GFM)
	}
	if settings.Typographer {
		exts = append(exts, extension.Typographer)
	}
	if settings.Footnotes {
		exts = append(exts, extension.Footnote)
	}

	var parserOpts []parser.Option
	if settings.HeadingIDs {
		parserOpts = append(parserOpts, parser.WithAutoHeadingID())
	}

	var rendererOpts []goldmark.Option
	var htmlOpts []renderer.Option
	if settings.HardWraps {
		htmlOpts = append(htmlOpts, html.WithHardWraps())
	}
	if settings.Unsafe {
		htmlOpts = append(htmlOpts, html.WithUnsafe())
	}
	rendererOpts = append(rendererOpts,
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parserOpts...),
		goldmark.WithRendererOptions(htmlOpts...),
	)

	return &Goldmark{md: goldmark.New(rendererOpts...), settings: settings}
}

// Settings returns the settings the pipeline was built with.
func (g *Goldmark) Settings() Settings { return g.settings }

// Render implements Renderer.
func (g *Goldmark) Render(ctx context.Context, source, sourceDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc, err := frontmatter.Parse([]byte(source))
	if err != nil {
		return "", fmt.Errorf("frontmatter: %w", err)
	}

	body, err := expandImports(string(doc.Body), sourceDir, nil)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := g.md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return buf.String(), nil
}
