package render

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts authored Markdown to the HTML that is stored on the
// post and mailed to subscribers. Rendering happens once, at creation.
type Renderer interface {
	Render(markdown string) string
}

type markdownRenderer struct {
	md goldmark.Markdown
}

func NewMarkdownRenderer() Renderer {
	return &markdownRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

// Render is best-effort: on a conversion error it returns the source as-is
// rather than failing post creation.
func (r *markdownRenderer) Render(markdown string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return markdown
	}
	return buf.String()
}
