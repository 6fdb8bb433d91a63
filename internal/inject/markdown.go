package inject

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Renderer converts model markdown into HTML that is safe to drop into the surface.
type Renderer struct {
	convert func(source []byte, w io.Writer) error
	policy  *bluemonday.Policy
}

// NewRenderer uses GFM extensions and the bluemonday UGC policy.
func NewRenderer() *Renderer {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	return &Renderer{
		convert: func(source []byte, w io.Writer) error { return md.Convert(source, w) },
		policy:  bluemonday.UGCPolicy(),
	}
}

// Render returns sanitized HTML for text.
func (r *Renderer) Render(text string) (string, error) {
	var buf bytes.Buffer
	if err := r.convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimSpace(r.policy.Sanitize(buf.String())), nil
}

// RenderOrEscape never fails: when markdown conversion errors the escaped
// raw text is returned instead.
func (r *Renderer) RenderOrEscape(text string) string {
	if r == nil {
		return html.EscapeString(text)
	}
	out, err := r.Render(text)
	if err != nil {
		return html.EscapeString(text)
	}
	return out
}
