package convert

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// MarkdownConverter renders GitHub flavoured markdown to XHTML
type MarkdownConverter struct {
	md goldmark.Markdown
}

func NewMarkdownConverter() *MarkdownConverter {
	return &MarkdownConverter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithXHTML()),
		),
	}
}

func (m *MarkdownConverter) Kind() Kind { return KindMarkdown }

func (m *MarkdownConverter) Convert(relPath string, raw []byte) (*Document, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(CleanText(raw)), &buf); err != nil {
		return nil, err
	}
	return &Document{
		Title:   Title(relPath),
		Content: WrapENML(buf.Bytes()),
	}, nil
}
