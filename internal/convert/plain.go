package convert

import (
	"html"
)

// PlainConverter keeps the text as is inside a <pre> block
type PlainConverter struct{}

func (PlainConverter) Kind() Kind { return KindPlain }

func (PlainConverter) Convert(relPath string, raw []byte) (*Document, error) {
	body := "<pre>" + html.EscapeString(CleanText(raw)) + "</pre>"
	return &Document{
		Title:   Title(relPath),
		Content: WrapENML([]byte(body)),
	}, nil
}
