package convert

import (
	"regexp"
	"strings"

	"github.com/niklasfasching/go-org/org"
)

// void elements go-org may emit in HTML form
var regexVoidTag = regexp.MustCompile(`<(br|hr|img|input|col|wbr)(\s[^<>]*?)?\s*/?>`)

// OrgConverter renders org-mode outlines to HTML
type OrgConverter struct{}

func (OrgConverter) Kind() Kind { return KindOrg }

func (OrgConverter) Convert(relPath string, raw []byte) (*Document, error) {
	doc := org.New().Parse(strings.NewReader(CleanText(raw)), relPath)

	writer := org.NewHTMLWriter()
	writer.TopLevelHLevel = 2

	out, err := doc.Write(writer)
	if err != nil {
		return nil, err
	}

	return &Document{
		Title:   Title(relPath),
		Content: WrapENML([]byte(toXHTML(out))),
	}, nil
}

// toXHTML self-closes void elements so the result is well-formed XML
func toXHTML(s string) string {
	return regexVoidTag.ReplaceAllString(s, "<$1$2 />")
}
