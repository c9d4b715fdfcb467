package notesrv

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const enmlRoot = "en-note"

var ErrInvalidENML = errors.New("invalid ENML")

// ValidateENML checks that content is a well-formed XML document whose root
// element is <en-note>. DTD validation is out of scope.
func ValidateENML(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: empty content", ErrInvalidENML)
	}

	dec := xml.NewDecoder(strings.NewReader(content))
	dec.Strict = true
	dec.Entity = xml.HTMLEntity

	depth := 0
	sawRoot := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidENML, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if sawRoot {
					return fmt.Errorf("%w: multiple root elements", ErrInvalidENML)
				}
				if t.Name.Local != enmlRoot {
					return fmt.Errorf("%w: root element is <%s>, want <%s>", ErrInvalidENML, t.Name.Local, enmlRoot)
				}
				sawRoot = true
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && strings.TrimSpace(string(t)) != "" {
				return fmt.Errorf("%w: text outside <%s>", ErrInvalidENML, enmlRoot)
			}
		}
	}

	if !sawRoot {
		return fmt.Errorf("%w: missing <%s>", ErrInvalidENML, enmlRoot)
	}
	return nil
}
