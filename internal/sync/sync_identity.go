package sync

import (
	"errors"
	"fmt"
	"strings"
)

const (
	sourceURLScheme = "eversync://"
)

var (
	ErrInvalidSourceURL = errors.New("invalid source url")
)

// DeriveKey returns the external key a note carries in its source url
// attribute: `eversync://{notebook}/{path}`. Separators are normalized to `/`,
// spaces to `-`, and both parts are lower-cased, so paths that differ only in
// case or spacing map to the same note.
func DeriveKey(notebook, relPath string) string {
	path := strings.ToLower(strings.NewReplacer(`\`, "/", " ", "-").Replace(relPath))
	nb := strings.ToLower(strings.ReplaceAll(notebook, " ", "-"))
	return sourceURLScheme + nb + "/" + path
}

// SourceURL is a parsed external key
type SourceURL struct {
	Notebook string
	Path     string
}

func (s *SourceURL) String() string {
	return sourceURLScheme + s.Notebook + "/" + s.Path
}

// ParseSourceURL splits a key produced by DeriveKey back into its parts.
// Paths are kept verbatim, no url unescaping is applied.
func ParseSourceURL(raw string) (*SourceURL, error) {
	rest, ok := strings.CutPrefix(raw, sourceURLScheme)
	if !ok {
		return nil, fmt.Errorf("%w: %q: expected scheme %q", ErrInvalidSourceURL, raw, sourceURLScheme)
	}

	notebook, path, ok := strings.Cut(rest, "/")
	if !ok || notebook == "" {
		return nil, fmt.Errorf("%w: %q: missing notebook", ErrInvalidSourceURL, raw)
	}
	if path == "" {
		return nil, fmt.Errorf("%w: %q: missing path", ErrInvalidSourceURL, raw)
	}

	return &SourceURL{Notebook: notebook, Path: path}, nil
}
