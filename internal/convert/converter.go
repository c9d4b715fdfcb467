// Package convert turns local text files into ENML note documents.
package convert

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// Kind is the closed set of supported source formats
type Kind string

const (
	KindPlain    Kind = "plain"
	KindMarkdown Kind = "markdown"
	KindOrg      Kind = "org"
)

var ErrUnsupportedExtension = errors.New("unsupported file extension")

// Document is a converted note: a title and an ENML body
type Document struct {
	Title   string
	Content []byte
}

// Converter renders the raw bytes of one file. relPath is the slash separated
// path relative to the sync root, used to derive the title.
type Converter interface {
	Kind() Kind
	Convert(relPath string, raw []byte) (*Document, error)
}

// DefaultExtensions maps file extensions to the converter kind handling them
var DefaultExtensions = map[string]Kind{
	"txt":      KindPlain,
	"md":       KindMarkdown,
	"markdown": KindMarkdown,
	"org":      KindOrg,
}

// Registry resolves a converter from a file extension. It is built once and
// only read afterwards.
type Registry struct {
	byExt map[string]Converter
}

// NewRegistry builds a registry for the given extension table
func NewRegistry(table map[string]Kind) (*Registry, error) {
	converters := map[Kind]Converter{
		KindPlain:    PlainConverter{},
		KindMarkdown: NewMarkdownConverter(),
		KindOrg:      OrgConverter{},
	}

	byExt := make(map[string]Converter, len(table))
	for ext, kind := range table {
		conv, ok := converters[kind]
		if !ok {
			return nil, fmt.Errorf("extension %q: unknown converter kind %q", ext, kind)
		}
		byExt[ext] = conv
	}

	return &Registry{byExt: byExt}, nil
}

// NewDefaultRegistry builds the registry for DefaultExtensions
func NewDefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultExtensions)
	if err != nil {
		panic(err)
	}
	return r
}

// Extensions returns the registered extensions, sorted
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

func (r *Registry) Lookup(ext string) (Converter, error) {
	conv, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}
	return conv, nil
}

// ConvertFile reads root/relPath and converts it with the converter registered
// for its extension.
func (r *Registry) ConvertFile(root, relPath string) (*Document, error) {
	conv, err := r.Lookup(Ext(relPath))
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(relPath)))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", relPath, err)
	}

	doc, err := conv.Convert(relPath, raw)
	if err != nil {
		return nil, fmt.Errorf("convert %s as %s: %w", relPath, conv.Kind(), err)
	}
	return doc, nil
}

// Ext returns the part of the file name after its last dot. A name without a
// dot is its own extension.
func Ext(p string) string {
	name := path.Base(filepath.ToSlash(p))
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
