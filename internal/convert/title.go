package convert

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Title derives a note title from a relative path:
// "work/meeting_notes/2024-q1.md" becomes "Work - Meeting notes - 2024 q1".
func Title(relPath string) string {
	components := strings.Split(strings.Trim(relPath, "/"), "/")

	last := components[len(components)-1]
	if idx := strings.LastIndexByte(last, '.'); idx > 0 {
		components[len(components)-1] = last[:idx]
	}

	for i, c := range components {
		c = capitalize(c)
		c = strings.NewReplacer("-", " ", "_", " ").Replace(c)
		components[i] = c
	}
	return strings.Join(components, " - ")
}

// capitalize upper-cases the first letter and lower-cases the rest
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
