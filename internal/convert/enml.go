package convert

import "strings"

const (
	enmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<!DOCTYPE en-note SYSTEM "http://xml.evernote.com/pub/enml2.dtd">` + "\n"
)

// WrapENML puts an XHTML body inside the ENML document envelope
func WrapENML(body []byte) []byte {
	out := make([]byte, 0, len(enmlHeader)+len(body)+32)
	out = append(out, enmlHeader...)
	out = append(out, "<en-note>"...)
	out = append(out, body...)
	out = append(out, "</en-note>"...)
	return out
}

// CleanText makes raw file content safe to embed in XML. Invalid UTF-8 becomes
// U+FFFD and characters XML 1.0 forbids, like form feed or ESC, are dropped.
func CleanText(raw []byte) string {
	return strings.Map(func(r rune) rune {
		if isXMLChar(r) {
			return r
		}
		return -1
	}, strings.ToValidUTF8(string(raw), "\uFFFD"))
}

func isXMLChar(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}
