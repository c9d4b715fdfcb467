package notesrv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateENML(t *testing.T) {
	const header = `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<!DOCTYPE en-note SYSTEM "http://xml.evernote.com/pub/enml2.dtd">` + "\n"

	tests := []struct {
		name    string
		content string
		valid   bool
	}{
		{name: "plain pre", content: header + "<en-note><pre>a &lt; b</pre></en-note>", valid: true},
		{name: "html entity", content: header + "<en-note><p>a&nbsp;b</p></en-note>", valid: true},
		{name: "without header", content: "<en-note><p>x</p></en-note>", valid: true},
		{name: "empty", content: "  ", valid: false},
		{name: "wrong root", content: header + "<html><p>x</p></html>", valid: false},
		{name: "unclosed tag", content: header + "<en-note><p>x</en-note>", valid: false},
		{name: "void html tag", content: header + "<en-note>line<br>next</en-note>", valid: false},
		{name: "two roots", content: "<en-note/><en-note/>", valid: false},
		{name: "text outside root", content: "hello <en-note/>", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateENML(tt.content)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidENML)
			}
		})
	}
}
