package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey(t *testing.T) {
	tests := []struct {
		notebook string
		relPath  string
		expected string
	}{
		{"Eversync", "notes/a.md", "eversync://eversync/notes/a.md"},
		{"My Notes", "Work/Meeting Notes.md", "eversync://my-notes/work/meeting-notes.md"},
		{"journal", `daily\2024\Jan 01.txt`, "eversync://journal/daily/2024/jan-01.txt"},
		{"x", "README", "eversync://x/readme"},
	}

	for _, tt := range tests {
		t.Run(tt.relPath, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveKey(tt.notebook, tt.relPath))
		})
	}
}

func TestDeriveKey_Deterministic(t *testing.T) {
	assert.Equal(t, DeriveKey("Eversync", "a/b.md"), DeriveKey("Eversync", "a/b.md"))

	// pairs that normalize the same way share one key
	assert.Equal(t, DeriveKey("My Notes", "A/B.md"), DeriveKey("my-notes", "a/b.md"))
	assert.Equal(t, DeriveKey("n", "a b.md"), DeriveKey("n", "a-b.md"))

	assert.NotEqual(t, DeriveKey("n", "a/b.md"), DeriveKey("m", "a/b.md"))
	assert.NotEqual(t, DeriveKey("n", "a/b.md"), DeriveKey("n", "a/b.txt"))
}

func TestParseSourceURL(t *testing.T) {
	src, err := ParseSourceURL(DeriveKey("My Notes", "work/plan 2024.md"))
	require.NoError(t, err)
	assert.Equal(t, "my-notes", src.Notebook)
	assert.Equal(t, "work/plan-2024.md", src.Path)
	assert.Equal(t, "eversync://my-notes/work/plan-2024.md", src.String())

	for _, raw := range []string{
		"",
		"https://example.com/a.md",
		"eversync://",
		"eversync:///a.md",
		"eversync://notebook",
		"eversync://notebook/",
	} {
		_, err := ParseSourceURL(raw)
		assert.ErrorIs(t, err, ErrInvalidSourceURL, raw)
	}
}
