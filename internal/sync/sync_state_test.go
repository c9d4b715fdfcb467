package sync

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) *StateStore {
	t.Helper()
	return NewStateStore(filepath.Join(t.TempDir(), "state", "state.json"), nil)
}

func TestScope_Key(t *testing.T) {
	scope := Scope{Root: "/home/me/notes", Notebook: "Eversync"}
	assert.Equal(t, "/home/me/notes(Eversync)", scope.Key())
}

func TestStateStore_MissingFile(t *testing.T) {
	state := newTestState(t)

	_, ok := state.GetLastSyncTime(Scope{Root: "/r", Notebook: "n"})
	assert.False(t, ok)

	_, ok = state.Get("anything")
	assert.False(t, ok)
	assert.Empty(t, state.Scopes())
}

func TestStateStore_RoundTrip(t *testing.T) {
	state := newTestState(t)
	scope := Scope{Root: "/r", Notebook: "n"}
	ts := time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.UTC)

	require.NoError(t, state.SetLastSyncTime(scope, ts))

	got, ok := state.GetLastSyncTime(scope)
	require.True(t, ok)
	assert.True(t, got.Equal(ts))

	raw, err := os.ReadFile(state.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"2024-05-06T07:08:09.123456789Z"`)
}

func TestStateStore_PreservesOtherKeys(t *testing.T) {
	state := newTestState(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(state.Path()), 0o755))
	require.NoError(t, os.WriteFile(state.Path(), []byte(`{
		"user": {"name": "me"},
		"sync_time": {"/other(nb)": "2023-01-01T00:00:00Z"}
	}`), 0o644))

	scope := Scope{Root: "/r", Notebook: "n"}
	require.NoError(t, state.SetLastSyncTime(scope, baseTime))

	name, ok := state.Get("user", "name")
	require.True(t, ok)
	assert.Equal(t, "me", name)

	other, ok := state.GetLastSyncTime(Scope{Root: "/other", Notebook: "nb"})
	require.True(t, ok)
	assert.Equal(t, 2023, other.Year())

	scopes := state.Scopes()
	assert.Len(t, scopes, 2)
	assert.True(t, scopes["/r(n)"].Equal(baseTime))
}

func TestStateStore_SetNested(t *testing.T) {
	state := newTestState(t)

	require.NoError(t, state.Set("v1", "a", "b", "c"))
	require.NoError(t, state.Set(2, "a", "d"))
	// a scalar in the way is replaced by an object
	require.NoError(t, state.Set("x", "a", "d", "e"))

	v, ok := state.Get("a", "b", "c")
	require.True(t, ok)
	assert.Equal(t, "v1", v)

	v, ok = state.Get("a", "d", "e")
	require.True(t, ok)
	assert.Equal(t, "x", v)

	assert.Error(t, state.Set("v"))
}

func TestStateStore_CorruptFile(t *testing.T) {
	state := newTestState(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(state.Path()), 0o755))
	require.NoError(t, os.WriteFile(state.Path(), []byte(`{not json`), 0o644))

	scope := Scope{Root: "/r", Notebook: "n"}
	_, ok := state.GetLastSyncTime(scope)
	assert.False(t, ok)
	assert.Empty(t, state.Scopes())
}

func TestStateStore_WriteFailsOnTruncatedFile(t *testing.T) {
	state := newTestState(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(state.Path()), 0o755))

	truncated := []byte(`{"other_tool":{"k":"v"},"sync_time":{"/old(n)":"2023-01-01T00:00:00Z"}`)
	require.NoError(t, os.WriteFile(state.Path(), truncated, 0o644))

	err := state.SetLastSyncTime(Scope{Root: "/r", Notebook: "n"}, baseTime)
	require.Error(t, err)

	raw, err := os.ReadFile(state.Path())
	require.NoError(t, err)
	assert.Equal(t, truncated, raw)
	assert.NoFileExists(t, state.Path()+".corrupt")
}

func TestStateStore_InvalidTimestamp(t *testing.T) {
	state := newTestState(t)
	scope := Scope{Root: "/r", Notebook: "n"}

	require.NoError(t, state.Set(map[string]any{"nested": true}, syncTimeKey, scope.Key()))
	_, ok := state.GetLastSyncTime(scope)
	assert.False(t, ok)

	require.NoError(t, state.Set("yesterday", syncTimeKey, scope.Key()))
	_, ok = state.GetLastSyncTime(scope)
	assert.False(t, ok)

	// unix seconds as written by older clients
	require.NoError(t, state.Set(1700000000.5, syncTimeKey, scope.Key()))
	got, ok := state.GetLastSyncTime(scope)
	require.True(t, ok)
	assert.Equal(t, int64(1700000000500), got.UnixMilli())
}

func TestStateStore_WriteLeavesNoTempFiles(t *testing.T) {
	state := newTestState(t)
	for i := range 5 {
		require.NoError(t, state.SetLastSyncTime(Scope{Root: "/r", Notebook: "n"}, baseTime.Add(time.Duration(i)*time.Minute)))
	}

	entries, err := os.ReadDir(filepath.Dir(state.Path()))
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"state.json", "state.json.lock"}, names)

	raw, err := os.ReadFile(state.Path())
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Contains(t, doc, syncTimeKey)
}

func TestShouldSync(t *testing.T) {
	last := baseTime
	older := []*LocalFile{localFile("a.md", last.Add(-time.Hour)), localFile("b.md", last.Add(-time.Minute))}
	newer := []*LocalFile{localFile("a.md", last.Add(-time.Hour)), localFile("b.md", last.Add(time.Second))}
	equal := []*LocalFile{localFile("a.md", last)}

	tests := []struct {
		name    string
		hasLast bool
		files   []*LocalFile
		force   bool
		want    bool
	}{
		{"no prior sync", false, older, false, true},
		{"no prior sync and no files", false, nil, false, true},
		{"force", true, older, true, true},
		{"all older", true, older, false, false},
		{"equal is not newer", true, equal, false, false},
		{"one newer", true, newer, false, true},
		{"no files", true, nil, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldSync(last, tt.hasLast, tt.files, tt.force))
		})
	}
}

func TestStateStore_ShouldSync(t *testing.T) {
	state := newTestState(t)
	scope := Scope{Root: "/r", Notebook: "n"}
	files := []*LocalFile{localFile("a.md", baseTime)}

	assert.True(t, state.ShouldSync(scope, files, false))

	require.NoError(t, state.SetLastSyncTime(scope, baseTime.Add(time.Minute)))
	assert.False(t, state.ShouldSync(scope, files, false))
	assert.True(t, state.ShouldSync(scope, files, true))

	// scopes are independent
	assert.True(t, state.ShouldSync(Scope{Root: "/r", Notebook: "other"}, files, false))
}
