package sync

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eversync/eversync/internal/convert"
	"github.com/eversync/eversync/internal/notesdk"
	"github.com/eversync/eversync/internal/notesrv"
)

const testToken = "S=s1:U=engine-test"

type testEnv struct {
	root   string
	state  *StateStore
	srv    *notesrv.Server
	engine *SyncEngine
	clock  time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	srv := notesrv.New(&notesrv.Config{Token: testToken}, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	sdk, err := notesdk.New(&notesdk.SDKConfig{BaseURL: ts.URL, Token: testToken})
	require.NoError(t, err)
	t.Cleanup(sdk.Close)

	env := &testEnv{
		root:  t.TempDir(),
		state: NewStateStore(filepath.Join(t.TempDir(), "state.json"), nil),
		srv:   srv,
	}
	env.engine = NewEngine(NewSDKStore(sdk), convert.NewDefaultRegistry(), env.state,
		WithWorkers(2),
		WithClock(func() time.Time { return env.clock }),
	)
	return env
}

func (e *testEnv) run(t *testing.T, at time.Time, force bool) *Report {
	t.Helper()
	e.clock = at
	report, err := e.engine.Run(context.Background(), RunParams{Root: e.root, Notebook: testNotebook, Force: force})
	require.NoError(t, err)
	return report
}

func (e *testEnv) notes(t *testing.T) map[string]*notesdk.Note {
	t.Helper()
	out := make(map[string]*notesdk.Note)
	notes, _ := e.srv.Store().FindNotes(notesdk.NoteFilter{}, 0, 1000)
	for _, n := range notes {
		out[n.Attributes.SourceURL] = n
	}
	return out
}

func TestSyncEngine_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	writeFile(t, env.root, "a.md", "# Alpha\n\nfirst", baseTime)
	writeFile(t, env.root, "notes/b.txt", "bravo <b>", baseTime)
	writeFile(t, env.root, "ignored.png", "png", baseTime)

	keyA := DeriveKey(testNotebook, "a.md")
	keyB := DeriveKey(testNotebook, "notes/b.txt")

	// first run creates the notebook and every note
	report := env.run(t, baseTime.Add(time.Hour), false)
	assert.False(t, report.Skipped)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 2, report.Files)
	assert.Equal(t, Tally{Created: 2}, report.Tally)

	notes := env.notes(t)
	require.Len(t, notes, 2)
	assert.Equal(t, "A", notes[keyA].Title)
	assert.Equal(t, "Notes - B", notes[keyB].Title)
	assert.Contains(t, notes[keyB].Content, "bravo &lt;b&gt;")

	last, ok := env.state.GetLastSyncTime(report.Scope)
	require.True(t, ok)
	assert.True(t, last.Equal(baseTime.Add(time.Hour)))

	// nothing changed since
	report = env.run(t, baseTime.Add(2*time.Hour), false)
	assert.True(t, report.Skipped)
	assert.Zero(t, report.Tally.Total())

	// forced run finds nothing to do
	report = env.run(t, baseTime.Add(3*time.Hour), true)
	assert.False(t, report.Skipped)
	assert.Zero(t, report.Creates+report.Updates+report.Deletes)

	// touching a file updates its note only
	writeFile(t, env.root, "a.md", "# Alpha\n\nsecond", baseTime.Add(4*time.Hour))
	report = env.run(t, baseTime.Add(5*time.Hour), false)
	assert.Equal(t, Tally{Updated: 1}, report.Tally)

	notes = env.notes(t)
	assert.Contains(t, notes[keyA].Content, "second")
	assert.Equal(t, baseTime.Add(5*time.Hour).UnixMilli(), notes[keyA].Updated)

	// a removal alone does not pass the gate
	require.NoError(t, os.Remove(filepath.Join(env.root, "notes", "b.txt")))
	report = env.run(t, baseTime.Add(6*time.Hour), false)
	assert.True(t, report.Skipped)

	report = env.run(t, baseTime.Add(7*time.Hour), true)
	assert.Equal(t, Tally{Removed: 1}, report.Tally)

	notes = env.notes(t)
	assert.Len(t, notes, 1)
	assert.Contains(t, notes, keyA)
}

func TestSyncEngine_ReusesNotebook(t *testing.T) {
	env := newTestEnv(t)
	existing, err := env.srv.Store().CreateNotebook(testNotebook, false)
	require.NoError(t, err)
	writeFile(t, env.root, "a.md", "a", baseTime)

	env.run(t, baseTime.Add(time.Hour), false)

	assert.Len(t, env.srv.Store().ListNotebooks(), 1)
	notes, total := env.srv.Store().FindNotes(notesdk.NoteFilter{NotebookGUID: existing.GUID}, 0, 10)
	assert.Equal(t, 1, total)
	assert.Equal(t, "A", notes[0].Title)
}

func TestSyncEngine_EmptyRootFirstRun(t *testing.T) {
	env := newTestEnv(t)

	report := env.run(t, baseTime, false)
	assert.False(t, report.Skipped)
	assert.Zero(t, report.Tally.Total())

	_, ok := env.state.GetLastSyncTime(report.Scope)
	assert.True(t, ok)
}

func TestSyncEngine_MissingRoot(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.engine.Run(context.Background(), RunParams{Root: filepath.Join(env.root, "nope"), Notebook: testNotebook})
	assert.ErrorIs(t, err, ErrRootNotFound)

	_, err = env.engine.Run(context.Background(), RunParams{Root: env.root})
	assert.ErrorIs(t, err, ErrNoNotebook)
}

func TestSyncEngine_FailureKeepsLastSync(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "a", baseTime)
	state := NewStateStore(filepath.Join(t.TempDir(), "state.json"), nil)

	store := &mockStore{}
	store.On("ListNotebooks", mock.Anything).Return([]*notesdk.Notebook{testNotebookRef}, nil)
	store.On("FindNotes", mock.Anything, mock.Anything).Return([]*notesdk.Note{}, nil)
	store.On("CreateNote", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	engine := NewEngine(store, nil, state, WithClock(fixedClock(baseTime.Add(time.Hour))))
	report, err := engine.Run(context.Background(), RunParams{Root: root, Notebook: testNotebook})
	require.Error(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Creates)
	assert.Zero(t, report.Tally.Created)

	_, ok := state.GetLastSyncTime(report.Scope)
	assert.False(t, ok)
	store.AssertNotCalled(t, "CreateNotebook", mock.Anything, mock.Anything)
}

func TestSyncEngine_GateRunsBeforeNetwork(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "a", baseTime)
	state := NewStateStore(filepath.Join(t.TempDir(), "state.json"), nil)

	resolved, err := filepath.Abs(root)
	require.NoError(t, err)
	require.NoError(t, state.SetLastSyncTime(Scope{Root: resolved, Notebook: testNotebook}, baseTime.Add(time.Minute)))

	store := &mockStore{}
	engine := NewEngine(store, nil, state)

	report, err := engine.Run(context.Background(), RunParams{Root: root, Notebook: testNotebook})
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	store.AssertExpectations(t)
	assert.Empty(t, store.Calls)
}

func TestSyncEngine_NotebookNameIgnoresCase(t *testing.T) {
	env := newTestEnv(t)
	existing, err := env.srv.Store().CreateNotebook("eversync test", false)
	require.NoError(t, err)
	writeFile(t, env.root, "a.md", "a", baseTime)

	env.clock = baseTime.Add(time.Hour)
	report, err := env.engine.Run(context.Background(), RunParams{Root: env.root, Notebook: "Eversync Test"})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Tally.Created)

	assert.Len(t, env.srv.Store().ListNotebooks(), 1)
	notes, total := env.srv.Store().FindNotes(notesdk.NoteFilter{NotebookGUID: existing.GUID}, 0, 10)
	require.Equal(t, 1, total)
	assert.Equal(t, DeriveKey("Eversync Test", "a.md"), notes[0].Attributes.SourceURL)
}

func TestSyncEngine_UnreadableStateFailsRun(t *testing.T) {
	root := t.TempDir()
	statePath := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(statePath, []byte(`{"other_tool":{"k":"v"}`), 0o644))
	state := NewStateStore(statePath, nil)

	store := &mockStore{}
	store.On("ListNotebooks", mock.Anything).Return([]*notesdk.Notebook{testNotebookRef}, nil)
	store.On("FindNotes", mock.Anything, mock.Anything).Return([]*notesdk.Note{}, nil)

	engine := NewEngine(store, nil, state, WithClock(fixedClock(baseTime)))
	_, err := engine.Run(context.Background(), RunParams{Root: root, Notebook: testNotebook})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record sync time")

	raw, err := os.ReadFile(statePath)
	require.NoError(t, err)
	assert.Equal(t, `{"other_tool":{"k":"v"}`, string(raw))
}
