package sync

import (
	"context"

	"github.com/eversync/eversync/internal/notesdk"
)

// NoteStore is the remote side of a sync
type NoteStore interface {
	ListNotebooks(ctx context.Context) ([]*notesdk.Notebook, error)
	CreateNotebook(ctx context.Context, name string) (*notesdk.Notebook, error)
	FindNotes(ctx context.Context, filter *notesdk.NoteFilter) ([]*notesdk.Note, error)
	CreateNote(ctx context.Context, note *notesdk.Note) (*notesdk.Note, error)
	UpdateNote(ctx context.Context, note *notesdk.Note) (*notesdk.Note, error)
	DeleteNote(ctx context.Context, guid string) error
}

type sdkStore struct {
	sdk *notesdk.NoteSDK
}

// NewSDKStore returns a NoteStore backed by the note service API
func NewSDKStore(sdk *notesdk.NoteSDK) NoteStore {
	return &sdkStore{sdk: sdk}
}

func (s *sdkStore) ListNotebooks(ctx context.Context) ([]*notesdk.Notebook, error) {
	return s.sdk.Notebooks.List(ctx)
}

func (s *sdkStore) CreateNotebook(ctx context.Context, name string) (*notesdk.Notebook, error) {
	return s.sdk.Notebooks.Create(ctx, &notesdk.CreateNotebookParams{Name: name})
}

func (s *sdkStore) FindNotes(ctx context.Context, filter *notesdk.NoteFilter) ([]*notesdk.Note, error) {
	return s.sdk.Notes.Find(ctx, filter)
}

func (s *sdkStore) CreateNote(ctx context.Context, note *notesdk.Note) (*notesdk.Note, error) {
	return s.sdk.Notes.Create(ctx, note)
}

func (s *sdkStore) UpdateNote(ctx context.Context, note *notesdk.Note) (*notesdk.Note, error) {
	return s.sdk.Notes.Update(ctx, note)
}

func (s *sdkStore) DeleteNote(ctx context.Context, guid string) error {
	return s.sdk.Notes.Delete(ctx, guid)
}

var _ NoteStore = (*sdkStore)(nil)
