package notesrv

import (
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eversync/eversync/internal/notesdk"
)

var (
	ErrNotebookExists   = errors.New("notebook already exists")
	ErrNotebookNotFound = errors.New("notebook not found")
	ErrNoteNotFound     = errors.New("note not found")
)

// Store keeps notebooks and notes in memory. Notes are returned as copies so
// callers cannot mutate stored state.
type Store struct {
	mu        sync.RWMutex
	notebooks map[string]*notesdk.Notebook
	notes     map[string]*notesdk.Note
	order     []string // note guids in creation order
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{
		notebooks: make(map[string]*notesdk.Notebook),
		notes:     make(map[string]*notesdk.Note),
		now:       time.Now,
	}
}

func (s *Store) ListNotebooks() []*notesdk.Notebook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*notesdk.Notebook, 0, len(s.notebooks))
	for _, nb := range s.notebooks {
		cp := *nb
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *notesdk.Notebook) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

func (s *Store) CreateNotebook(name string, isDefault bool) (*notesdk.Notebook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, nb := range s.notebooks {
		if strings.EqualFold(nb.Name, name) {
			return nil, ErrNotebookExists
		}
	}

	ts := s.now().UnixMilli()
	nb := &notesdk.Notebook{
		GUID:    uuid.NewString(),
		Name:    name,
		Default: isDefault,
		Created: ts,
		Updated: ts,
	}
	s.notebooks[nb.GUID] = nb

	cp := *nb
	return &cp, nil
}

// FindNotes returns the page [offset, offset+limit) of notes matching filter
// along with the total number of matches.
func (s *Store) FindNotes(filter notesdk.NoteFilter, offset, limit int) ([]*notesdk.Note, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	words := strings.ToLower(strings.TrimSpace(filter.Words))
	matched := make([]*notesdk.Note, 0)
	for _, guid := range s.order {
		note := s.notes[guid]
		if filter.NotebookGUID != "" && note.NotebookGUID != filter.NotebookGUID {
			continue
		}
		if words != "" && !strings.Contains(strings.ToLower(note.Title+" "+note.Content), words) {
			continue
		}
		matched = append(matched, note)
	}

	total := len(matched)
	if offset >= total {
		return []*notesdk.Note{}, total
	}
	end := min(offset+limit, total)

	page := make([]*notesdk.Note, 0, end-offset)
	for _, note := range matched[offset:end] {
		cp := *note
		page = append(page, &cp)
	}
	return page, total
}

func (s *Store) GetNote(guid string) (*notesdk.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	note, ok := s.notes[guid]
	if !ok {
		return nil, ErrNoteNotFound
	}
	cp := *note
	return &cp, nil
}

// CreateNote stores a new note under a fresh guid. Created/Updated default to
// the current time when the client leaves them empty.
func (s *Store) CreateNote(note notesdk.Note) (*notesdk.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notebooks[note.NotebookGUID]; !ok {
		return nil, ErrNotebookNotFound
	}

	ts := s.now().UnixMilli()
	note.GUID = uuid.NewString()
	if note.Created == 0 {
		note.Created = ts
	}
	if note.Updated == 0 {
		note.Updated = ts
	}

	s.notes[note.GUID] = &note
	s.order = append(s.order, note.GUID)

	cp := note
	return &cp, nil
}

func (s *Store) UpdateNote(note notesdk.Note) (*notesdk.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.notes[note.GUID]
	if !ok {
		return nil, ErrNoteNotFound
	}

	existing.Title = note.Title
	existing.Content = note.Content
	existing.Attributes = note.Attributes
	if note.Updated != 0 {
		existing.Updated = note.Updated
	} else {
		existing.Updated = s.now().UnixMilli()
	}

	cp := *existing
	return &cp, nil
}

func (s *Store) DeleteNote(guid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[guid]; !ok {
		return ErrNoteNotFound
	}
	delete(s.notes, guid)
	s.order = slices.DeleteFunc(s.order, func(g string) bool { return g == guid })
	return nil
}

// Len returns the number of stored notes
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.notes)
}
