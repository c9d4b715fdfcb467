package sync

import (
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/eversync/eversync/internal/notesdk"
)

// NoteUpdate pairs a changed local file with the note it overwrites
type NoteUpdate struct {
	Local *LocalFile
	Note  *notesdk.Note
}

// ReconcilePlan is the set of remote mutations that makes a notebook mirror
// the local files
type ReconcilePlan struct {
	Creates   []*LocalFile
	Updates   []*NoteUpdate
	Deletes   []*notesdk.Note
	Unchanged int
}

func (p *ReconcilePlan) HasChanges() bool {
	return len(p.Creates) > 0 || len(p.Updates) > 0 || len(p.Deletes) > 0
}

func (p *ReconcilePlan) Len() int {
	return len(p.Creates) + len(p.Updates) + len(p.Deletes)
}

// Reconcile compares the scanned files with the notes of a notebook. Notes are
// matched to files by source url. A file is newer than its note when its
// modification time, in milliseconds, is strictly after the note's update time.
func Reconcile(files []*LocalFile, notes []*notesdk.Note, notebook string, logger *slog.Logger) *ReconcilePlan {
	if logger == nil {
		logger = slog.Default()
	}

	remoteByKey := make(map[string]*notesdk.Note, len(notes))
	for _, note := range notes {
		key := note.Attributes.SourceURL
		if prev, ok := remoteByKey[key]; ok {
			logger.Warn("reconcile duplicate source url", "source", key, "kept", note.GUID, "dropped", prev.GUID)
		}
		remoteByKey[key] = note
	}

	plan := &ReconcilePlan{
		Creates: make([]*LocalFile, 0),
		Updates: make([]*NoteUpdate, 0),
		Deletes: make([]*notesdk.Note, 0),
	}

	localKeys := mapset.NewThreadUnsafeSet[string]()
	for _, f := range files {
		key := DeriveKey(notebook, f.RelPath)
		if !localKeys.Add(key) {
			logger.Warn("reconcile skipped file with colliding key", "path", f.RelPath, "source", key)
			continue
		}

		note, ok := remoteByKey[key]
		switch {
		case !ok:
			plan.Creates = append(plan.Creates, f)
		case f.ModifiedAt.UnixMilli() > note.Updated:
			plan.Updates = append(plan.Updates, &NoteUpdate{Local: f, Note: note})
		default:
			plan.Unchanged++
		}
	}

	for _, note := range notes {
		if !localKeys.Contains(note.Attributes.SourceURL) {
			plan.Deletes = append(plan.Deletes, note)
		}
	}

	return plan
}
