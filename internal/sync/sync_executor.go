package sync

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eversync/eversync/internal/convert"
	"github.com/eversync/eversync/internal/notesdk"
)

const (
	DefaultWorkers = 4
)

// Executor applies a ReconcilePlan to a notebook. Deletes run first, one by
// one. Creates and updates then run on at most Workers goroutines. The first
// failure stops the run.
type Executor struct {
	Store     NoteStore
	Converter *convert.Registry
	// Root is the directory LocalFile.RelPath is relative to
	Root    string
	Workers int
	Logger  *slog.Logger
	Now     func() time.Time
}

func (x *Executor) Apply(ctx context.Context, plan *ReconcilePlan, notebook *notesdk.Notebook) (*Tally, error) {
	x.defaults()

	tally := &Tally{}

	for _, note := range plan.Deletes {
		if err := ctx.Err(); err != nil {
			return tally, err
		}
		if err := x.Store.DeleteNote(ctx, note.GUID); err != nil {
			return tally, fmt.Errorf("delete note %q: %w", note.Title, err)
		}
		tally.Removed++
		x.Logger.Info("sync", "op", OpDeleteNote, "title", note.Title, "source", note.Attributes.SourceURL, "path", sourcePath(note))
	}

	var created, updated atomic.Int64

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(x.Workers)

	for _, f := range plan.Creates {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			if err := x.create(egCtx, f, notebook); err != nil {
				return err
			}
			created.Add(1)
			return nil
		})
	}

	for _, u := range plan.Updates {
		if egCtx.Err() != nil {
			break
		}
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			if err := x.update(egCtx, u); err != nil {
				return err
			}
			updated.Add(1)
			return nil
		})
	}

	err := eg.Wait()
	tally.Created = int(created.Load())
	tally.Updated = int(updated.Load())
	return tally, err
}

func (x *Executor) create(ctx context.Context, f *LocalFile, notebook *notesdk.Notebook) error {
	doc, err := x.Converter.ConvertFile(x.Root, f.RelPath)
	if err != nil {
		return fmt.Errorf("create note: %w", err)
	}

	now := x.Now().UnixMilli()
	note := &notesdk.Note{
		NotebookGUID: notebook.GUID,
		Title:        doc.Title,
		Content:      string(doc.Content),
		Attributes: notesdk.NoteAttributes{
			SourceURL: DeriveKey(notebook.Name, f.RelPath),
		},
		Created: now,
		Updated: now,
	}

	if _, err := x.Store.CreateNote(ctx, note); err != nil {
		x.logRejected(OpCreateNote, note, err)
		return fmt.Errorf("create note %q from %s: %w", note.Title, f.RelPath, err)
	}

	x.Logger.Info("sync", "op", OpCreateNote, "title", note.Title, "path", f.RelPath)
	return nil
}

func (x *Executor) update(ctx context.Context, u *NoteUpdate) error {
	doc, err := x.Converter.ConvertFile(x.Root, u.Local.RelPath)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}

	// never mutate the note held by the plan
	note := *u.Note
	note.Title = doc.Title
	note.Content = string(doc.Content)
	note.Updated = x.Now().UnixMilli()

	if _, err := x.Store.UpdateNote(ctx, &note); err != nil {
		x.logRejected(OpUpdateNote, &note, err)
		return fmt.Errorf("update note %q from %s: %w", note.Title, u.Local.RelPath, err)
	}

	x.Logger.Info("sync", "op", OpUpdateNote, "title", note.Title, "path", u.Local.RelPath)
	return nil
}

func (x *Executor) logRejected(op OpType, note *notesdk.Note, err error) {
	if !notesdk.IsValidationError(err) {
		return
	}
	x.Logger.Error("sync note rejected",
		"op", op,
		"source", note.Attributes.SourceURL,
		"title", note.Title,
		"content", note.Content,
		"error", err,
	)
}

func (x *Executor) defaults() {
	if x.Workers <= 0 {
		x.Workers = DefaultWorkers
	}
	if x.Logger == nil {
		x.Logger = slog.Default()
	}
	if x.Now == nil {
		x.Now = time.Now
	}
}

// sourcePath returns the local path a note was created from, if known
func sourcePath(note *notesdk.Note) string {
	src, err := ParseSourceURL(note.Attributes.SourceURL)
	if err != nil {
		return ""
	}
	return src.Path
}
