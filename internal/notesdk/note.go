package notesdk

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/imroc/req/v3"
)

const (
	v1Notes  = "/api/v1/notes"
	v1Note   = "/api/v1/notes/{guid}"
	pageSize = 250

	readRetryCount   = 3
	readRetryMinWait = 250 * time.Millisecond
	readRetryMaxWait = 2 * time.Second
)

type NoteAPI struct {
	client   *req.Client
	maxNotes int
}

func newNoteAPI(client *req.Client, maxNotes int) *NoteAPI {
	if maxNotes <= 0 {
		maxNotes = DefaultMaxNotes
	}
	return &NoteAPI{
		client:   client,
		maxNotes: maxNotes,
	}
}

// withReadRetry enables bounded backoff retries. Only idempotent reads use it:
// replaying a create or delete could duplicate its side effect.
func withReadRetry(r *req.Request) *req.Request {
	return r.
		SetRetryCount(readRetryCount).
		SetRetryBackoffInterval(readRetryMinWait, readRetryMaxWait).
		SetRetryCondition(retryableRead)
}

// FindPage returns a single page of notes matching filter
func (n *NoteAPI) FindPage(ctx context.Context, filter *NoteFilter, offset, limit int) (*NoteList, error) {
	var result NoteList
	var apiErr APIError

	r := withReadRetry(n.client.R()).
		SetContext(ctx).
		SetQueryParam("offset", strconv.Itoa(offset)).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetSuccessResult(&result).
		SetErrorResult(&apiErr)

	if filter != nil {
		if filter.NotebookGUID != "" {
			r.SetQueryParam("notebook", filter.NotebookGUID)
		}
		if filter.Words != "" {
			r.SetQueryParam("words", filter.Words)
		}
	}

	res, err := r.Get(v1Notes)
	if err := handleAPIError(res, err, "note find"); err != nil {
		return nil, err
	}

	return &result, nil
}

// Find pages through every note matching filter, up to the configured maximum
func (n *NoteAPI) Find(ctx context.Context, filter *NoteFilter) ([]*Note, error) {
	notes := make([]*Note, 0)
	total := 0

	for len(notes) < n.maxNotes {
		limit := min(pageSize, n.maxNotes-len(notes))
		page, err := n.FindPage(ctx, filter, len(notes), limit)
		if err != nil {
			return nil, err
		}

		total = page.Total
		notes = append(notes, page.Notes...)
		if len(page.Notes) == 0 || len(notes) >= page.Total {
			break
		}
	}

	// notes past the cap look missing to the caller and get created again
	if total > n.maxNotes {
		slog.Warn("note find truncated", "total", total, "maxNotes", n.maxNotes, "returned", len(notes))
	}

	return notes, nil
}

// Create creates a note
func (n *NoteAPI) Create(ctx context.Context, note *Note) (*Note, error) {
	var result Note
	var apiErr APIError

	res, err := n.client.R().
		SetContext(ctx).
		SetBody(note).
		SetSuccessResult(&result).
		SetErrorResult(&apiErr).
		Post(v1Notes)

	if err := handleAPIError(res, err, "note create"); err != nil {
		return nil, err
	}

	return &result, nil
}

// Update replaces title, content, attributes and timestamps of an existing note
func (n *NoteAPI) Update(ctx context.Context, note *Note) (*Note, error) {
	var result Note
	var apiErr APIError

	if note.GUID == "" {
		return nil, ErrNoGUID
	}

	res, err := n.client.R().
		SetContext(ctx).
		SetPathParam("guid", note.GUID).
		SetBody(note).
		SetSuccessResult(&result).
		SetErrorResult(&apiErr).
		Put(v1Note)

	if err := handleAPIError(res, err, "note update"); err != nil {
		return nil, err
	}

	return &result, nil
}

// Delete removes a note
func (n *NoteAPI) Delete(ctx context.Context, guid string) error {
	var apiErr APIError

	if guid == "" {
		return ErrNoGUID
	}

	res, err := n.client.R().
		SetContext(ctx).
		SetPathParam("guid", guid).
		SetErrorResult(&apiErr).
		Delete(v1Note)

	return handleAPIError(res, err, "note delete")
}
