package notesdk

// ===================================================================================================

// Notebook is a named collection of notes
type Notebook struct {
	GUID    string `json:"guid"`
	Name    string `json:"name"`
	Default bool   `json:"defaultNotebook"`
	Created int64  `json:"created,omitempty"` // ms since epoch
	Updated int64  `json:"updated,omitempty"` // ms since epoch
}

// NotebookListResponse is the response of the notebook list API
type NotebookListResponse struct {
	Notebooks []*Notebook `json:"notebooks"`
}

// CreateNotebookParams is the body of the notebook create API
type CreateNotebookParams struct {
	Name    string `json:"name"`
	Default bool   `json:"defaultNotebook"`
}

// ===================================================================================================

// NoteAttributes holds optional metadata of a note
type NoteAttributes struct {
	// SourceURL identifies the local file a note was created from
	SourceURL string `json:"sourceURL,omitempty"`
}

// Note is a single document in a notebook. Content is an ENML document.
type Note struct {
	GUID         string         `json:"guid,omitempty"`
	NotebookGUID string         `json:"notebookGuid"`
	Title        string         `json:"title"`
	Content      string         `json:"content,omitempty"`
	Attributes   NoteAttributes `json:"attributes"`
	Created      int64          `json:"created,omitempty"` // ms since epoch
	Updated      int64          `json:"updated,omitempty"` // ms since epoch
}

// NoteFilter narrows a note listing
type NoteFilter struct {
	NotebookGUID string `json:"notebookGuid,omitempty"`
	Words        string `json:"words,omitempty"`
}

// NoteList is a single page of notes
type NoteList struct {
	Notes  []*Note `json:"notes"`
	Offset int     `json:"startIndex"`
	Total  int     `json:"totalNotes"`
}
