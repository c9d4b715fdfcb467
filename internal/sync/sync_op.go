package sync

type OpType string

const (
	OpCreateNote OpType = "CreateNote"
	OpUpdateNote OpType = "UpdateNote"
	OpDeleteNote OpType = "DeleteNote"
)

// Tally counts the remote mutations that completed
type Tally struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`
}

func (t *Tally) Total() int {
	return t.Created + t.Updated + t.Removed
}
