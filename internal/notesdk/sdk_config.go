package notesdk

const (
	// DefaultMaxNotes caps how many notes of one notebook a listing returns
	DefaultMaxNotes = 10000
)

// SDKConfig is the configuration for the NoteSDK
type SDKConfig struct {
	BaseURL   string // BaseURL is required
	Token     string // Token is required
	MaxNotes  int    // MaxNotes is optional, defaults to DefaultMaxNotes
	RequestID string // RequestID is optional, sent with every call
}

func (c *SDKConfig) Validate() error {
	if c.BaseURL == "" {
		return ErrNoServerURL
	}

	if c.Token == "" {
		return ErrNoToken
	}

	if c.MaxNotes <= 0 {
		c.MaxNotes = DefaultMaxNotes
	}

	return nil
}
