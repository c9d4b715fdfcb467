package notesdk

import (
	"time"

	"github.com/imroc/req/v3"

	"github.com/eversync/eversync/internal/utils"
	"github.com/eversync/eversync/internal/version"
)

const (
	HeaderVersion   = "X-Eversync-Version"
	HeaderDeviceID  = "X-Eversync-Device-Id"
	HeaderRequestID = "X-Request-Id"

	defaultTimeout = 60 * time.Second
)

// NoteSDK is the client for the note service API
type NoteSDK struct {
	client    *req.Client
	config    *SDKConfig
	Notebooks *NotebookAPI
	Notes     *NoteAPI
}

// New creates a new NoteSDK client
func New(config *SDKConfig) (*NoteSDK, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client := req.C().
		SetBaseURL(config.BaseURL).
		SetTimeout(defaultTimeout).
		SetUserAgent(version.UserAgent()).
		SetCommonBearerAuthToken(config.Token).
		SetCommonHeader(HeaderVersion, version.Version).
		SetCommonHeader(HeaderDeviceID, utils.DeviceID).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	if config.RequestID != "" {
		client.SetCommonHeader(HeaderRequestID, config.RequestID)
	}

	return &NoteSDK{
		client:    client,
		config:    config,
		Notebooks: newNotebookAPI(client),
		Notes:     newNoteAPI(client, config.MaxNotes),
	}, nil
}

// BaseURL returns the service url the client talks to
func (s *NoteSDK) BaseURL() string {
	return s.config.BaseURL
}

// Close releases idle connections
func (s *NoteSDK) Close() {
	s.client.GetClient().CloseIdleConnections()
}
