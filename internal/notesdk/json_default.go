//go:build !sonic

package notesdk

import (
	"github.com/goccy/go-json"
)

// codec hooks for imroc/req
var jsonMarshal = json.Marshal
var jsonUnmarshal = json.Unmarshal
