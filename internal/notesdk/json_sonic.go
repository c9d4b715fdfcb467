//go:build sonic

package notesdk

import (
	"github.com/bytedance/sonic"
)

// codec hooks for imroc/req
var jsonMarshal = sonic.Marshal
var jsonUnmarshal = sonic.Unmarshal
