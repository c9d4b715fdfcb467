package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"os"

	"github.com/denisbrodbeck/machineid"
)

const deviceAppID = "eversync"

// DeviceID is a stable per-machine identifier. It falls back to a hash of the
// hostname where the platform machine id is not readable.
var DeviceID = resolveDeviceID()

func resolveDeviceID() string {
	if id, err := machineid.ProtectedID(deviceAppID); err == nil {
		return id[:16]
	}

	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	sum := sha256.Sum256([]byte(deviceAppID + ":" + host))
	return hex.EncodeToString(sum[:8])
}
