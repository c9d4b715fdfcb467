package utils

// MaskSecret keeps the first four characters of a token so it can be
// recognized in logs without leaking it.
func MaskSecret(s string) string {
	if len(s) <= 8 {
		return "*****"
	}
	return s[:4] + "*****"
}
