package crypto

import (
	"crypto/sha256"
	"encoding/base64"
)

// Fingerprint returns a stable, URL-safe digest of value for use in cache keys.
func Fingerprint(value string) string {
	sum := sha256.Sum256([]byte(value))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
