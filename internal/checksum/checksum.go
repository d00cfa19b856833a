// Package checksum derives fixed-width digests used as lookup keys.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Fields returns the digest of the canonical encoding of fields (keys
// sorted, values escaped), so equal field sets always share a digest
// regardless of insertion order.
func Fields(fields url.Values) string {
	return Sum([]byte(fields.Encode()))
}
