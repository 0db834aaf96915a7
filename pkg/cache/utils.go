package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// GenerateKey creates a cache key with prefix and ID.
func GenerateKey(prefix string, id string) string {
	return prefix + ":" + id
}

// HashKey returns a hex SHA-256 digest suitable as a fixed-length key component.
func HashKey(key []byte) string {
	sum := sha256.Sum256(key)
	return hex.EncodeToString(sum[:])
}
