// Package embedding provides text embedding with multi-tier caching: an
// in-memory hot tier, a persistent store (JSON file or SQLite), an
// optional shared Redis warm tier, and a rate-limited HTTP provider
// behind a circuit breaker.
package embedding

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Store is the persistent embedding cache. Implementations must be safe
// for concurrent use. Put never persists implicitly for file-backed
// stores; callers flush through Save at natural batch boundaries.
type Store interface {
	Get(key string) ([]float32, bool)
	Put(key string, vector []float32)
	Save() error
	Close() error
	Len() int
}

// Key derives the cache key for a text: SHA-256 of the lower-cased,
// trimmed input. Case and surrounding whitespace never cause duplicate
// provider calls.
func Key(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
