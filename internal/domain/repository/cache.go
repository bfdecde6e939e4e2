package repository

import (
	"context"
	"time"
)

// MediaCache is the volatile byte cache in front of MediaStorage.
// Entries always hold a complete object.
type MediaCache interface {
	// Set stores the full object under key for ttl. The write is atomic.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Get returns the cached bytes, or nil on miss or backend failure.
	Get(ctx context.Context, key string) []byte

	// Exists reports whether key is cached. Backend errors resolve to false.
	Exists(ctx context.Context, key string) bool
}
