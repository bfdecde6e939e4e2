package repository

import (
	"context"
	"io"

	"github.com/hszk-dev/mediacache/internal/domain/model"
)

// MediaStorage is the durable store for media bytes.
// Implementations are provided by the infrastructure layer (MinIO or local disk).
type MediaStorage interface {
	// Save persists the full object under key.
	Save(ctx context.Context, key string, data []byte) error

	// Read opens key for streaming. With a nil range the whole object is
	// returned; otherwise only the bytes in rng are read from the backend.
	// The returned size is always the total object size.
	// Caller is responsible for closing the returned ReadCloser.
	Read(ctx context.Context, key string, rng *model.ByteRange) (io.ReadCloser, int64, error)

	// Exists reports whether key is stored. Backend errors resolve to false.
	Exists(ctx context.Context, key string) bool
}
