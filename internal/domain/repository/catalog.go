package repository

import (
	"context"

	"github.com/hszk-dev/mediacache/internal/domain/model"
)

// MediaCatalog records metadata about stored media objects.
// Implementations should be provided by the infrastructure layer (e.g., PostgreSQL).
type MediaCatalog interface {
	// Create records a media object.
	// Returns ErrDuplicateMedia if the key is already recorded.
	Create(ctx context.Context, media *model.MediaObject) error

	// GetByKey retrieves a media object by key.
	// Returns nil and ErrMediaNotFound if the key is unknown.
	GetByKey(ctx context.Context, key string) (*model.MediaObject, error)
}
