package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hszk-dev/mediacache/internal/domain/model"
	"github.com/hszk-dev/mediacache/internal/domain/repository"
)

// CatalogService records and serves media metadata.
type CatalogService interface {
	// RecordUpload stores the metadata carried by an upload event.
	// Redelivered events for an already recorded key succeed.
	RecordUpload(ctx context.Context, event repository.MediaUploadedEvent) error

	// GetMedia returns the metadata for key.
	GetMedia(ctx context.Context, key string) (*model.MediaObject, error)
}

type catalogService struct {
	catalog repository.MediaCatalog
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(catalog repository.MediaCatalog) CatalogService {
	return &catalogService{catalog: catalog}
}

// RecordUpload implements CatalogService.
func (s *catalogService) RecordUpload(ctx context.Context, event repository.MediaUploadedEvent) error {
	// A malformed key will never succeed; retrying it only blocks the queue.
	if err := model.ValidateKey(event.Key); err != nil {
		slog.Warn("discarding upload event with invalid key", "key", event.Key)
		return nil
	}

	media := &model.MediaObject{
		Key:         event.Key,
		Size:        event.Size,
		ContentType: event.ContentType,
		UploadedAt:  event.UploadedAt,
	}

	if err := s.catalog.Create(ctx, media); err != nil {
		if errors.Is(err, repository.ErrDuplicateMedia) {
			slog.Info("upload already recorded", "key", event.Key)
			return nil
		}
		return fmt.Errorf("failed to record upload: %w", err)
	}

	slog.Info("upload recorded", "key", event.Key, "size", event.Size)
	return nil
}

// GetMedia implements CatalogService.
func (s *catalogService) GetMedia(ctx context.Context, key string) (*model.MediaObject, error) {
	if err := model.ValidateKey(key); err != nil {
		return nil, err
	}

	media, err := s.catalog.GetByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrMediaNotFound) {
			return nil, model.NewNotFoundError("Video not found")
		}
		return nil, model.NewStorageError("Failed to load video metadata", err)
	}

	return media, nil
}
