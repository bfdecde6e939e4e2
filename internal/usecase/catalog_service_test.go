package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hszk-dev/mediacache/internal/domain/model"
	"github.com/hszk-dev/mediacache/internal/domain/repository"
)

func TestCatalogService_RecordUpload(t *testing.T) {
	uploadedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	validEvent := repository.MediaUploadedEvent{
		Key:         testKey,
		Size:        2048,
		ContentType: "video/mp4",
		UploadedAt:  uploadedAt,
	}

	tests := []struct {
		name        string
		event       repository.MediaUploadedEvent
		createErr   error
		wantCreates int
		errContains string
	}{
		{name: "records new upload", event: validEvent, wantCreates: 1},
		{name: "duplicate is already recorded", event: validEvent, createErr: repository.ErrDuplicateMedia, wantCreates: 1},
		{name: "invalid key discarded", event: repository.MediaUploadedEvent{Key: "../evil"}, wantCreates: 0},
		{name: "database error retried", event: validEvent, createErr: errors.New("connection refused"), wantCreates: 1, errContains: "failed to record upload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var created *model.MediaObject
			catalog := &mockMediaCatalog{
				createFn: func(ctx context.Context, media *model.MediaObject) error {
					created = media
					return tt.createErr
				},
			}
			svc := NewCatalogService(catalog)

			err := svc.RecordUpload(context.Background(), tt.event)

			if tt.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("RecordUpload() error = %v, should contain %q", err, tt.errContains)
				}
			} else if err != nil {
				t.Errorf("RecordUpload() unexpected error = %v", err)
			}

			if catalog.creates != tt.wantCreates {
				t.Errorf("Create calls = %d, want %d", catalog.creates, tt.wantCreates)
			}
			if tt.wantCreates > 0 {
				want := model.MediaObject{Key: testKey, Size: 2048, ContentType: "video/mp4", UploadedAt: uploadedAt}
				if created == nil || *created != want {
					t.Errorf("created = %+v, want %+v", created, want)
				}
			}
		})
	}
}

func TestCatalogService_GetMedia(t *testing.T) {
	media := &model.MediaObject{Key: testKey, Size: 10, ContentType: "video/mp4"}

	tests := []struct {
		name    string
		key     string
		getFn   func(ctx context.Context, key string) (*model.MediaObject, error)
		want    *model.MediaObject
		wantErr error
	}{
		{
			name:  "found",
			key:   testKey,
			getFn: func(ctx context.Context, key string) (*model.MediaObject, error) { return media, nil },
			want:  media,
		},
		{
			name:    "not found",
			key:     testKey,
			getFn:   func(ctx context.Context, key string) (*model.MediaObject, error) { return nil, repository.ErrMediaNotFound },
			wantErr: model.ErrNotFound,
		},
		{
			name:    "database error",
			key:     testKey,
			getFn:   func(ctx context.Context, key string) (*model.MediaObject, error) { return nil, errors.New("timeout") },
			wantErr: model.ErrStorage,
		},
		{
			name:    "invalid key",
			key:     "nope.txt",
			wantErr: model.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewCatalogService(&mockMediaCatalog{getByKeyFn: tt.getFn})

			got, err := svc.GetMedia(context.Background(), tt.key)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("GetMedia() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetMedia() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Errorf("GetMedia() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
