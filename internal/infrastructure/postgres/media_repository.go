package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hszk-dev/mediacache/internal/domain/model"
	"github.com/hszk-dev/mediacache/internal/domain/repository"
	"github.com/hszk-dev/mediacache/internal/infrastructure/metrics"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// DBTX is an interface that abstracts pgxpool.Pool and pgx.Tx for testability.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// MediaRepository implements repository.MediaCatalog using PostgreSQL.
type MediaRepository struct {
	db DBTX
}

// NewMediaRepository creates a new MediaRepository instance.
func NewMediaRepository(db DBTX) *MediaRepository {
	return &MediaRepository{db: db}
}

// Create records a media object.
func (r *MediaRepository) Create(ctx context.Context, media *model.MediaObject) error {
	const query = `
		INSERT INTO media_objects (key, size, content_type, uploaded_at)
		VALUES ($1, $2, $3, $4)
	`

	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQueryInsert, metrics.TableMediaObjects).Inc()

	_, err := r.db.Exec(ctx, query,
		media.Key,
		media.Size,
		media.ContentType,
		media.UploadedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicateMedia
		}
		return fmt.Errorf("failed to create media: %w", err)
	}

	return nil
}

// GetByKey retrieves a media object by key.
func (r *MediaRepository) GetByKey(ctx context.Context, key string) (*model.MediaObject, error) {
	const query = `
		SELECT key, size, content_type, uploaded_at
		FROM media_objects
		WHERE key = $1
	`

	metrics.DBQueriesTotal.WithLabelValues(metrics.DBQuerySelect, metrics.TableMediaObjects).Inc()

	var media model.MediaObject
	err := r.db.QueryRow(ctx, query, key).Scan(
		&media.Key,
		&media.Size,
		&media.ContentType,
		&media.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrMediaNotFound
		}
		return nil, fmt.Errorf("failed to get media by key: %w", err)
	}

	return &media, nil
}

// Compile-time verification that MediaRepository implements repository.MediaCatalog.
var _ repository.MediaCatalog = (*MediaRepository)(nil)
