package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hszk-dev/mediacache/internal/domain/model"
	"github.com/hszk-dev/mediacache/internal/domain/repository"
)

// LocalStorage keeps objects as files in a single directory.
// Writes land in a temp file first and are renamed into place, so readers
// never observe a partially written object.
type LocalStorage struct {
	dir    string
	logger *slog.Logger
}

var _ repository.MediaStorage = (*LocalStorage)(nil)

// NewLocalStorage creates the directory if needed.
func NewLocalStorage(dir string, logger *slog.Logger) (*LocalStorage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	return &LocalStorage{dir: dir, logger: logger}, nil
}

// Save writes data under key, replacing any previous object.
func (s *LocalStorage) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close object: %w", err)
	}

	if err := os.Rename(tmpName, s.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to commit object: %w", err)
	}
	return nil
}

// Read opens the object. With a range, the reader yields exactly the
// requested bytes; the returned size is always the full object size.
func (s *LocalStorage) Read(ctx context.Context, key string, rng *model.ByteRange) (io.ReadCloser, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	f, err := os.Open(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, 0, repository.ErrObjectNotFound
		}
		return nil, 0, fmt.Errorf("failed to open object: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat object: %w", err)
	}

	if rng == nil {
		return f, info.Size(), nil
	}

	if _, err := f.Seek(rng.Start, io.SeekStart); err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to seek object: %w", err)
	}
	return &sectionReadCloser{Reader: io.LimitReader(f, rng.Len()), closer: f}, info.Size(), nil
}

// Exists reports whether a regular file is stored under key.
func (s *LocalStorage) Exists(ctx context.Context, key string) bool {
	info, err := os.Stat(s.path(key))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("failed to check object existence",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return false
	}
	return info.Mode().IsRegular()
}

// Dir returns the storage directory.
func (s *LocalStorage) Dir() string {
	return s.dir
}

// path confines key to the storage directory.
func (s *LocalStorage) path(key string) string {
	return filepath.Join(s.dir, filepath.Base(key))
}

type sectionReadCloser struct {
	io.Reader
	closer io.Closer
}

func (r *sectionReadCloser) Close() error {
	return r.closer.Close()
}
