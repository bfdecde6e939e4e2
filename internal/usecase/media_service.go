package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hszk-dev/mediacache/internal/domain/model"
	"github.com/hszk-dev/mediacache/internal/domain/repository"
	"github.com/hszk-dev/mediacache/internal/infrastructure/metrics"
	"github.com/hszk-dev/mediacache/internal/validator"
)

// Skip reasons reported when a storage read does not populate the cache.
const (
	skipReasonTooLarge = "object exceeds cacheable size"
	skipReasonEmpty    = "empty object"
	skipReasonAborted  = "stream closed before EOF"
	skipReasonReadErr  = "stream read failed"
	skipReasonSize     = "stream length mismatch"
)

// UploadValidator sniffs a payload off the request path.
// *validator.Pool satisfies this interface.
type UploadValidator interface {
	Validate(ctx context.Context, data []byte) model.ValidationOutcome
}

// MediaService defines the use cases for storing and serving media.
type MediaService interface {
	// Upload validates and stores a new media object under a fresh key.
	// The service retains input.Data until background writes finish;
	// callers must not modify it after the call.
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)

	// Stream opens a media object, honoring an optional Range header.
	// The caller must close StreamOutput.Body.
	Stream(ctx context.Context, key, rangeHeader string) (*StreamOutput, error)

	// Drain waits for in-flight background writes.
	Drain(ctx context.Context) error
}

// UploadInput contains the data required to upload media.
type UploadInput struct {
	Data        []byte
	ContentType string
}

// UploadOutput contains the result of a successful upload.
type UploadOutput struct {
	Key  string
	Size int64
}

// StreamOutput is an open media stream.
// Range is nil for full-object responses; Size is always the full object size.
type StreamOutput struct {
	Body  io.ReadCloser
	Size  int64
	Range *model.ByteRange
}

// MediaServiceConfig holds configuration for MediaService.
type MediaServiceConfig struct {
	// CacheTTL is the expiry applied to every cache write.
	CacheTTL time.Duration
	// MaxUploadSize is the upload ceiling in bytes.
	MaxUploadSize int64
	// MaxCacheableSize bounds how much a storage read may buffer for population.
	MaxCacheableSize int64
	// BackgroundTimeout bounds each detached cache write or event publish.
	BackgroundTimeout time.Duration
}

// DefaultMediaServiceConfig returns the default configuration.
func DefaultMediaServiceConfig() MediaServiceConfig {
	return MediaServiceConfig{
		CacheTTL:          60 * time.Second,
		MaxUploadSize:     model.MaxUploadSize,
		MaxCacheableSize:  model.MaxUploadSize,
		BackgroundTimeout: 30 * time.Second,
	}
}

type mediaService struct {
	validator UploadValidator
	storage   repository.MediaStorage
	cache     repository.MediaCache
	queue     repository.MessageQueue
	recorder  repository.EventRecorder
	cfg       MediaServiceConfig

	sfGroup singleflight.Group
	bg      sync.WaitGroup
	now     func() time.Time
}

// NewMediaService creates a new MediaService. queue may be nil, in which case
// no upload events are published.
func NewMediaService(
	v UploadValidator,
	storage repository.MediaStorage,
	cache repository.MediaCache,
	queue repository.MessageQueue,
	recorder repository.EventRecorder,
	cfg MediaServiceConfig,
) MediaService {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &mediaService{
		validator: v,
		storage:   storage,
		cache:     cache,
		queue:     queue,
		recorder:  recorder,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Upload implements MediaService.
func (s *mediaService) Upload(ctx context.Context, input UploadInput) (*UploadOutput, error) {
	size := int64(len(input.Data))

	if err := validator.CheckUploadRequest(input.ContentType, size, s.cfg.MaxUploadSize); err != nil {
		return nil, err
	}

	outcome := s.validator.Validate(ctx, input.Data)
	if !outcome.Valid {
		s.recorder.Record(ctx, model.Event{Name: model.EventUploadRejected, Size: size, Reason: outcome.Reason})
		return nil, model.NewValidationError(outcome.Reason)
	}

	key := model.NewMediaKey()

	// Cache first; storage is the durability boundary and is awaited.
	s.goBackground(ctx, func(bgCtx context.Context) {
		if err := s.cache.Set(bgCtx, key, input.Data, s.cfg.CacheTTL); err != nil {
			s.recorder.Record(bgCtx, model.Event{
				Name: model.EventCacheWriteFailed,
				Key:  key,
				Size: size,
				Err:  model.NewCacheError("Failed to cache video", err),
			})
		}
	})

	if err := s.storage.Save(ctx, key, input.Data); err != nil {
		storageErr := model.NewStorageError("Failed to store video", err)
		s.recorder.Record(ctx, model.Event{Name: model.EventStorageFailed, Key: key, Size: size, Err: storageErr})
		return nil, storageErr
	}

	s.recorder.Record(ctx, model.Event{Name: model.EventUploadCompleted, Key: key, Size: size})
	s.publishUploaded(ctx, key, size)

	return &UploadOutput{Key: key, Size: size}, nil
}

func (s *mediaService) publishUploaded(ctx context.Context, key string, size int64) {
	if s.queue == nil {
		return
	}

	event := repository.MediaUploadedEvent{
		Key:         key,
		Size:        size,
		ContentType: model.MediaContentType,
		UploadedAt:  s.now().UTC(),
	}
	s.goBackground(ctx, func(bgCtx context.Context) {
		if err := s.queue.PublishMediaUploaded(bgCtx, event); err != nil {
			s.recorder.Record(bgCtx, model.Event{Name: model.EventPublishFailed, Key: key, Size: size, Err: err})
		}
	})
}

// Stream implements MediaService.
func (s *mediaService) Stream(ctx context.Context, key, rangeHeader string) (*StreamOutput, error) {
	ranged := rangeHeader != ""

	if !ranged {
		if out := s.streamFromCache(ctx, key); out != nil {
			return out, nil
		}
	}

	if !s.storage.Exists(ctx, key) {
		return nil, model.NewNotFoundError("Video not found")
	}

	if ranged {
		return s.streamRange(ctx, key, rangeHeader)
	}
	return s.streamFull(ctx, key)
}

func (s *mediaService) streamFromCache(ctx context.Context, key string) *StreamOutput {
	if !s.cache.Exists(ctx, key) {
		return nil
	}

	// The entry may expire between Exists and Get.
	data := s.cache.Get(ctx, key)
	if data == nil {
		return nil
	}

	metrics.StreamRequestsTotal.WithLabelValues(metrics.StreamSourceCache, strconv.FormatBool(false)).Inc()
	return &StreamOutput{
		Body: io.NopCloser(bytes.NewReader(data)),
		Size: int64(len(data)),
	}
}

func (s *mediaService) streamFull(ctx context.Context, key string) (*StreamOutput, error) {
	body, size, err := s.storage.Read(ctx, key, nil)
	if err != nil {
		return nil, s.readError(ctx, key, err)
	}
	metrics.StreamRequestsTotal.WithLabelValues(metrics.StreamSourceStorage, strconv.FormatBool(false)).Inc()

	switch {
	case size <= 0:
		s.recordSkip(ctx, key, size, skipReasonEmpty)
		return &StreamOutput{Body: body, Size: size}, nil
	case size > s.cfg.MaxCacheableSize:
		s.recordSkip(ctx, key, size, skipReasonTooLarge)
		return &StreamOutput{Body: body, Size: size}, nil
	}

	tee := &populatingReader{
		src:  body,
		size: size,
		onComplete: func(data []byte) {
			s.populate(ctx, key, data)
		},
		onSkip: func(reason string) {
			s.recordSkip(context.WithoutCancel(ctx), key, size, reason)
		},
	}
	return &StreamOutput{Body: tee, Size: size}, nil
}

func (s *mediaService) streamRange(ctx context.Context, key, rangeHeader string) (*StreamOutput, error) {
	// Open the full object only to learn its size; nothing is consumed.
	probe, size, err := s.storage.Read(ctx, key, nil)
	if err != nil {
		return nil, s.readError(ctx, key, err)
	}
	_ = probe.Close() // Best-effort; no bytes were read

	rng, err := model.ParseRange(rangeHeader, size)
	if err != nil {
		return nil, err
	}

	body, total, err := s.storage.Read(ctx, key, rng)
	if err != nil {
		return nil, s.readError(ctx, key, err)
	}
	metrics.StreamRequestsTotal.WithLabelValues(metrics.StreamSourceStorage, strconv.FormatBool(true)).Inc()

	return &StreamOutput{Body: body, Size: total, Range: rng}, nil
}

// readError keeps "absent" distinct from "broken": an object removed after
// the existence check is still a NotFoundError.
func (s *mediaService) readError(ctx context.Context, key string, err error) error {
	if errors.Is(err, repository.ErrObjectNotFound) {
		return model.NewNotFoundError("Video not found")
	}
	storageErr := model.NewStorageError("Failed to stream video", err)
	s.recorder.Record(ctx, model.Event{Name: model.EventStorageFailed, Key: key, Err: storageErr})
	return storageErr
}

// populate writes a fully streamed object to the cache in the background.
// Concurrent populations of one key share a single write.
func (s *mediaService) populate(ctx context.Context, key string, data []byte) {
	s.goBackground(ctx, func(bgCtx context.Context) {
		_, err, shared := s.sfGroup.Do(key, func() (any, error) {
			if s.cache.Exists(bgCtx, key) {
				return nil, nil
			}
			return nil, s.cache.Set(bgCtx, key, data, s.cfg.CacheTTL)
		})

		if shared {
			metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightShared).Inc()
			return
		}
		metrics.SingleflightRequestsTotal.WithLabelValues(metrics.SingleflightInitiated).Inc()

		if err != nil {
			s.recorder.Record(bgCtx, model.Event{
				Name: model.EventCacheWriteFailed,
				Key:  key,
				Size: int64(len(data)),
				Err:  model.NewCacheError("Failed to cache video", err),
			})
			return
		}
		s.recorder.Record(bgCtx, model.Event{Name: model.EventCachePopulated, Key: key, Size: int64(len(data))})
	})
}

func (s *mediaService) recordSkip(ctx context.Context, key string, size int64, reason string) {
	s.recorder.Record(ctx, model.Event{Name: model.EventCachePopulateSkip, Key: key, Size: size, Reason: reason})
}

// goBackground runs fn detached from the caller's cancellation but keeps its
// values. Each task is bounded by BackgroundTimeout and tracked for Drain.
func (s *mediaService) goBackground(parent context.Context, fn func(ctx context.Context)) {
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()

		ctx := context.WithoutCancel(parent)
		if s.cfg.BackgroundTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.cfg.BackgroundTimeout)
			defer cancel()
		}
		fn(ctx)
	}()
}

// Drain implements MediaService.
func (s *mediaService) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.bg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// populatingReader passes the storage stream through to the caller and keeps
// a private copy. onComplete fires at most once, only after exactly size bytes
// were read without error. Anything else ends in onSkip.
type populatingReader struct {
	src  io.ReadCloser
	size int64

	buf      bytes.Buffer
	read     int64
	failed   bool
	finished bool

	onComplete func(data []byte)
	onSkip     func(reason string)
}

func (r *populatingReader) Read(p []byte) (int, error) {
	n, err := r.src.Read(p)

	if n > 0 && !r.finished && !r.failed {
		r.read += int64(n)
		if r.read > r.size {
			r.fail(skipReasonSize)
		} else {
			r.buf.Write(p[:n])
		}
	}

	switch {
	case err == io.EOF:
		r.complete()
	case err != nil:
		r.fail(skipReasonReadErr)
	}

	return n, err
}

func (r *populatingReader) complete() {
	if r.finished || r.failed {
		return
	}
	if r.read != r.size {
		r.fail(skipReasonSize)
		return
	}
	r.finished = true
	data := r.buf.Bytes()
	r.buf = bytes.Buffer{}
	r.onComplete(data)
}

func (r *populatingReader) fail(reason string) {
	if r.failed || r.finished {
		return
	}
	r.failed = true
	r.buf = bytes.Buffer{}
	r.onSkip(reason)
}

// Close releases the storage handle. A stream closed before all size bytes
// were read is never cached.
func (r *populatingReader) Close() error {
	if r.read == r.size {
		r.complete()
	} else {
		r.fail(skipReasonAborted)
	}
	return r.src.Close()
}

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, model.Event) {}
