package usecase

import (
	"bytes"
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hszk-dev/mediacache/internal/domain/model"
	"github.com/hszk-dev/mediacache/internal/domain/repository"
)

// mockValidator returns a fixed outcome or runs validateFn.
type mockValidator struct {
	outcome    model.ValidationOutcome
	validateFn func(ctx context.Context, data []byte) model.ValidationOutcome
	calls      atomic.Int32
}

func (m *mockValidator) Validate(ctx context.Context, data []byte) model.ValidationOutcome {
	m.calls.Add(1)
	if m.validateFn != nil {
		return m.validateFn(ctx, data)
	}
	return m.outcome
}

func validVideo() *mockValidator {
	return &mockValidator{outcome: model.ValidationOutcome{Valid: true}}
}

// memStorage is an in-memory MediaStorage.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte

	saveErr error
	readErr error

	reads     atomic.Int32
	openCount atomic.Int32
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (m *memStorage) put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = bytes.Clone(data)
}

func (m *memStorage) Save(ctx context.Context, key string, data []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.put(key, data)
	return nil
}

func (m *memStorage) Read(ctx context.Context, key string, rng *model.ByteRange) (io.ReadCloser, int64, error) {
	m.reads.Add(1)
	if m.readErr != nil {
		return nil, 0, m.readErr
	}

	m.mu.Lock()
	data, ok := m.objects[key]
	m.mu.Unlock()
	if !ok {
		return nil, 0, repository.ErrObjectNotFound
	}

	section := data
	if rng != nil {
		section = data[rng.Start : rng.End+1]
	}

	m.openCount.Add(1)
	return &trackedReader{Reader: bytes.NewReader(section), onClose: func() { m.openCount.Add(-1) }}, int64(len(data)), nil
}

func (m *memStorage) Exists(ctx context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

type trackedReader struct {
	io.Reader
	once    sync.Once
	onClose func()
}

func (r *trackedReader) Close() error {
	r.once.Do(r.onClose)
	return nil
}

// memCache is an in-memory MediaCache.
type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration

	setFn  func(ctx context.Context, key string, data []byte) error
	getNil bool

	sets   atomic.Int32
	exists atomic.Int32
}

func newMemCache() *memCache {
	return &memCache{
		entries: make(map[string][]byte),
		ttls:    make(map[string]time.Duration),
	}
}

func (m *memCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	m.sets.Add(1)
	if m.setFn != nil {
		if err := m.setFn(ctx, key, data); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = bytes.Clone(data)
	m.ttls[key] = ttl
	return nil
}

func (m *memCache) Get(ctx context.Context, key string) []byte {
	if m.getNil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[key]
}

func (m *memCache) Exists(ctx context.Context, key string) bool {
	m.exists.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

func (m *memCache) entry(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.entries[key]
	return data, ok
}

// mockMessageQueue provides a configurable mock for MessageQueue.
type mockMessageQueue struct {
	mu        sync.Mutex
	published []repository.MediaUploadedEvent
	publishFn func(ctx context.Context, event repository.MediaUploadedEvent) error
}

func (m *mockMessageQueue) PublishMediaUploaded(ctx context.Context, event repository.MediaUploadedEvent) error {
	if m.publishFn != nil {
		if err := m.publishFn(ctx, event); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, event)
	return nil
}

func (m *mockMessageQueue) ConsumeMediaUploaded(ctx context.Context, handler func(event repository.MediaUploadedEvent) error) error {
	return nil
}

func (m *mockMessageQueue) Close() error {
	return nil
}

func (m *mockMessageQueue) events() []repository.MediaUploadedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]repository.MediaUploadedEvent(nil), m.published...)
}

// recordingRecorder keeps every event it receives.
type recordingRecorder struct {
	mu     sync.Mutex
	events []model.Event
}

func (r *recordingRecorder) Record(ctx context.Context, event model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingRecorder) named(name model.EventName) []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Event
	for _, e := range r.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// mockMediaCatalog provides a configurable mock for MediaCatalog.
type mockMediaCatalog struct {
	createFn   func(ctx context.Context, media *model.MediaObject) error
	getByKeyFn func(ctx context.Context, key string) (*model.MediaObject, error)
	creates    int
}

func (m *mockMediaCatalog) Create(ctx context.Context, media *model.MediaObject) error {
	m.creates++
	if m.createFn != nil {
		return m.createFn(ctx, media)
	}
	return nil
}

func (m *mockMediaCatalog) GetByKey(ctx context.Context, key string) (*model.MediaObject, error) {
	if m.getByKeyFn != nil {
		return m.getByKeyFn(ctx, key)
	}
	return nil, repository.ErrMediaNotFound
}
