// Package validator enforces the upload policy: cheap structural checks on the
// request and magic-byte sniffing of the payload on an isolated worker pool.
package validator

import (
	"bytes"
	"context"
	"runtime"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/hszk-dev/mediacache/internal/domain/model"
)

// Outcome reasons, in precedence order.
const (
	ReasonInvalidType = "Invalid file type"
	ReasonTooLarge    = "File too large"
	ReasonError       = "Error validating file"
	ReasonUnavailable = "Failed to validate video"
)

// CheckUploadRequest validates the declared content type and size before any
// payload bytes are inspected. A negative contentLength means it was not declared.
func CheckUploadRequest(contentType string, contentLength, maxSize int64) error {
	if !strings.HasPrefix(strings.ToLower(contentType), "video/") {
		return model.NewValidationError("Content-Type must be video/*")
	}
	if contentLength < 0 || contentLength > maxSize {
		return model.NewValidationError("File size must be less than 10MB")
	}
	return nil
}

// Sniffer detects the MIME type of a payload from its content.
type Sniffer interface {
	Detect(data []byte) string
}

// MimetypeSniffer detects MIME types from magic bytes.
type MimetypeSniffer struct{}

func (MimetypeSniffer) Detect(data []byte) string {
	return mimetype.Detect(data).String()
}

// Config holds configuration for the validation pool.
type Config struct {
	// Workers is the number of sniffing goroutines.
	Workers int
	// QueueSize bounds the number of payloads waiting for a worker.
	QueueSize int
	// MaxSize is the largest accepted payload in bytes.
	MaxSize int64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Workers:   runtime.NumCPU(),
		QueueSize: 64,
		MaxSize:   model.MaxUploadSize,
	}
}

type task struct {
	data   []byte
	result chan<- model.ValidationOutcome
}

// Pool runs payload sniffing on a fixed set of worker goroutines. Each task
// carries its own copy of the payload and receives a single outcome back.
type Pool struct {
	sniffer Sniffer
	maxSize int64

	tasks     chan task
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewPool starts cfg.Workers workers. Call Close to stop them.
func NewPool(sniffer Sniffer, cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize < 0 {
		cfg.QueueSize = 0
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = model.MaxUploadSize
	}

	p := &Pool{
		sniffer: sniffer,
		maxSize: cfg.MaxSize,
		tasks:   make(chan task, cfg.QueueSize),
		done:    make(chan struct{}),
	}

	p.wg.Add(cfg.Workers)
	for range cfg.Workers {
		go p.worker()
	}
	return p
}

// Validate sniffs data on a worker and waits for the outcome.
// It never fails: cancellation and shutdown are reported as an invalid outcome.
func (p *Pool) Validate(ctx context.Context, data []byte) model.ValidationOutcome {
	unavailable := model.ValidationOutcome{Reason: ReasonUnavailable}

	select {
	case <-p.done:
		return unavailable
	default:
	}

	result := make(chan model.ValidationOutcome, 1)
	t := task{data: bytes.Clone(data), result: result}

	select {
	case p.tasks <- t:
	case <-p.done:
		return unavailable
	case <-ctx.Done():
		return unavailable
	}

	select {
	case out := <-result:
		return out
	case <-p.done:
		return unavailable
	case <-ctx.Done():
		return unavailable
	}
}

// Close stops the workers and waits for them to exit. Queued tasks are dropped.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
	})
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case t := <-p.tasks:
			t.result <- p.inspect(t.data)
		}
	}
}

func (p *Pool) inspect(data []byte) (out model.ValidationOutcome) {
	defer func() {
		if r := recover(); r != nil {
			out = model.ValidationOutcome{Reason: ReasonError}
		}
	}()

	isVideo := strings.HasPrefix(p.sniffer.Detect(data), "video/")
	withinSize := int64(len(data)) <= p.maxSize

	switch {
	case !isVideo:
		return model.ValidationOutcome{Reason: ReasonInvalidType}
	case !withinSize:
		return model.ValidationOutcome{Reason: ReasonTooLarge}
	default:
		return model.ValidationOutcome{Valid: true}
	}
}
