package repository

import (
	"context"
	"time"
)

// MediaUploadedEvent is published after an upload has been persisted.
type MediaUploadedEvent struct {
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// MessageQueue defines the interface for message queue operations.
// Implementations should be provided by the infrastructure layer (e.g., RabbitMQ).
type MessageQueue interface {
	// PublishMediaUploaded announces a newly stored media object.
	// Used by the API server after the storage write succeeds.
	PublishMediaUploaded(ctx context.Context, event MediaUploadedEvent) error

	// ConsumeMediaUploaded consumes upload events until ctx is cancelled.
	// The handler function is called for each received event.
	// Used by the worker service.
	ConsumeMediaUploaded(ctx context.Context, handler func(event MediaUploadedEvent) error) error

	// Close gracefully closes the connection to the message queue.
	Close() error
}
