package repository

import (
	"context"

	"github.com/hszk-dev/mediacache/internal/domain/model"
)

// EventRecorder is the observability sink handed to the media service.
// Record must not block on I/O and must never fail.
type EventRecorder interface {
	Record(ctx context.Context, event model.Event)
}
