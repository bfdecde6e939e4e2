package metrics

import (
	"context"
	"log/slog"

	"github.com/hszk-dev/mediacache/internal/domain/model"
	"github.com/hszk-dev/mediacache/internal/domain/repository"
)

// Recorder is the media service's observability sink. Every event is logged
// and counted; failures are logged at warn level.
type Recorder struct {
	logger *slog.Logger
}

// Compile-time verification that Recorder implements repository.EventRecorder.
var _ repository.EventRecorder = (*Recorder)(nil)

// NewRecorder creates a Recorder writing to logger.
func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{logger: logger}
}

// Record logs and counts event.
func (r *Recorder) Record(ctx context.Context, event model.Event) {
	EventsTotal.WithLabelValues(string(event.Name)).Inc()

	attrs := []slog.Attr{
		slog.String("event", string(event.Name)),
	}
	if event.Key != "" {
		attrs = append(attrs, slog.String("key", event.Key))
	}
	if event.Size > 0 {
		attrs = append(attrs, slog.Int64("size", event.Size))
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}

	level := slog.LevelInfo
	if event.Err != nil {
		level = slog.LevelWarn
		attrs = append(attrs, slog.String("error", event.Err.Error()))
	}

	r.logger.LogAttrs(ctx, level, "media event", attrs...)
}
