package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hszk-dev/mediacache/internal/api/middleware"
	"github.com/hszk-dev/mediacache/internal/domain/model"
	"github.com/hszk-dev/mediacache/internal/usecase"
	"github.com/hszk-dev/mediacache/internal/validator"
)

// StreamPathPrefix is where uploaded media is served from.
const StreamPathPrefix = "/static/video/"

type MediaResponse struct {
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	UploadedAt  string `json:"uploaded_at"`
}

// MediaHandler handles upload, streaming and metadata requests.
type MediaHandler struct {
	media         usecase.MediaService
	catalog       usecase.CatalogService
	maxUploadSize int64
	logger        *slog.Logger
}

// NewMediaHandler creates a new MediaHandler. catalog may be nil when the
// metadata route is not mounted.
func NewMediaHandler(media usecase.MediaService, catalog usecase.CatalogService, maxUploadSize int64, logger *slog.Logger) *MediaHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaHandler{
		media:         media,
		catalog:       catalog,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// Upload handles POST /upload/video
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	contentType := r.Header.Get("Content-Type")
	if err := validator.CheckUploadRequest(contentType, r.ContentLength, h.maxUploadSize); err != nil {
		h.writeError(w, r, err)
		return
	}

	// Content-Length is only a claim; the reader enforces it.
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUploadSize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeError(w, r, model.NewValidationError("File size must be less than 10MB"))
			return
		}
		h.writeError(w, r, model.NewValidationError("Failed to read request body"))
		return
	}

	out, err := h.media.Upload(r.Context(), usecase.UploadInput{Data: data, ContentType: contentType})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.logger.Info("video uploaded",
		slog.String("request_id", middleware.GetRequestID(r.Context())),
		slog.String("key", out.Key),
		slog.Int64("size", out.Size),
	)

	w.Header().Set("Location", StreamPathPrefix+out.Key)
	w.WriteHeader(http.StatusNoContent)
}

// Stream handles GET /static/video/{key}
func (h *MediaHandler) Stream(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := model.ValidateKey(key); err != nil {
		h.writeError(w, r, err)
		return
	}

	out, err := h.media.Stream(r.Context(), key, r.Header.Get("Range"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer out.Body.Close()

	header := w.Header()
	header.Set("Content-Type", model.MediaContentType)
	header.Set("Accept-Ranges", "bytes")

	status := http.StatusOK
	length := out.Size
	if out.Range != nil {
		status = http.StatusPartialContent
		length = out.Range.Len()
		header.Set("Content-Range", out.Range.ContentRange(out.Size))
	}
	header.Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(status)

	if r.Method == http.MethodHead {
		return
	}

	// Headers are gone; a failure here can only be logged.
	if _, err := io.Copy(w, out.Body); err != nil {
		h.logger.Warn("stream interrupted",
			slog.String("request_id", middleware.GetRequestID(r.Context())),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// Get handles GET /v1/media/{key}
func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		Error(w, http.StatusNotFound, "Not found", string(model.KindNotFound))
		return
	}

	media, err := h.catalog.GetMedia(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, MediaResponse{
		Key:         media.Key,
		Size:        media.Size,
		ContentType: media.ContentType,
		UploadedAt:  media.UploadedAt.UTC().Format(time.RFC3339),
	})
}

// NotFound is the router's fallback for unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	Error(w, http.StatusNotFound, "Not found", string(model.KindNotFound))
}

func (h *MediaHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())

	appErr, ok := model.AsError(err)
	switch {
	case !ok:
		h.logger.Error("unexpected error",
			slog.String("request_id", requestID),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	case appErr.Kind.HTTPStatus() >= http.StatusInternalServerError:
		h.logger.Error("request failed",
			slog.String("request_id", requestID),
			slog.String("path", r.URL.Path),
			slog.String("code", string(appErr.Kind)),
			slog.String("error", err.Error()),
		)
	default:
		h.logger.Warn("request rejected",
			slog.String("request_id", requestID),
			slog.String("path", r.URL.Path),
			slog.String("code", string(appErr.Kind)),
			slog.String("error", appErr.Message),
		)
	}

	WriteError(w, err)
}
