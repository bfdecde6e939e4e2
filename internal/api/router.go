package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hszk-dev/mediacache/internal/api/handler"
	"github.com/hszk-dev/mediacache/internal/api/middleware"
)

// RouterConfig lists what the HTTP surface is built from.
type RouterConfig struct {
	Logger      *slog.Logger
	Media       *handler.MediaHandler
	Health      http.Handler
	Metrics     http.Handler // optional
	CORSOrigins []string
	// MetadataRoutes mounts GET /v1/media/{key}.
	MetadataRoutes bool
}

func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Range"},
		ExposedHeaders: []string{"Accept-Ranges", "Content-Length", "Content-Range", "Location", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.NotFound(handler.NotFound)

	r.Method(http.MethodGet, "/health", cfg.Health)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	r.Post("/upload/video", cfg.Media.Upload)
	r.Get(handler.StreamPathPrefix+"{key}", cfg.Media.Stream)
	r.Head(handler.StreamPathPrefix+"{key}", cfg.Media.Stream)

	if cfg.MetadataRoutes {
		r.Route("/v1", func(r chi.Router) {
			r.Get("/media/{key}", cfg.Media.Get)
		})
	}

	return r
}
