package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sagarc03/zipstream"
	"github.com/sagarc03/zipstream/metrics"
)

type Service interface {
	Open(ctx context.Context, name string) (*zipstream.Archive, error)
	Finish(a *zipstream.Archive) zipstream.Download
	History(ctx context.Context, q zipstream.ListQuery) (zipstream.ListResult, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" validate:"min=0"`
}

type HandlerConfig struct {
	// StallTimeout bounds each chunk write. Zero disables the deadline.
	StallTimeout time.Duration
	// IndexHTML replaces the embedded index page when non-empty.
	IndexHTML []byte
	// History mounts GET /downloads.
	History bool
	// Metrics receives stream events; nil disables them.
	Metrics *metrics.StreamMetrics
	// MetricsHandler is mounted at GET /metrics when non-nil.
	MetricsHandler http.Handler
	CORS           CORSConfig
	Logger         *slog.Logger
}

// Handler provides HTTP handlers for archive downloads.
type Handler struct {
	config  HandlerConfig
	service Service
	index   []byte
	logger  *slog.Logger
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	index := config.IndexHTML
	if len(index) == 0 {
		index = defaultIndexHTML
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		config:  *config,
		service: service,
		index:   index,
		logger:  logger,
	}
}

// Router returns an http.Handler with all routes configured.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(h.logger))

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Get("/", h.handleIndex)
	r.Get("/archive/{archive_hash}/", h.handleArchive)
	r.Get("/healthz", h.handleHealth)

	if h.config.History {
		r.Get("/downloads", h.handleHistory)
	}

	if h.config.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", h.config.MetricsHandler)
	}

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	archive := r.URL.Query().Get("archive")
	limitStr := r.URL.Query().Get("limit")
	cursor := r.URL.Query().Get("cursor")

	limit, err := parseLimit(limitStr)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}

	query := zipstream.ListQuery{
		Archive: archive,
		Limit:   limit,
		Cursor:  cursor,
	}

	result, err := h.service.History(r.Context(), query)
	if err != nil {
		switch {
		case errors.Is(err, zipstream.ErrInvalidInput):
			WriteError(w, http.StatusBadRequest, "invalid_parameter", "Invalid archive or cursor")
		case errors.Is(err, zipstream.ErrHistoryDisabled):
			WriteError(w, http.StatusNotFound, "history_disabled", "Download history is disabled")
		default:
			h.logger.Error("list downloads failed", "err", err)
			WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		}
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

// parseLimit parses the page size, defaulting to 100 and clamping to [1, 1000].
func parseLimit(s string) (int, error) {
	if s == "" {
		return 100, nil
	}

	parsed, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("limit %q: %w", s, ErrInvalidParameter)
	}

	return max(1, min(1000, parsed)), nil
}
