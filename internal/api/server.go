// Package api provides the REST API server for book-source dispatch.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/qianmo517/reader/internal/api/common"
	"github.com/qianmo517/reader/internal/api/health"
	"github.com/qianmo517/reader/internal/api/source"
	"github.com/qianmo517/reader/internal/booksource"
	"github.com/qianmo517/reader/internal/dispatch"
	"github.com/qianmo517/reader/internal/status"
)

// ServerOption configures the API server
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares    []func(http.Handler) http.Handler
	metricsHandler http.Handler
	syncStatus     func() status.SyncStatus
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithMetricsHandler serves h at /metrics
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.metricsHandler = h
	}
}

// WithSyncStatus serves the result of fn at /status
func WithSyncStatus(fn func() status.SyncStatus) ServerOption {
	return func(cfg *serverConfig) {
		cfg.syncStatus = fn
	}
}

// NewServer creates and configures the HTTP router
func NewServer(dispatcher *dispatch.Dispatcher, registry *booksource.Registry, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{
		middlewares: []func(http.Handler) http.Handler{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()
	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	r.Mount("/", health.Router(registryReadiness(registry)))
	if cfg.metricsHandler != nil {
		r.Handle("/metrics", cfg.metricsHandler)
	}
	if cfg.syncStatus != nil {
		syncStatus := cfg.syncStatus
		r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
			common.WriteJSONResponse(w, syncStatus(), http.StatusOK)
		})
	}

	r.Mount("/source", source.Router(dispatcher, registry))
	r.Mount("/yuedu", source.LegacyRouter(dispatcher, registry))

	return r
}

// DefaultMiddlewares returns the middleware chain every server runs, outermost first.
func DefaultMiddlewares() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.RequestID,
		middleware.RealIP,
		LoggingMiddleware,
		middleware.Recoverer,
	}
}

func registryReadiness(registry *booksource.Registry) health.ReadinessFunc {
	return func(context.Context) error {
		if !registry.Loaded() {
			return errors.New("book source registry not loaded")
		}
		return nil
	}
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		zap.S().Debugw("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
