package app

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/qianmo517/reader/internal/api"
	"github.com/qianmo517/reader/internal/booksource"
	"github.com/qianmo517/reader/internal/config"
	"github.com/qianmo517/reader/internal/dispatch"
	"github.com/qianmo517/reader/internal/engine"
	"github.com/qianmo517/reader/internal/sources"
	pkgsync "github.com/qianmo517/reader/internal/sync"
	"github.com/qianmo517/reader/internal/sync/coordinator"
	"github.com/qianmo517/reader/internal/telemetry"
)

const (
	defaultReadTimeout = 10 * time.Second
	defaultIdleTimeout = 60 * time.Second

	// writeTimeoutMargin is added to the engine timeout so a slow engine call
	// still gets its envelope written
	writeTimeoutMargin = 15 * time.Second

	// tracerName names the tracer used for dispatch spans
	tracerName = "github.com/qianmo517/reader/dispatch"
)

// ReaderAppOptions is a function that configures the reader app builder
type ReaderAppOptions func(*readerAppConfig) error

// readerAppConfig collects what NewReaderApp needs.
// It supports dependency injection for testing while providing sensible defaults for production
type readerAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	engine               engine.Engine
	sourceHandlerFactory sources.SourceHandlerFactory
	syncManager          pkgsync.Manager

	// HTTP server options
	address     string
	middlewares []func(http.Handler) http.Handler
	readTimeout time.Duration
	idleTimeout time.Duration

	telemetry *telemetry.Telemetry
}

func baseConfig(opts ...ReaderAppOptions) (*readerAppConfig, error) {
	cfg := &readerAppConfig{
		readTimeout: defaultReadTimeout,
		idleTimeout: defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.address == "" {
		cfg.address = cfg.config.GetAddress()
	}

	return cfg, nil
}

// NewReaderApp builds the application from its configuration
func NewReaderApp(ctx context.Context, opts ...ReaderAppOptions) (*ReaderApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	if cfg.telemetry == nil {
		cfg.telemetry, err = telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.config.Telemetry))
		if err != nil {
			return nil, fmt.Errorf("failed to create telemetry: %w", err)
		}
	}

	registry := booksource.NewRegistry()

	dispatcher, err := buildDispatcher(cfg, registry)
	if err != nil {
		return nil, fmt.Errorf("failed to build dispatcher: %w", err)
	}

	syncCoordinator, err := buildSyncComponents(cfg, registry)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	components := &AppComponents{
		SyncCoordinator: syncCoordinator,
		Registry:        registry,
		Dispatcher:      dispatcher,
	}

	httpServer, err := buildHTTPServer(cfg, components)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)
	return &ReaderApp{
		config:     cfg.config,
		components: components,
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) ReaderAppOptions {
	return func(cfg *readerAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address, overriding the configuration file
func WithAddress(addr string) ReaderAppOptions {
	return func(cfg *readerAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares, replacing the defaults
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ReaderAppOptions {
	return func(cfg *readerAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithEngine allows injecting an engine instead of the remote one (for testing)
func WithEngine(e engine.Engine) ReaderAppOptions {
	return func(cfg *readerAppConfig) error {
		cfg.engine = e
		return nil
	}
}

// WithSourceHandlerFactory allows injecting a custom source handler factory (for testing)
func WithSourceHandlerFactory(f sources.SourceHandlerFactory) ReaderAppOptions {
	return func(cfg *readerAppConfig) error {
		cfg.sourceHandlerFactory = f
		return nil
	}
}

// WithSyncManager allows injecting a custom sync manager (for testing)
func WithSyncManager(sm pkgsync.Manager) ReaderAppOptions {
	return func(cfg *readerAppConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithTelemetry sets the telemetry providers used for metrics and tracing
func WithTelemetry(t *telemetry.Telemetry) ReaderAppOptions {
	return func(cfg *readerAppConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// buildDispatcher builds the engine client and the dispatcher in front of it
func buildDispatcher(b *readerAppConfig, registry *booksource.Registry) (*dispatch.Dispatcher, error) {
	zap.S().Info("Initializing dispatcher")

	if b.engine == nil {
		remote, err := engine.NewRemote(b.config.Engine.Endpoint,
			engine.WithRateLimit(b.config.Engine.RequestsPerSecond, b.config.Engine.Burst))
		if err != nil {
			return nil, fmt.Errorf("failed to create engine client: %w", err)
		}
		b.engine = remote
		zap.S().Infow("Using remote book source engine", "endpoint", b.config.Engine.Endpoint)
	}

	dispatchMetrics, err := telemetry.NewDispatchMetrics(b.telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatch metrics: %w", err)
	}

	return dispatch.New(dispatch.NewResolver(registry), b.engine,
		dispatch.WithEngineTimeout(b.config.Engine.GetTimeout()),
		dispatch.WithMetrics(dispatchMetrics),
		dispatch.WithTracer(b.telemetry.Tracer(tracerName)),
	), nil
}

// writeTimeout leaves room for an engine call to finish and its envelope to be
// written. An unbounded engine call gets an unbounded write.
func writeTimeout(engineTimeout time.Duration) time.Duration {
	if engineTimeout <= 0 {
		return 0
	}
	return engineTimeout + writeTimeoutMargin
}

// buildSyncComponents builds sync manager, coordinator, and related components
func buildSyncComponents(b *readerAppConfig, registry *booksource.Registry) (coordinator.Coordinator, error) {
	zap.S().Infow("Initializing sync components", "lists", len(b.config.Sources))

	syncMetrics, err := telemetry.NewSyncMetrics(b.telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create sync metrics: %w", err)
	}

	if b.syncManager == nil {
		if b.sourceHandlerFactory == nil {
			b.sourceHandlerFactory = sources.NewSourceHandlerFactory()
		}

		registryMetrics, err := telemetry.NewRegistryMetrics(b.telemetry.MeterProvider())
		if err != nil {
			return nil, fmt.Errorf("failed to create registry metrics: %w", err)
		}

		b.syncManager = pkgsync.NewDefaultSyncManager(
			b.sourceHandlerFactory,
			registry,
			b.config.Sources,
			pkgsync.WithSyncMetrics(syncMetrics),
			pkgsync.WithRegistryMetrics(registryMetrics),
		)
	}

	return coordinator.New(b.syncManager, b.config.GetSyncInterval(),
		coordinator.WithSyncMetrics(syncMetrics)), nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(b *readerAppConfig, components *AppComponents) (*http.Server, error) {
	zap.S().Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = api.DefaultMiddlewares()
	}

	// Metrics and tracing wrap everything, including requests that panic.
	metricsMiddleware, err := telemetry.MetricsMiddleware(b.telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
	}
	middlewares := append([]func(http.Handler) http.Handler{
		metricsMiddleware,
		telemetry.TracingMiddleware(b.telemetry.TracerProvider()),
	}, b.middlewares...)

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(middlewares...),
		api.WithSyncStatus(components.SyncCoordinator.Status),
	}
	if h := b.telemetry.MetricsHandler(); h != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(h))
	}

	router := api.NewServer(components.Dispatcher, components.Registry, serverOpts...)

	server := &http.Server{
		Addr:              b.address,
		Handler:           router,
		ReadTimeout:       b.readTimeout,
		ReadHeaderTimeout: b.readTimeout,
		WriteTimeout:      writeTimeout(b.config.Engine.GetTimeout()),
		IdleTimeout:       b.idleTimeout,
	}

	zap.S().Infow("HTTP server configured", "address", b.address)
	return server, nil
}
