package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Telemetry owns the trace and metric providers of one reader-api process.
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  *MeterProvider
}

// Option is a function that configures the telemetry setup
type Option func(*telemetryConfig)

type telemetryConfig struct {
	config *Config
}

// WithTelemetryConfig sets the telemetry configuration
func WithTelemetryConfig(cfg *Config) Option {
	return func(tc *telemetryConfig) {
		tc.config = cfg
	}
}

// New builds the providers described by the configuration. Without a
// configuration, or with telemetry disabled, both providers are no-ops.
// The caller is responsible for calling Shutdown when the application exits.
func New(ctx context.Context, opts ...Option) (*Telemetry, error) {
	settings := &telemetryConfig{}
	for _, opt := range opts {
		opt(settings)
	}

	cfg := settings.config
	if cfg == nil || !cfg.Enabled {
		zap.S().Debug("Telemetry disabled")
		cfg = nil
	} else {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
		}
		zap.S().Infow("Initializing reader telemetry",
			"service_name", cfg.GetServiceName(),
			"service_version", cfg.GetServiceVersion(),
			"tracing", cfg.Tracing != nil && cfg.Tracing.Enabled,
			"metrics", cfg.Metrics != nil && cfg.Metrics.Enabled,
		)
	}

	tracerProvider, err := NewTracerProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer provider: %w", err)
	}

	meterProvider, err := NewMeterProvider(ctx, meterOptions(cfg)...)
	if err != nil {
		if sdkTracer, ok := tracerProvider.(*sdktrace.TracerProvider); ok {
			_ = sdkTracer.Shutdown(ctx)
		}
		return nil, fmt.Errorf("failed to create meter provider: %w", err)
	}

	if cfg != nil {
		installGlobals()
	}

	return &Telemetry{
		tracerProvider: tracerProvider,
		meterProvider:  meterProvider,
	}, nil
}

func meterOptions(cfg *Config) []MeterProviderOption {
	if cfg == nil {
		return nil
	}
	return []MeterProviderOption{
		WithMeterServiceName(cfg.GetServiceName()),
		WithMeterServiceVersion(cfg.GetServiceVersion()),
		WithMetricsConfig(cfg.Metrics),
		WithMeterEndpoint(cfg.GetEndpoint()),
		WithMeterInsecure(cfg.GetInsecure()),
	}
}

// installGlobals sets W3C trace context propagation, so a reader client's
// traceparent joins the dispatch spans, and reports exporter errors through zap.
func installGlobals() {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		zap.S().Warnw("Telemetry export failed", "error", err)
	}))
}

// TracerProvider returns the configured tracer provider
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

// MeterProvider returns the configured meter provider
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider.MeterProvider
}

// MetricsHandler returns the Prometheus scrape handler, or nil when metrics
// are disabled or pushed over OTLP.
func (t *Telemetry) MetricsHandler() http.Handler {
	return t.meterProvider.Handler
}

// Tracer returns a named tracer from the tracer provider
func (t *Telemetry) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return t.tracerProvider.Tracer(name, opts...)
}

// Meter returns a named meter from the meter provider
func (t *Telemetry) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	return t.meterProvider.Meter(name, opts...)
}

// Shutdown flushes pending spans and metric points and stops the SDK providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	type shutdowner interface {
		Shutdown(context.Context) error
	}

	var errs []error
	if tp, ok := t.tracerProvider.(shutdowner); ok {
		if err := tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
		}
	}
	if mp, ok := t.meterProvider.MeterProvider.(shutdowner); ok {
		if err := mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	zap.S().Debug("Telemetry shutdown complete")
	return nil
}
