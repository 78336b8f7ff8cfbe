package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// DispatchMetricsMeterName is the name used for the dispatch metrics meter
	DispatchMetricsMeterName = "github.com/qianmo517/reader/dispatch"

	// RegistryMetricsMeterName is the name used for the registry metrics meter
	RegistryMetricsMeterName = "github.com/qianmo517/reader/registry"

	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/qianmo517/reader/sync"
)

// DispatchMetrics holds the instruments for operation dispatch
type DispatchMetrics struct {
	duration metric.Float64Histogram
	failures metric.Int64Counter
}

// NewDispatchMetrics creates a new DispatchMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewDispatchMetrics(provider metric.MeterProvider) (*DispatchMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(DispatchMetricsMeterName)

	duration, err := meter.Float64Histogram(
		"reader_api_dispatch_duration_seconds",
		metric.WithDescription("Duration of book-source operations, from dispatch until the engine settles"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60),
	)
	if err != nil {
		return nil, err
	}

	failures, err := meter.Int64Counter(
		"reader_api_dispatch_failures_total",
		metric.WithDescription("Failed book-source operations by error kind"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, err
	}

	return &DispatchMetrics{
		duration: duration,
		failures: failures,
	}, nil
}

// RecordOperation records one settled operation. errKind is empty on success.
func (m *DispatchMetrics) RecordOperation(ctx context.Context, operation string, duration time.Duration, errKind string) {
	if m == nil || m.duration == nil {
		return
	}

	m.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", errKind == ""),
	))
	if errKind != "" {
		m.failures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("kind", errKind),
		))
	}
}

// RegistryMetrics holds the OpenTelemetry instruments for registry metrics
type RegistryMetrics struct {
	sourcesTotal metric.Int64Gauge
}

// NewRegistryMetrics creates a new RegistryMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewRegistryMetrics(provider metric.MeterProvider) (*RegistryMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(RegistryMetricsMeterName)

	sourcesTotal, err := meter.Int64Gauge(
		"reader_api_book_sources_total",
		metric.WithDescription("Number of book-source definitions in the registry"),
		metric.WithUnit("{source}"),
	)
	if err != nil {
		return nil, err
	}

	return &RegistryMetrics{
		sourcesTotal: sourcesTotal,
	}, nil
}

// RecordSourcesTotal records the current number of definitions in the registry
func (m *RegistryMetrics) RecordSourcesTotal(ctx context.Context, count int64) {
	if m == nil || m.sourcesTotal == nil {
		return
	}
	m.sourcesTotal.Record(ctx, count)
}

// SyncMetrics holds the OpenTelemetry instruments for sync operation metrics
type SyncMetrics struct {
	syncDuration metric.Float64Histogram
	listFetches  metric.Int64Counter
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	syncDuration, err := meter.Float64Histogram(
		"reader_api_sync_duration_seconds",
		metric.WithDescription("Duration of registry sync runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	listFetches, err := meter.Int64Counter(
		"reader_api_source_list_fetches_total",
		metric.WithDescription("Source list fetches by list and outcome"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		syncDuration: syncDuration,
		listFetches:  listFetches,
	}, nil
}

// RecordSyncDuration records the duration of a sync run
func (m *SyncMetrics) RecordSyncDuration(ctx context.Context, duration time.Duration, success bool) {
	if m == nil || m.syncDuration == nil {
		return
	}
	m.syncDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.Bool("success", success)))
}

// RecordListFetch records the outcome of fetching one source list
func (m *SyncMetrics) RecordListFetch(ctx context.Context, listName string, success bool) {
	if m == nil || m.listFetches == nil {
		return
	}
	m.listFetches.Add(ctx, 1, metric.WithAttributes(
		attribute.String("list", listName),
		attribute.Bool("success", success),
	))
}
