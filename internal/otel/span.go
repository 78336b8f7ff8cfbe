// Package otel provides OpenTelemetry instrumentation utilities for the reader API.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for business context used across the application.
// Using shared keys ensures consistent attribute naming in traces.
const (
	AttrOperation   = attribute.Key("dispatch.operation")
	AttrSourceCode  = attribute.Key("source.code")
	AttrSourceRef   = attribute.Key("source.ref")
	AttrListName    = attribute.Key("source_list.name")
	AttrListType    = attribute.Key("source_list.type")
	AttrPage        = attribute.Key("pagination.page")
	AttrResultCount = attribute.Key("result.count")
	AttrErrorKind   = attribute.Key("error.kind")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns a
// non-recording span. The span in ctx is never returned, so ending the result
// cannot end the caller's span.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(context.Background())
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records an error on a span and sets the span status to error.
// It safely handles nil spans and nil errors.
// Note: The status description is intentionally generic to prevent sensitive
// information (e.g., source URLs, engine responses) from appearing in trace
// status. The full error details are still available via span events for debugging.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}

// EndSpan records err, if any, and ends the span.
func EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	RecordError(span, err)
	span.End()
}
