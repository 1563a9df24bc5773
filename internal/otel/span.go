// Package otel provides OpenTelemetry instrumentation utilities for the sync server.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys shared by every span the server creates.
const (
	AttrCredentialID = attribute.Key("credential.id")
	AttrSessionID    = attribute.Key("session.id")
	AttrStage        = attribute.Key("workflow.stage")
	AttrObjectType   = attribute.Key("netsuite.object_type")
	AttrResultCount  = attribute.Key("result.count")
	AttrBatchIndex   = attribute.Key("upload.batch_index")
	AttrBatchCount   = attribute.Key("upload.batch_count")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns the
// span already carried by ctx (a no-op span when there is none).
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records an error on a span and sets the span status to error.
// The status description stays generic so remote messages or credentials never
// end up in the trace status; details remain in the span event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}
