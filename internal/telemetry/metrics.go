// Package telemetry provides OpenTelemetry instrumentation for the sync server.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// WorkflowMetricsMeterName is the name used for the workflow metrics meter
	WorkflowMetricsMeterName = "github.com/gleansync/ns-glean-sync/workflow"

	// SessionMetricsMeterName is the name used for the session metrics meter
	SessionMetricsMeterName = "github.com/gleansync/ns-glean-sync/sessions"
)

// WorkflowMetrics holds the OpenTelemetry instruments for workflow stages
type WorkflowMetrics struct {
	stageDuration metric.Float64Histogram
	stageRuns     metric.Int64Counter
	itemsIndexed  metric.Int64Counter
}

// NewWorkflowMetrics creates a new WorkflowMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewWorkflowMetrics(provider metric.MeterProvider) (*WorkflowMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(WorkflowMetricsMeterName)

	stageDuration, err := meter.Float64Histogram(
		"nsgs_stage_duration_seconds",
		metric.WithDescription("Duration of workflow stage invocations in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	stageRuns, err := meter.Int64Counter(
		"nsgs_stage_runs_total",
		metric.WithDescription("Number of workflow stage invocations by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	itemsIndexed, err := meter.Int64Counter(
		"nsgs_items_indexed_total",
		metric.WithDescription("Number of users and documents accepted by the search platform"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	return &WorkflowMetrics{
		stageDuration: stageDuration,
		stageRuns:     stageRuns,
		itemsIndexed:  itemsIndexed,
	}, nil
}

// RecordStage records the duration and outcome of one stage invocation.
// errorKind is empty on success.
func (m *WorkflowMetrics) RecordStage(ctx context.Context, stage string, duration time.Duration, errorKind string) {
	if m == nil || m.stageDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("stage", stage),
		attribute.Bool("success", errorKind == ""),
	}
	m.stageDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))

	if errorKind != "" {
		attrs = append(attrs, attribute.String("error_kind", errorKind))
	}
	m.stageRuns.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordItemsIndexed counts users or documents accepted by the search platform
func (m *WorkflowMetrics) RecordItemsIndexed(ctx context.Context, kind string, count int) {
	if m == nil || m.itemsIndexed == nil || count <= 0 {
		return
	}

	m.itemsIndexed.Add(ctx, int64(count), metric.WithAttributes(attribute.String("kind", kind)))
}

// SessionMetrics holds the OpenTelemetry instruments for workflow sessions
type SessionMetrics struct {
	activeSessions metric.Int64UpDownCounter
}

// NewSessionMetrics creates a new SessionMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSessionMetrics(provider metric.MeterProvider) (*SessionMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SessionMetricsMeterName)

	activeSessions, err := meter.Int64UpDownCounter(
		"nsgs_sessions_active",
		metric.WithDescription("Number of live onboarding sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	return &SessionMetrics{activeSessions: activeSessions}, nil
}

// SessionStarted increments the live session count
func (m *SessionMetrics) SessionStarted(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, 1)
}

// SessionEnded decrements the live session count
func (m *SessionMetrics) SessionEnded(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, -1)
}
