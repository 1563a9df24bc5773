package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/gleansync/ns-glean-sync/internal/credentials"
	"github.com/gleansync/ns-glean-sync/internal/glean"
	"github.com/gleansync/ns-glean-sync/internal/otel"
	"github.com/gleansync/ns-glean-sync/internal/telemetry"
)

const (
	// DefaultStageTimeout bounds a whole stage invocation
	DefaultStageTimeout = 5 * time.Minute

	// CoordinatorTracerName is the name used for the workflow tracer
	CoordinatorTracerName = "github.com/gleansync/ns-glean-sync/workflow"
)

// Handlers runs the work behind each stage. Later stages read the credential
// set from the store by id; nothing keeps a copy between calls.
//
//go:generate mockgen -destination=mocks/mock_handlers.go -package=mocks -source=coordinator.go Handlers
type Handlers interface {
	// StoreCredentials validates and persists the set, reporting its id in the payload
	StoreCredentials(ctx context.Context, creds credentials.CredentialSet) StageResult

	// IndexUsers pushes the ERP users to the search platform
	IndexUsers(ctx context.Context, credentialID string) StageResult

	// FetchRecords pulls every business object type and returns the documents in the payload
	FetchRecords(ctx context.Context, credentialID string) StageResult

	// BulkIndexDocuments uploads the fetched documents in batches
	BulkIndexDocuments(ctx context.Context, credentialID string, docs []glean.Document) StageResult
}

// Snapshot is a read-only copy of a run for presentation
type Snapshot struct {
	SessionID         string         `json:"sessionId,omitempty"`
	CurrentStage      Stage          `json:"currentStage"`
	FailedStage       *Stage         `json:"failedStage,omitempty"`
	LastError         *Error         `json:"lastError,omitempty"`
	InFlight          bool           `json:"inFlight"`
	CredentialID      string         `json:"credentialId,omitempty"`
	RecordCounts      map[string]int `json:"recordCounts,omitempty"`
	DocumentsBuffered int            `json:"documentsBuffered"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// run is the mutable state of one WorkflowRun
type run struct {
	stage        Stage
	failedStage  Stage
	lastError    *Error
	inFlight     bool
	credentialID string
	documents    []glean.Document
	recordCounts map[string]int
	createdAt    time.Time
	updatedAt    time.Time
}

// Coordinator is the single source of truth for one run's stage. It accepts
// stage invocations only in order, one at a time.
type Coordinator struct {
	handlers     Handlers
	sessionID    string
	stageTimeout time.Duration
	metrics      *telemetry.WorkflowMetrics
	tracer       trace.Tracer
	now          func() time.Time

	mu  sync.Mutex
	run run
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithSessionID tags logs, spans and snapshots with the owning session
func WithSessionID(id string) Option {
	return func(c *Coordinator) {
		c.sessionID = id
	}
}

// WithStageTimeout bounds each stage invocation
func WithStageTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.stageTimeout = d
		}
	}
}

// WithMetrics sets the stage metrics
func WithMetrics(m *telemetry.WorkflowMetrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithTracer sets the OpenTelemetry tracer. If not set, tracing is disabled.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Coordinator) {
		c.tracer = tracer
	}
}

// NewCoordinator creates a Coordinator for a fresh run at CollectingCredentials
func NewCoordinator(handlers Handlers, opts ...Option) *Coordinator {
	c := &Coordinator{
		handlers:     handlers,
		stageTimeout: DefaultStageTimeout,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	now := c.now()
	c.run = run{stage: CollectingCredentials, createdAt: now, updatedAt: now}
	return c
}

// SubmitCredentials runs the StoreCredentials stage. A run accepts one credential set.
func (c *Coordinator) SubmitCredentials(ctx context.Context, creds credentials.CredentialSet) StageResult {
	return c.invoke(ctx, CollectingCredentials, func(ctx context.Context, _ string, _ []glean.Document) StageResult {
		return c.handlers.StoreCredentials(ctx, creds)
	})
}

// RunIndexUsers runs the IndexUsers stage
func (c *Coordinator) RunIndexUsers(ctx context.Context) StageResult {
	return c.invoke(ctx, IndexingUsers, func(ctx context.Context, credentialID string, _ []glean.Document) StageResult {
		return c.handlers.IndexUsers(ctx, credentialID)
	})
}

// RunFetchRecords runs the FetchRecords stage and buffers the fetched documents
func (c *Coordinator) RunFetchRecords(ctx context.Context) StageResult {
	return c.invoke(ctx, FetchingRecords, func(ctx context.Context, credentialID string, _ []glean.Document) StageResult {
		return c.handlers.FetchRecords(ctx, credentialID)
	})
}

// RunBulkIndex runs the BulkIndexDocuments stage over the buffered documents
func (c *Coordinator) RunBulkIndex(ctx context.Context) StageResult {
	return c.invoke(ctx, BulkIndexing, func(ctx context.Context, credentialID string, docs []glean.Document) StageResult {
		return c.handlers.BulkIndexDocuments(ctx, credentialID, docs)
	})
}

// Snapshot returns a copy of the run
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.run
	s := Snapshot{
		SessionID:         c.sessionID,
		CurrentStage:      r.stage,
		LastError:         r.lastError,
		InFlight:          r.inFlight,
		CredentialID:      r.credentialID,
		DocumentsBuffered: len(r.documents),
		CreatedAt:         r.createdAt,
		UpdatedAt:         r.updatedAt,
	}
	if r.lastError != nil {
		failed := r.failedStage
		s.FailedStage = &failed
	}
	if r.recordCounts != nil {
		s.RecordCounts = make(map[string]int, len(r.recordCounts))
		for k, v := range r.recordCounts {
			s.RecordCounts[k] = v
		}
	}
	return s
}

// Busy reports whether a stage is running
func (c *Coordinator) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.run.inFlight
}

type stageFunc func(ctx context.Context, credentialID string, docs []glean.Document) StageResult

func (c *Coordinator) invoke(ctx context.Context, stage Stage, fn stageFunc) StageResult {
	credentialID, docs, seqErr := c.begin(stage)
	if seqErr != nil {
		slog.WarnContext(ctx, "Rejected out-of-order stage",
			"session_id", c.sessionID,
			"stage", stage.String(),
			"reason", seqErr.Message)
		return FailedWith(seqErr, nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.stageTimeout)
	defer cancel()

	ctx, span := otel.StartSpan(ctx, c.tracer, "workflow."+stage.String())
	defer span.End()
	span.SetAttributes(otel.AttrStage.String(stage.String()), otel.AttrSessionID.String(c.sessionID))

	start := c.now()
	finished := false
	defer func() {
		// A panicking handler fails the stage rather than leaving the run in flight
		if !finished {
			c.mu.Lock()
			r := &c.run
			r.inFlight = false
			r.lastError = NewError(KindRemote, stage, "stage aborted unexpectedly", nil)
			r.failedStage = stage
			r.stage = Failed
			r.updatedAt = c.now()
			c.mu.Unlock()
		}
	}()

	result := fn(ctx, credentialID, docs)
	normalize(stage, &result)
	c.finish(stage, &result)
	finished = true

	duration := c.now().Sub(start)
	if result.OK {
		c.metrics.RecordStage(ctx, stage.String(), duration, "")
		slog.InfoContext(ctx, "Stage completed",
			"session_id", c.sessionID,
			"stage", stage.String(),
			"duration", duration,
			"message", result.Message)
	} else {
		otel.RecordError(span, result.Err)
		c.metrics.RecordStage(ctx, stage.String(), duration, string(result.Err.Kind))
		slog.WarnContext(ctx, "Stage failed",
			"session_id", c.sessionID,
			"stage", stage.String(),
			"duration", duration,
			"error_kind", string(result.Err.Kind),
			"error", result.Err.Message)
	}
	c.recordIndexed(ctx, stage, result)
	return result
}

// begin validates that stage is the one the run expects and marks it in flight
func (c *Coordinator) begin(stage Stage) (string, []glean.Document, *Error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := &c.run
	if r.inFlight {
		return "", nil, sequenceError(stage, "%s is still running", r.stage)
	}
	if r.stage == Completed {
		return "", nil, sequenceError(stage, "workflow is already completed")
	}

	expected := r.stage
	if r.stage == Failed {
		expected = r.failedStage
	}
	if stage != expected {
		if stage == CollectingCredentials {
			return "", nil, sequenceError(stage, "credentials were already submitted for this run")
		}
		return "", nil, sequenceError(stage, "cannot run %s while the workflow expects %s", stage, expected)
	}

	r.inFlight = true
	r.stage = stage
	r.updatedAt = c.now()
	return r.credentialID, r.documents, nil
}

// finish applies the stage outcome to the run
func (c *Coordinator) finish(stage Stage, result *StageResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := &c.run
	r.inFlight = false
	r.updatedAt = c.now()

	if !result.OK {
		r.lastError = result.Err
		r.failedStage = stage
		r.stage = Failed
		// Accepted batches stay accepted; the run waits at BulkIndexing for a retry
		if stage == BulkIndexing && result.Payload != nil &&
			result.Payload.PartialSuccessCount != nil && *result.Payload.PartialSuccessCount > 0 {
			r.stage = BulkIndexing
		}
		return
	}

	r.lastError = nil
	switch stage {
	case CollectingCredentials:
		if result.Payload != nil {
			r.credentialID = result.Payload.CredentialID
		}
	case FetchingRecords:
		if result.Payload != nil {
			r.documents = result.Payload.Documents
			r.recordCounts = result.Payload.RecordCounts
			result.Payload.Documents = nil
		}
	case BulkIndexing:
		r.documents = nil
	}
	r.stage = stage.next()
}

// normalize makes sure a failed result carries an error attributed to stage
func normalize(stage Stage, result *StageResult) {
	if result.OK {
		return
	}
	if result.Err == nil {
		result.Err = NewError(KindRemote, stage, result.Message, nil)
	}
	result.Err.Stage = stage
	if result.Message == "" {
		result.Message = result.Err.Message
	}
}

func (c *Coordinator) recordIndexed(ctx context.Context, stage Stage, result StageResult) {
	if result.Payload == nil {
		return
	}
	switch stage {
	case IndexingUsers:
		if result.Payload.UsersIndexed != nil {
			c.metrics.RecordItemsIndexed(ctx, "users", *result.Payload.UsersIndexed)
		}
	case BulkIndexing:
		if result.Payload.DocumentsIndexed != nil {
			c.metrics.RecordItemsIndexed(ctx, "documents", *result.Payload.DocumentsIndexed)
		}
	}
}
