package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/gleansync/ns-glean-sync/internal/db/sqlc"
	"github.com/gleansync/ns-glean-sync/internal/otel"
	"github.com/gleansync/ns-glean-sync/internal/secrets"
)

// StoreTracerName is the name used for the database store tracer
const StoreTracerName = "github.com/gleansync/ns-glean-sync/credentials/db"

type dbOptions struct {
	pool   *pgxpool.Pool
	sealer secrets.Sealer
	tracer trace.Tracer
}

// DBOption is a functional option for configuring the database store
type DBOption func(*dbOptions) error

// WithConnectionPool sets the pgx pool. The caller owns the pool and closes it.
func WithConnectionPool(pool *pgxpool.Pool) DBOption {
	return func(o *dbOptions) error {
		if pool == nil {
			return fmt.Errorf("pgx pool is required")
		}
		o.pool = pool
		return nil
	}
}

// WithSealer sets the sealer used for secret columns
func WithSealer(sealer secrets.Sealer) DBOption {
	return func(o *dbOptions) error {
		if sealer == nil {
			return fmt.Errorf("sealer is required")
		}
		o.sealer = sealer
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer. If not set, tracing is disabled.
func WithTracer(tracer trace.Tracer) DBOption {
	return func(o *dbOptions) error {
		o.tracer = tracer
		return nil
	}
}

// dbStore implements Store on top of the auth_credentials table
type dbStore struct {
	pool   *pgxpool.Pool
	sealer secrets.Sealer
	tracer trace.Tracer
}

var _ Store = (*dbStore)(nil)

// NewDBStore creates a PostgreSQL backed store
func NewDBStore(opts ...DBOption) (Store, error) {
	o := &dbOptions{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	if o.pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	if o.sealer == nil {
		return nil, fmt.Errorf("sealer is required")
	}

	return &dbStore{
		pool:   o.pool,
		sealer: o.sealer,
		tracer: o.tracer,
	}, nil
}

func (s *dbStore) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.StartSpan(ctx, s.tracer, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(semconv.DBSystemPostgreSQL),
	)
}

func (s *dbStore) Save(ctx context.Context, creds CredentialSet) (string, error) {
	ctx, span := s.startSpan(ctx, "dbStore.Save")
	defer span.End()

	if err := creds.Validate(); err != nil {
		otel.RecordError(span, err)
		return "", err
	}

	sealed, err := seal(s.sealer, creds.Normalize())
	if err != nil {
		otel.RecordError(span, err)
		return "", err
	}

	id, err := sqlc.New(s.pool).InsertAuthCredential(ctx, sqlc.InsertAuthCredentialParams{
		GleanAccount:           sealed.gleanAccount,
		GleanApiToken:          sealed.gleanToken,
		NetsuiteAccountID:      sealed.accountID,
		NetsuiteConsumerKey:    sealed.consumerKey,
		NetsuiteConsumerSecret: sealed.consumerSecret,
		NetsuiteToken:          sealed.token,
		NetsuiteTokenSecret:    sealed.tokenSecret,
		KeyID:                  sealed.keyID,
	})
	if err != nil {
		otel.RecordError(span, err)
		return "", fmt.Errorf("failed to insert credentials: %w", err)
	}

	credID := uuid.UUID(id.Bytes).String()
	span.SetAttributes(otel.AttrCredentialID.String(credID))
	slog.DebugContext(ctx, "Stored credential set", "credential_id", credID, "credentials", creds)

	return credID, nil
}

func (s *dbStore) Get(ctx context.Context, id string) (*CredentialSet, error) {
	ctx, span := s.startSpan(ctx, "dbStore.Get")
	defer span.End()
	span.SetAttributes(otel.AttrCredentialID.String(id))

	parsed, err := uuid.Parse(id)
	if err != nil {
		// Malformed ids can never match a row.
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	row, err := sqlc.New(s.pool).GetAuthCredential(ctx, pgtype.UUID{Bytes: parsed, Valid: true})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		otel.RecordError(span, err)
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	sealed := &sealedSet{
		gleanAccount:   row.GleanAccount,
		accountID:      row.NetsuiteAccountID,
		gleanToken:     row.GleanApiToken,
		consumerKey:    row.NetsuiteConsumerKey,
		consumerSecret: row.NetsuiteConsumerSecret,
		token:          row.NetsuiteToken,
		tokenSecret:    row.NetsuiteTokenSecret,
		keyID:          row.KeyID,
	}

	creds, err := sealed.open(s.sealer)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	return creds, nil
}

func (s *dbStore) Count(ctx context.Context) (int64, error) {
	ctx, span := s.startSpan(ctx, "dbStore.Count")
	defer span.End()

	count, err := sqlc.New(s.pool).CountAuthCredentials(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return 0, fmt.Errorf("failed to count credentials: %w", err)
	}
	return count, nil
}

func (s *dbStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}
