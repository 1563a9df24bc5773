// Package storage provides factory functions for creating storage-dependent components.
package storage

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/gleansync/ns-glean-sync/internal/config"
	"github.com/gleansync/ns-glean-sync/internal/credentials"
	"github.com/gleansync/ns-glean-sync/internal/secrets"
)

//go:generate mockgen -destination=mocks/mock_factory.go -package=mocks -source=factory.go Factory

// Factory creates the credential store for the configured backend and owns
// the resources behind it.
type Factory interface {
	// CreateCredentialStore creates a store that seals secrets with the factory's sealer
	CreateCredentialStore(ctx context.Context) (credentials.Store, error)

	// Cleanup releases any resources held by this factory.
	// For the database factory this closes the connection pool.
	Cleanup()
}

// Option configures a storage factory
type Option func(*factoryConfig)

type factoryConfig struct {
	tracer trace.Tracer
}

// WithTracer sets the OpenTelemetry tracer for database operations.
// If not set, tracing is disabled.
func WithTracer(tracer trace.Tracer) Option {
	return func(f *factoryConfig) {
		f.tracer = tracer
	}
}

// NewStorageFactory creates a storage factory based on the configured storage type.
func NewStorageFactory(ctx context.Context, cfg *config.Config, sealer secrets.Sealer, opts ...Option) (Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if sealer == nil {
		return nil, fmt.Errorf("sealer cannot be nil")
	}

	fc := &factoryConfig{}
	for _, opt := range opts {
		opt(fc)
	}

	switch cfg.GetStorageType() {
	case config.StorageTypeDatabase:
		return NewDatabaseFactory(ctx, cfg, sealer, fc.tracer)
	case config.StorageTypeMemory:
		return NewMemoryFactory(sealer), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.GetStorageType())
	}
}
