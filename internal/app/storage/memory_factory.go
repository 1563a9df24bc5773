package storage

import (
	"context"
	"log/slog"

	"github.com/gleansync/ns-glean-sync/internal/credentials"
	"github.com/gleansync/ns-glean-sync/internal/secrets"
)

// MemoryFactory creates in-memory storage components. Stored credentials do
// not survive a restart.
type MemoryFactory struct {
	sealer secrets.Sealer
}

var _ Factory = (*MemoryFactory)(nil)

// NewMemoryFactory creates a new in-memory storage factory
func NewMemoryFactory(sealer secrets.Sealer) *MemoryFactory {
	slog.Warn("Using in-memory credential storage; credentials are lost on restart")
	return &MemoryFactory{sealer: sealer}
}

// CreateCredentialStore creates an in-memory credential store
func (m *MemoryFactory) CreateCredentialStore(_ context.Context) (credentials.Store, error) {
	slog.Debug("Creating in-memory credential store")
	return credentials.NewMemoryStore(m.sealer)
}

// Cleanup is a no-op for in-memory storage
func (*MemoryFactory) Cleanup() {}
