package credentials

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/gleansync/ns-glean-sync/internal/secrets"
)

// memoryStore keeps sealed credential sets in process memory.
type memoryStore struct {
	mu     sync.RWMutex
	sealer secrets.Sealer
	rows   map[string]*sealedSet
}

var _ Store = (*memoryStore)(nil)

// NewMemoryStore creates an in-memory store. Contents are lost on restart.
func NewMemoryStore(sealer secrets.Sealer) (Store, error) {
	if sealer == nil {
		return nil, fmt.Errorf("sealer is required")
	}
	return &memoryStore{
		sealer: sealer,
		rows:   make(map[string]*sealedSet),
	}, nil
}

func (m *memoryStore) Save(ctx context.Context, creds CredentialSet) (string, error) {
	if err := creds.Validate(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	sealed, err := seal(m.sealer, creds.Normalize())
	if err != nil {
		return "", err
	}

	id := uuid.NewString()

	m.mu.Lock()
	m.rows[id] = sealed
	m.mu.Unlock()

	return id, nil
}

func (m *memoryStore) Get(ctx context.Context, id string) (*CredentialSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	sealed, ok := m.rows[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return sealed.open(m.sealer)
}

func (m *memoryStore) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.rows)), nil
}

func (*memoryStore) Ping(_ context.Context) error {
	return nil
}
