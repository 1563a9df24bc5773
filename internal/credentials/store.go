package credentials

import (
	"context"
	"fmt"

	"github.com/gleansync/ns-glean-sync/internal/secrets"
)

//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go Store

// Store persists credential sets. Secrets are sealed before they are written.
// Save never updates an existing row: every call creates a new record.
type Store interface {
	// Save validates and inserts the set, returning the new record id.
	// Validation failures match ErrValidation and write nothing.
	Save(ctx context.Context, creds CredentialSet) (string, error)

	// Get loads and unseals a set. Missing ids match ErrNotFound.
	Get(ctx context.Context, id string) (*CredentialSet, error)

	// Count returns the number of stored sets.
	Count(ctx context.Context) (int64, error)

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error
}

// sealedSet is a credential set with every secret field sealed.
type sealedSet struct {
	gleanAccount   string
	accountID      string
	gleanToken     []byte
	consumerKey    []byte
	consumerSecret []byte
	token          []byte
	tokenSecret    []byte
	keyID          string
}

func seal(sealer secrets.Sealer, creds CredentialSet) (*sealedSet, error) {
	out := &sealedSet{
		gleanAccount: creds.GleanAccount,
		accountID:    creds.AccountID,
		keyID:        sealer.KeyID(),
	}

	targets := []struct {
		name  string
		value string
		dst   *[]byte
	}{
		{"gleanToken", creds.GleanToken, &out.gleanToken},
		{"consumerKey", creds.ConsumerKey, &out.consumerKey},
		{"consumerSecret", creds.ConsumerSecret, &out.consumerSecret},
		{"token", creds.Token, &out.token},
		{"tokenSecret", creds.TokenSecret, &out.tokenSecret},
	}
	for _, t := range targets {
		sealed, err := sealer.Seal([]byte(t.value))
		if err != nil {
			return nil, fmt.Errorf("failed to seal %s: %w", t.name, err)
		}
		*t.dst = sealed
	}

	return out, nil
}

func (s *sealedSet) open(sealer secrets.Sealer) (*CredentialSet, error) {
	if s.keyID != sealer.KeyID() {
		return nil, fmt.Errorf("credential set was sealed with key %q, current key is %q", s.keyID, sealer.KeyID())
	}

	out := &CredentialSet{
		GleanAccount: s.gleanAccount,
		AccountID:    s.accountID,
	}

	sources := []struct {
		name   string
		sealed []byte
		dst    *string
	}{
		{"gleanToken", s.gleanToken, &out.GleanToken},
		{"consumerKey", s.consumerKey, &out.ConsumerKey},
		{"consumerSecret", s.consumerSecret, &out.ConsumerSecret},
		{"token", s.token, &out.Token},
		{"tokenSecret", s.tokenSecret, &out.TokenSecret},
	}
	for _, src := range sources {
		plain, err := sealer.Open(src.sealed)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", src.name, err)
		}
		*src.dst = string(plain)
	}

	return out, nil
}
