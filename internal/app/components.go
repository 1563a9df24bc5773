package app

import (
	"github.com/gleansync/ns-glean-sync/internal/credentials"
	"github.com/gleansync/ns-glean-sync/internal/workflow"
)

// AppComponents groups all application components
//
//nolint:revive // This name is fine
type AppComponents struct {
	// CredentialStore persists sealed credential sets
	CredentialStore credentials.Store

	// Sessions holds one onboarding run per browser or API client
	Sessions *workflow.Sessions
}
