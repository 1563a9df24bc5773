// Package auth provides dynamic database authentication.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gleansync/ns-glean-sync/internal/app/storage/auth/aws"
	"github.com/gleansync/ns-glean-sync/internal/config"
)

var errNoMethod = errors.New("dynamic auth is configured but no supported auth method (e.g., awsRdsIam) is specified")

// NewAuthToken returns a short-lived password for user, or "" when dynamic
// authentication is not configured. Meant for one-off connections such as
// migrations where a BeforeConnect hook cannot be used.
func NewAuthToken(ctx context.Context, cfg *config.DatabaseConfig, user string) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("database configuration is required")
	}
	if cfg.DynamicAuth == nil {
		return "", nil
	}
	if cfg.DynamicAuth.AWSRDSIAM != nil {
		return aws.NewToken(ctx, cfg, user)
	}
	return "", errNoMethod
}

// NewDynamicAuth returns a pgx BeforeConnect hook for the configured method
func NewDynamicAuth(
	ctx context.Context,
	cfg *config.DatabaseConfig,
	user string,
) (func(ctx context.Context, connConfig *pgx.ConnConfig) error, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration is required")
	}
	if cfg.DynamicAuth == nil {
		return nil, fmt.Errorf("dynamic authentication is not configured")
	}
	if cfg.DynamicAuth.AWSRDSIAM != nil {
		return aws.PgxAuthFunc(ctx, cfg, user)
	}
	return nil, errNoMethod
}
