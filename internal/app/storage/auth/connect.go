package auth

import (
	"context"
	"fmt"

	"github.com/gleansync/ns-glean-sync/internal/config"
)

// MigrationConnectionString builds the connection string migrations run with.
// Dynamic auth tokens and static passwords are embedded because golang-migrate
// opens its own connection. Without either, authentication is left to pgpass.
// A configured password file that cannot be read is an error.
func MigrationConnectionString(ctx context.Context, cfg *config.DatabaseConfig) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("database configuration is required")
	}

	user := cfg.GetMigrationUser()

	password, err := NewAuthToken(ctx, cfg, user)
	if err != nil {
		return "", fmt.Errorf("failed to resolve auth token for migration user: %w", err)
	}
	if password == "" && cfg.DynamicAuth == nil {
		pw, err := cfg.GetPassword()
		switch {
		case err == nil:
			password = pw
		case cfg.PasswordFile != "":
			return "", fmt.Errorf("failed to resolve password for migration user: %w", err)
		}
	}

	return cfg.BuildConnectionStringWithAuth(user, password), nil
}
