package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/gleansync/ns-glean-sync/database"
)

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending database migrations",
		Long: `Apply all pending database migrations to bring the schema up to date.
The connection parameters are read from the config file and migrations run
as the configured migration user.`,
		RunE: runMigrateUp,
	}
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	cfg, connString, err := setupMigration(cmd)
	if err != nil {
		return err
	}

	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return fmt.Errorf("failed to get yes flag: %w", err)
	}

	db := cfg.Database
	if !yes {
		prompt := fmt.Sprintf("About to apply migrations to %s:%d/%s as %s. Continue?",
			db.Host, db.Port, db.Database, db.GetMigrationUser())
		if !confirm(cmd, prompt) {
			slog.Info("Migration cancelled by user")
			return nil
		}
	}

	slog.Info("Applying database migrations", "host", db.Host, "database", db.Database)
	if err := database.MigrateUp(connString); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	displayMigrationVersion(connString)
	return nil
}
