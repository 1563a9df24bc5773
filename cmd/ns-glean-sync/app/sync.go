package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/gleansync/ns-glean-sync/internal/app"
	"github.com/gleansync/ns-glean-sync/internal/credentials"
	"github.com/gleansync/ns-glean-sync/internal/telemetry"
	"github.com/gleansync/ns-glean-sync/internal/workflow"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run every onboarding stage once without the API server",
		Long: `Run every onboarding stage once: store the credentials, index NetSuite
users, fetch ERP records and bulk index them into Glean.

The credentials file is YAML with the keys gleanAccount, gleanToken,
accountId, consumerKey, consumerSecret, token and tokenSecret. When run
from a terminal, secrets left blank in the file are prompted for.

Examples:
  ns-glean-sync sync --config config.yaml --credentials creds.yaml
  ns-glean-sync sync --config config.yaml --credentials creds.yaml --format json`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(cmd, "config")
		},
		RunE: runSync,
	}

	cmd.Flags().String("config", "", "Path to configuration file (YAML format)")
	cmd.Flags().String("credentials", "", "Path to the credentials file (YAML format, required)")
	cmd.Flags().String("format", "", "Output format (json)")
	if err := cmd.MarkFlagRequired("credentials"); err != nil {
		panic(err)
	}

	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	credsPath, err := cmd.Flags().GetString("credentials")
	if err != nil {
		return fmt.Errorf("failed to get credentials flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}

	creds, err := loadCredentialsFile(credsPath)
	if err != nil {
		return err
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		if err := fillMissingSecrets(creds, terminalSecretReader(cmd.ErrOrStderr())); err != nil {
			return err
		}
	}
	slog.Info("Loaded credentials", "path", credsPath, "credentials", creds)

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer shutdownTelemetry(tel)

	syncApp, err := app.NewSyncApp(ctx,
		app.WithConfig(cfg),
		app.WithMeterProvider(tel.MeterProvider()),
		app.WithTracerProvider(tel.TracerProvider()),
	)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer syncApp.Close()

	results, runErr := syncApp.RunAll(ctx, *creds)
	if err := printResults(cmd, format, results); err != nil {
		return err
	}
	if runErr != nil {
		return fmt.Errorf("sync failed: %w", runErr)
	}
	return nil
}

// loadCredentialsFile reads a credential set from a YAML file. Validation is
// left to the credential store so the CLI reports the same missing fields as the API.
func loadCredentialsFile(path string) (*credentials.CredentialSet, error) {
	if path == "" {
		return nil, fmt.Errorf("credentials file path is required")
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var creds credentials.CredentialSet
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse credentials file: %w", err)
	}
	return &creds, nil
}

func printResults(cmd *cobra.Command, format string, results []workflow.StageResult) error {
	out := cmd.OutOrStdout()

	if format == "json" {
		output, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format results: %w", err)
		}
		_, err = fmt.Fprintln(out, string(output))
		return err
	}

	for _, r := range results {
		status := "ok"
		if !r.OK {
			status = "failed"
		}
		if _, err := fmt.Fprintf(out, "%-8s %s\n", status, r.Message); err != nil {
			return err
		}
	}
	return nil
}
