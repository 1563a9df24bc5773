package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gleansync/ns-glean-sync/internal/app"
	"github.com/gleansync/ns-glean-sync/internal/telemetry"
)

const (
	defaultGracefulTimeout = 30 * time.Second
	telemetryFlushTimeout  = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the onboarding API server",
		Long: `Start the onboarding API server.

The configuration file (--config) selects the credential storage backend
(database or memory), the encryption key source, the Glean and NetSuite
endpoints and the workflow timeouts.`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return bindFlags(cmd, "address", "config", "shutdown-timeout")
		},
		RunE: runServe,
	}

	cmd.Flags().String("address", ":8080", "Address to listen on")
	cmd.Flags().String("config", "", "Path to configuration file (YAML format)")
	cmd.Flags().Duration("shutdown-timeout", defaultGracefulTimeout,
		"How long in-flight requests may run after a shutdown signal")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, configPath, err := loadConfig()
	if err != nil {
		return err
	}
	slog.Info("Loaded configuration",
		"path", configPath,
		"storage_type", cfg.GetStorageType(),
		"datasource", cfg.GetGlean().GetDatasource())

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer shutdownTelemetry(tel)

	syncApp, err := app.NewSyncApp(ctx,
		app.WithConfig(cfg),
		app.WithAddress(viper.GetString("address")),
		app.WithMeterProvider(tel.MeterProvider()),
		app.WithTracerProvider(tel.TracerProvider()),
		app.WithMetricsHandler(tel.MetricsHandler()),
	)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- syncApp.Start()
	}()

	select {
	case err := <-errChan:
		syncApp.Close()
		return err
	case <-ctx.Done():
	}

	return syncApp.Stop(viper.GetDuration("shutdown-timeout"))
}

func shutdownTelemetry(tel *telemetry.Telemetry) {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		slog.Error("Failed to shut down telemetry", "error", err)
	}
}
