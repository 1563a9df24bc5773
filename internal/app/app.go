// Package app provides application lifecycle management for the sync server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gleansync/ns-glean-sync/internal/config"
	"github.com/gleansync/ns-glean-sync/internal/credentials"
	"github.com/gleansync/ns-glean-sync/internal/workflow"
)

// SyncApp encapsulates all components needed to run the onboarding API server
// It provides lifecycle management and graceful shutdown capabilities
type SyncApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start starts the session janitor and the HTTP server.
// It blocks until the HTTP server stops or encounters an error.
func (app *SyncApp) Start() error {
	go app.components.Sessions.Run(app.ctx)

	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully shuts down the HTTP server with the given timeout, then
// stops the session janitor and releases storage.
// In-flight stage requests are allowed to finish within the timeout.
func (app *SyncApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	shutdownErr := app.httpServer.Shutdown(shutdownCtx)

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	if shutdownErr != nil {
		return fmt.Errorf("server forced to shutdown: %w", shutdownErr)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// RunAll drives one run through every stage without the HTTP server,
// stopping at the first failed stage. The returned results hold one entry
// per attempted stage; the error is the failed stage's error.
func (app *SyncApp) RunAll(ctx context.Context, creds credentials.CredentialSet) ([]workflow.StageResult, error) {
	id, coord := app.components.Sessions.Create(ctx)
	defer app.components.Sessions.Delete(ctx, id)

	steps := []struct {
		stage workflow.Stage
		run   func(context.Context) workflow.StageResult
	}{
		{workflow.CollectingCredentials, func(ctx context.Context) workflow.StageResult {
			return coord.SubmitCredentials(ctx, creds)
		}},
		{workflow.IndexingUsers, coord.RunIndexUsers},
		{workflow.FetchingRecords, coord.RunFetchRecords},
		{workflow.BulkIndexing, coord.RunBulkIndex},
	}

	results := make([]workflow.StageResult, 0, len(steps))
	for _, step := range steps {
		result := step.run(ctx)
		results = append(results, result)

		if !result.OK {
			slog.ErrorContext(ctx, "Stage failed", "session_id", id, "stage", step.stage.String())
			if result.Err != nil {
				return results, result.Err
			}
			return results, fmt.Errorf("%s failed: %s", step.stage, result.Message)
		}
		slog.InfoContext(ctx, "Stage completed",
			"session_id", id, "stage", step.stage.String(), "message", result.Message)
	}

	return results, nil
}

// Close releases the app's resources without an HTTP shutdown.
// Use it when the server was never started.
func (app *SyncApp) Close() {
	if app.cancelFunc != nil {
		app.cancelFunc()
	}
}

// GetConfig returns the application configuration
func (app *SyncApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *SyncApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

// GetSessions returns the onboarding session registry
func (app *SyncApp) GetSessions() *workflow.Sessions {
	return app.components.Sessions
}
