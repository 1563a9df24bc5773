package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/gleansync/ns-glean-sync/internal/api"
	"github.com/gleansync/ns-glean-sync/internal/app/storage"
	"github.com/gleansync/ns-glean-sync/internal/config"
	"github.com/gleansync/ns-glean-sync/internal/credentials"
	"github.com/gleansync/ns-glean-sync/internal/glean"
	"github.com/gleansync/ns-glean-sync/internal/httpclient"
	"github.com/gleansync/ns-glean-sync/internal/netsuite"
	"github.com/gleansync/ns-glean-sync/internal/secrets"
	"github.com/gleansync/ns-glean-sync/internal/telemetry"
	"github.com/gleansync/ns-glean-sync/internal/workflow"
	"github.com/gleansync/ns-glean-sync/internal/workflow/stages"
)

const (
	defaultHTTPAddress = ":8080"
	defaultReadTimeout = 10 * time.Second
	defaultIdleTimeout = 60 * time.Second

	// requestTimeoutMargin is added on top of the stage timeout so the
	// coordinator reports a stage timeout before the middleware cuts the request
	requestTimeoutMargin = 15 * time.Second

	// writeTimeoutMargin keeps the write deadline past the request timeout
	// so the timeout middleware can still answer
	writeTimeoutMargin = 5 * time.Second
)

// SyncAppOptions is a function that configures the sync app builder
type SyncAppOptions func(*syncAppConfig) error

// syncAppConfig collects everything needed to build a SyncApp.
// Overrides are mostly for tests; production relies on the defaults.
type syncAppConfig struct {
	config *config.Config

	// Optional component overrides
	storageFactory storage.Factory
	sealer         secrets.Sealer
	handlers       workflow.Handlers

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Telemetry components
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

func baseConfig(opts ...SyncAppOptions) (*syncAppConfig, error) {
	cfg := &syncAppConfig{
		address:     defaultHTTPAddress,
		readTimeout: defaultReadTimeout,
		idleTimeout: defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// deriveTimeouts sizes the request and write timeouts from the stage timeout
// unless they were set explicitly
func (b *syncAppConfig) deriveTimeouts(stageTimeout time.Duration) {
	if b.requestTimeout <= 0 {
		b.requestTimeout = stageTimeout + requestTimeoutMargin
	}
	if b.writeTimeout <= 0 {
		b.writeTimeout = b.requestTimeout + writeTimeoutMargin
	}
}

// tracer returns a named tracer, or nil when tracing is disabled
func (b *syncAppConfig) tracer(name string) trace.Tracer {
	if b.tracerProvider == nil {
		return nil
	}
	return b.tracerProvider.Tracer(name)
}

// NewSyncApp builds a SyncApp from the given options. WithConfig is required.
func NewSyncApp(
	ctx context.Context,
	opts ...SyncAppOptions,
) (*SyncApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}
	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	cfg.deriveTimeouts(cfg.config.GetWorkflow().GetStageTimeout())

	if cfg.storageFactory == nil {
		if cfg.sealer == nil {
			cfg.sealer, err = buildSealer(ctx, cfg.config)
			if err != nil {
				return nil, fmt.Errorf("failed to build sealer: %w", err)
			}
		}

		cfg.storageFactory, err = storage.NewStorageFactory(ctx, cfg.config, cfg.sealer,
			storage.WithTracer(cfg.tracer(credentials.StoreTracerName)))
		if err != nil {
			return nil, fmt.Errorf("failed to create storage factory: %w", err)
		}
	}

	// Ensure cleanup happens on error
	var cleanupNeeded = true
	defer func() {
		if cleanupNeeded && cfg.storageFactory != nil {
			cfg.storageFactory.Cleanup()
		}
	}()

	store, err := cfg.storageFactory.CreateCredentialStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential store: %w", err)
	}

	sessions, err := buildWorkflowComponents(cfg, store)
	if err != nil {
		return nil, fmt.Errorf("failed to build workflow components: %w", err)
	}

	httpServer, err := buildHTTPServer(ctx, cfg, sessions, store)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)

	// Cleanup is now handled by the app
	cleanupNeeded = false

	factory := cfg.storageFactory
	cancelFunc := func() {
		cancel()
		factory.Cleanup()
	}

	return &SyncApp{
		config: cfg.config,
		components: &AppComponents{
			CredentialStore: store,
			Sessions:        sessions,
		},
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: cancelFunc,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		switch host {
		case "localhost":
			host = "127.0.0.1"
		case "":
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithRequestTimeout overrides the request timeout derived from the stage timeout
func WithRequestTimeout(d time.Duration) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		if d <= 0 {
			return fmt.Errorf("request timeout must be positive")
		}
		cfg.requestTimeout = d
		return nil
	}
}

// WithStorageFactory allows injecting a custom storage factory (for testing)
func WithStorageFactory(f storage.Factory) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.storageFactory = f
		return nil
	}
}

// WithSealer sets the sealer used by the storage factory instead of loading a key
func WithSealer(s secrets.Sealer) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.sealer = s
		return nil
	}
}

// WithHandlers replaces the stage handlers (for testing)
func WithHandlers(h workflow.Handlers) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.handlers = h
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for HTTP and workflow metrics
func WithMeterProvider(mp metric.MeterProvider) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider
func WithTracerProvider(tp trace.TracerProvider) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.tracerProvider = tp
		return nil
	}
}

// WithMetricsHandler exposes a Prometheus scrape handler at /metrics
func WithMetricsHandler(h http.Handler) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.metricsHandler = h
		return nil
	}
}

// buildSealer loads the sealing key. In-memory storage falls back to a
// random key when none is configured, since nothing outlives the process.
func buildSealer(ctx context.Context, cfg *config.Config) (secrets.Sealer, error) {
	enc := cfg.GetEncryption()

	key, err := secrets.LoadKey(ctx, enc)
	if errors.Is(err, secrets.ErrNoKey) && cfg.GetStorageType() == config.StorageTypeMemory {
		slog.Warn("No encryption key configured; using an ephemeral key for in-memory storage",
			"key_env", enc.GetKeyEnv())
		key, err = secrets.NewRandomKey()
	}
	if err != nil {
		return nil, err
	}

	return secrets.NewSealer(key, enc.GetKeyID())
}

// buildClients creates the NetSuite and Glean clients from configuration
func buildClients(b *syncAppConfig) (*netsuite.Client, *glean.Client) {
	wf := b.config.GetWorkflow()
	ns := b.config.GetNetSuite()
	gl := b.config.GetGlean()

	nsClient := netsuite.NewClient(
		netsuite.WithBaseURL(ns.BaseURL),
		netsuite.WithAppURL(ns.AppURL),
		netsuite.WithDatasource(gl.GetDatasource()),
		netsuite.WithPageSize(ns.GetPageSize()),
		netsuite.WithMaxConcurrentQueries(ns.GetMaxConcurrentQueries()),
		netsuite.WithRequestsPerSecond(ns.GetRequestsPerSecond()),
		netsuite.WithTimeout(wf.GetRequestTimeout()),
		netsuite.WithTracer(b.tracer(netsuite.ClientTracerName)),
	)

	gleanClient := glean.NewClient(
		glean.WithHTTPClient(httpclient.NewDefaultClient(wf.GetRequestTimeout())),
		glean.WithBaseURL(gl.BaseURL),
		glean.WithDatasource(gl.GetDatasource()),
		glean.WithBatchSize(gl.GetBatchSize()),
		glean.WithTracer(b.tracer(glean.ClientTracerName)),
	)

	return nsClient, gleanClient
}

// buildWorkflowComponents wires the stage handlers into a session registry
func buildWorkflowComponents(b *syncAppConfig, store credentials.Store) (*workflow.Sessions, error) {
	slog.Info("Initializing workflow components")

	handlers := b.handlers
	if handlers == nil {
		nsClient, gleanClient := buildClients(b)
		handlers = stages.New(store, nsClient, nsClient, gleanClient)
	}

	workflowMetrics, err := telemetry.NewWorkflowMetrics(b.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow metrics: %w", err)
	}
	sessionMetrics, err := telemetry.NewSessionMetrics(b.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create session metrics: %w", err)
	}
	if workflowMetrics != nil {
		slog.Info("Workflow metrics enabled")
	}

	wf := b.config.GetWorkflow()
	stageTimeout := wf.GetStageTimeout()
	tracer := b.tracer(workflow.CoordinatorTracerName)

	sessions := workflow.NewSessions(
		func(id string) *workflow.Coordinator {
			return workflow.NewCoordinator(handlers,
				workflow.WithSessionID(id),
				workflow.WithStageTimeout(stageTimeout),
				workflow.WithMetrics(workflowMetrics),
				workflow.WithTracer(tracer),
			)
		},
		workflow.WithSessionTTL(wf.GetSessionTTL()),
		workflow.WithSessionMetrics(sessionMetrics),
	)

	slog.Info("Workflow components initialized",
		"stage_timeout", stageTimeout,
		"session_ttl", wf.GetSessionTTL())
	return sessions, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *syncAppConfig,
	sessions *workflow.Sessions,
	readiness api.ReadinessChecker,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	// Tracing wraps everything below it so handler spans have a parent
	if b.tracerProvider != nil {
		b.middlewares = append([]func(http.Handler) http.Handler{
			telemetry.TracingMiddleware(b.tracerProvider),
		}, b.middlewares...)
		slog.Info("HTTP tracing middleware enabled")
	}

	// Metrics go first to capture every request
	if b.meterProvider != nil {
		metricsMiddleware, err := telemetry.MetricsMiddleware(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics middleware: %w", err)
		}
		if metricsMiddleware != nil {
			b.middlewares = append([]func(http.Handler) http.Handler{metricsMiddleware}, b.middlewares...)
			slog.Info("HTTP metrics middleware enabled")
		}
	}

	serverOpts := []api.ServerOption{api.WithMiddlewares(b.middlewares...)}
	if readiness != nil {
		serverOpts = append(serverOpts, api.WithReadinessChecker(readiness))
	}
	if b.metricsHandler != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(b.metricsHandler))
	}
	router := api.NewServer(sessions, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured",
		"address", b.address,
		"request_timeout", b.requestTimeout,
		"write_timeout", b.writeTimeout)
	return server, nil
}
