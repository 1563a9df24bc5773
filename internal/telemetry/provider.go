package telemetry

import (
	"context"
	"fmt"
	"maps"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ProviderOption configures NewTracerProvider and NewMeterProvider
type ProviderOption func(*providerSettings)

type providerSettings struct {
	serviceName    string
	serviceVersion string
	endpoint       string
	insecure       bool
	headers        map[string]string
	tracing        *TracingConfig
	metrics        *MetricsConfig
	registry       *prometheus.Registry
}

func newProviderSettings(opts []ProviderOption) *providerSettings {
	s := &providerSettings{
		serviceName:    DefaultServiceName,
		serviceVersion: "unknown",
		endpoint:       DefaultEndpoint,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithServiceName sets the service.name resource attribute
func WithServiceName(name string) ProviderOption {
	return func(s *providerSettings) {
		s.serviceName = name
	}
}

// WithServiceVersion sets the service.version resource attribute
func WithServiceVersion(version string) ProviderOption {
	return func(s *providerSettings) {
		s.serviceVersion = version
	}
}

// WithEndpoint sets the collector host:port
func WithEndpoint(endpoint string) ProviderOption {
	return func(s *providerSettings) {
		s.endpoint = endpoint
	}
}

// WithInsecure exports over plain HTTP
func WithInsecure(insecure bool) ProviderOption {
	return func(s *providerSettings) {
		s.insecure = insecure
	}
}

// WithHeaders adds headers to every export request
func WithHeaders(headers map[string]string) ProviderOption {
	return func(s *providerSettings) {
		s.headers = maps.Clone(headers)
	}
}

// WithTracingConfig sets the tracing section; tracing stays off without it
func WithTracingConfig(tc *TracingConfig) ProviderOption {
	return func(s *providerSettings) {
		s.tracing = tc
	}
}

// WithMetricsConfig sets the metrics section; metrics stay off without it
func WithMetricsConfig(mc *MetricsConfig) ProviderOption {
	return func(s *providerSettings) {
		s.metrics = mc
	}
}

// WithPrometheusRegistry sets the registry Prometheus-mode metrics are registered on
func WithPrometheusRegistry(reg *prometheus.Registry) ProviderOption {
	return func(s *providerSettings) {
		s.registry = reg
	}
}

// providerOptions translates the configuration into provider options
func providerOptions(cfg *Config) []ProviderOption {
	return []ProviderOption{
		WithServiceName(cfg.GetServiceName()),
		WithServiceVersion(cfg.GetServiceVersion()),
		WithEndpoint(cfg.GetEndpoint()),
		WithInsecure(cfg.Insecure),
		WithHeaders(cfg.Headers),
		WithTracingConfig(cfg.Tracing),
		WithMetricsConfig(cfg.Metrics),
	}
}

// newResource describes this process. resource.New avoids schema URL
// conflicts with resource.Default().
func (s *providerSettings) newResource(ctx context.Context) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(s.serviceName),
			semconv.ServiceVersion(s.serviceVersion),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	return res, nil
}
