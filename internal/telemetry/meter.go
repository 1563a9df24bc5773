package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// NewMeterProvider creates a MeterProvider that either pushes over OTLP/HTTP
// or, in Prometheus mode, registers on the given registry for scraping.
// A no-op provider is returned when metrics are not enabled. The caller owns Shutdown.
func NewMeterProvider(ctx context.Context, opts ...ProviderOption) (metric.MeterProvider, error) {
	s := newProviderSettings(opts)

	if s.metrics == nil || !s.metrics.Enabled {
		slog.Debug("Metrics disabled, using no-op meter provider")
		return noop.NewMeterProvider(), nil
	}

	res, err := s.newResource(ctx)
	if err != nil {
		return nil, err
	}

	reader, err := s.metricReader(ctx)
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
	)
	otel.SetMeterProvider(mp)

	if s.metrics.Prometheus {
		slog.Info("Metrics initialized", "exporter", "prometheus")
	} else {
		slog.Info("Metrics initialized", "exporter", "otlp",
			"endpoint", s.endpoint, "interval", s.metrics.GetInterval(), "insecure", s.insecure)
	}
	return mp, nil
}

func (s *providerSettings) metricReader(ctx context.Context) (sdkmetric.Reader, error) {
	if s.metrics.Prometheus {
		if s.registry == nil {
			return nil, errors.New("prometheus metrics require a registry")
		}
		exporter, err := otelprom.New(otelprom.WithRegisterer(s.registry))
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		return exporter, nil
	}

	exporterOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(s.endpoint)}
	if s.insecure {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
	}
	if len(s.headers) > 0 {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithHeaders(s.headers))
	}
	exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}
	return sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(s.metrics.GetInterval())), nil
}
