package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func newTestMeterProvider(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return reader, mp
}

// requestCounts returns nsgs_http_requests_total data points keyed by route and status
func requestCounts(t *testing.T, reader *sdkmetric.ManualReader) map[[2]string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	counts := map[[2]string]int64{}
	for _, scope := range rm.ScopeMetrics {
		if scope.Scope.Name != HTTPMetricsMeterName {
			continue
		}
		for _, m := range scope.Metrics {
			if m.Name != "nsgs_http_requests_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				route, _ := dp.Attributes.Value(semconv.HTTPRouteKey)
				status, _ := dp.Attributes.Value(attribute.Key("http.response.status_code"))
				counts[[2]string{route.AsString(), status.Emit()}] += dp.Value
			}
		}
	}
	return counts
}

func TestNewHTTPMetrics(t *testing.T) {
	t.Parallel()

	metrics, err := NewHTTPMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, metrics)

	_, mp := newTestMeterProvider(t)
	metrics, err = NewHTTPMetrics(mp)
	require.NoError(t, err)
	require.NotNil(t, metrics)
	assert.NotNil(t, metrics.requestDuration)
	assert.NotNil(t, metrics.requestsTotal)
	assert.NotNil(t, metrics.inFlight)
}

func TestHTTPMetrics_NilPassThrough(t *testing.T) {
	t.Parallel()

	var metrics *HTTPMetrics
	wrapped := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth", nil))
	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestHTTPMetrics_RecordsByRouteAndStatus(t *testing.T) {
	t.Parallel()

	reader, mp := newTestMeterProvider(t)
	mw, err := MetricsMiddleware(mp)
	require.NoError(t, err)

	api := chi.NewRouter()
	api.Post("/index_users", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	api.Post("/bulk_doc_index", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	r := chi.NewRouter()
	r.Use(mw)
	r.Mount("/api", api)

	for _, path := range []string{"/api/index_users", "/api/index_users", "/api/bulk_doc_index", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, path, nil))
	}

	counts := requestCounts(t, reader)
	assert.Equal(t, int64(2), counts[[2]string{"/api/index_users", "200"}])
	assert.Equal(t, int64(1), counts[[2]string{"/api/bulk_doc_index", "409"}])
	assert.Equal(t, int64(1), counts[[2]string{unknownRoute, "404"}])
}

func TestMetricsMiddleware_Providers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		provider func(t *testing.T) *sdkmetric.MeterProvider
		noop     bool
	}{
		{name: "nil provider"},
		{name: "noop provider", noop: true},
		{name: "sdk provider", provider: func(t *testing.T) *sdkmetric.MeterProvider {
			_, mp := newTestMeterProvider(t)
			return mp
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var (
				mw  func(http.Handler) http.Handler
				err error
			)
			switch {
			case tt.noop:
				mw, err = MetricsMiddleware(noop.NewMeterProvider())
			case tt.provider != nil:
				mw, err = MetricsMiddleware(tt.provider(t))
			default:
				mw, err = MetricsMiddleware(nil)
			}
			require.NoError(t, err)
			require.NotNil(t, mw)

			rr := httptest.NewRecorder()
			mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})).ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/api/session", nil))
			assert.Equal(t, http.StatusNoContent, rr.Code)
		})
	}
}

func TestRoutePattern(t *testing.T) {
	t.Parallel()

	assert.Equal(t, unknownRoute, routePattern(httptest.NewRequest(http.MethodGet, "/x", nil)))

	var seen string
	r := chi.NewRouter()
	r.Get("/api/status", func(_ http.ResponseWriter, req *http.Request) {
		seen = routePattern(req)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/status", nil))
	assert.Equal(t, "/api/status", seen)
}
