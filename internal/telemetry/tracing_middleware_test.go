package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

func newTestTracerProvider(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp
}

func spanAttrs(span tracetest.SpanStub) map[attribute.Key]attribute.Value {
	attrs := make(map[attribute.Key]attribute.Value, len(span.Attributes))
	for _, kv := range span.Attributes {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

// onboardingRouter mimics the server layout: /api mounted under the root router
func onboardingRouter(mw func(http.Handler) http.Handler, status int) http.Handler {
	api := chi.NewRouter()
	api.Post("/index_users", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})
	api.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})

	r := chi.NewRouter()
	r.Use(mw)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Mount("/api", api)
	return r
}

// setW3CPropagator installs the same global propagator NewTracerProvider does
func setW3CPropagator() {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

func TestTracingMiddleware_NilProvider(t *testing.T) {
	t.Parallel()

	mw := TracingMiddleware(nil)
	rr := httptest.NewRecorder()
	mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Custom-Header", "kept")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("body"))
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/auth", nil))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "kept", rr.Header().Get("X-Custom-Header"))
	assert.Equal(t, "body", rr.Body.String())
}

func TestTracingMiddleware_ServerSpan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		wantStatus codes.Code
	}{
		{name: "success", status: http.StatusOK, wantStatus: codes.Ok},
		{name: "sequence conflict", status: http.StatusConflict, wantStatus: codes.Error},
		{name: "stage failure", status: http.StatusInternalServerError, wantStatus: codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exporter, tp := newTestTracerProvider(t)
			router := onboardingRouter(TracingMiddleware(tp), tt.status)

			req := httptest.NewRequest(http.MethodPost, "/api/index_users", nil)
			req.Header.Set("User-Agent", "onboarding-ui/1.0")
			router.ServeHTTP(httptest.NewRecorder(), req)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			span := spans[0]

			assert.Equal(t, "POST /api/index_users", span.Name)
			assert.Equal(t, trace.SpanKindServer, span.SpanKind)
			assert.Equal(t, tt.wantStatus, span.Status.Code)

			attrs := spanAttrs(span)
			assert.Equal(t, http.MethodPost, attrs[semconv.HTTPRequestMethodKey].AsString())
			assert.Equal(t, "/api/index_users", attrs[semconv.HTTPRouteKey].AsString())
			assert.Equal(t, "/api/index_users", attrs[semconv.URLPathKey].AsString())
			assert.Equal(t, "onboarding-ui/1.0", attrs[semconv.UserAgentOriginalKey].AsString())
			assert.Equal(t, int64(tt.status), attrs[semconv.HTTPResponseStatusCodeKey].AsInt64())
		})
	}
}

func TestTracingMiddleware_UnknownRoute(t *testing.T) {
	t.Parallel()

	exporter, tp := newTestTracerProvider(t)
	router := onboardingRouter(TracingMiddleware(tp), http.StatusOK)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nothing-here", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET "+unknownRoute, spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}

func TestTracingMiddleware_ContinuesIncomingTrace(t *testing.T) {
	t.Parallel()

	exporter, tp := newTestTracerProvider(t)
	setW3CPropagator()
	router := onboardingRouter(TracingMiddleware(tp), http.StatusOK)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	router.ServeHTTP(httptest.NewRecorder(), req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent.SpanID().String())
	assert.True(t, spans[0].Parent.IsRemote())
}

func TestTracingMiddleware_SkipsProbes(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"/health", "/readiness"} {
		t.Run(path, func(t *testing.T) {
			t.Parallel()

			exporter, tp := newTestTracerProvider(t)
			router := onboardingRouter(TracingMiddleware(tp), http.StatusOK)

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Empty(t, exporter.GetSpans())
		})
	}
}

func TestTracingMiddleware_SessionAttribute(t *testing.T) {
	t.Parallel()

	exporter, tp := newTestTracerProvider(t)
	router := onboardingRouter(TracingMiddleware(tp), http.StatusOK)

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set(SessionHeader, "3f0c6a52-1d7e-4a7b-9a55-0c8f2f0d8f11")
	router.ServeHTTP(httptest.NewRecorder(), req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "3f0c6a52-1d7e-4a7b-9a55-0c8f2f0d8f11", spanAttrs(spans[0])["session.id"].AsString())
}

func TestTruncateUserAgent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "short", input: "Mozilla/5.0", want: "Mozilla/5.0"},
		{name: "exactly max", input: strings.Repeat("a", MaxUserAgentLength), want: strings.Repeat("a", MaxUserAgentLength)},
		{name: "over max", input: strings.Repeat("a", MaxUserAgentLength+100), want: strings.Repeat("a", MaxUserAgentLength)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, truncateUserAgent(tt.input))
		})
	}
}
