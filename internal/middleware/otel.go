package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"revlens/internal/infrastructure"
)

// OTelMiddleware provides OpenTelemetry instrumentation for HTTP
// requests: a server span per request plus request count and latency
// metrics exported through the Prometheus reader.
type OTelMiddleware struct {
	tracer   trace.Tracer
	requests metric.Int64Counter
	latency  metric.Float64Histogram
	active   metric.Int64UpDownCounter
}

// NewOTelMiddleware creates a new OpenTelemetry middleware.
func NewOTelMiddleware(providers *infrastructure.OTelProviders) (*OTelMiddleware, error) {
	requests, err := providers.Meter.Int64Counter("http.server.requests",
		metric.WithDescription("Total HTTP requests processed"))
	if err != nil {
		return nil, fmt.Errorf("failed to create request counter: %w", err)
	}

	latency, err := providers.Meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("failed to create latency histogram: %w", err)
	}

	active, err := providers.Meter.Int64UpDownCounter("http.server.active_requests",
		metric.WithDescription("In-flight HTTP requests"))
	if err != nil {
		return nil, fmt.Errorf("failed to create active request counter: %w", err)
	}

	return &OTelMiddleware{
		tracer:   providers.Tracer,
		requests: requests,
		latency:  latency,
		active:   active,
	}, nil
}

// Handler returns the middleware handler function.
func (m *OTelMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		spanName := fmt.Sprintf("%s %s", r.Method, r.URL.Path)
		ctx, span := m.tracer.Start(ctx, spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(r.URL.Path),
				semconv.ServerAddressKey.String(r.Host),
				semconv.UserAgentOriginalKey.String(r.UserAgent()),
			),
		)
		defer span.End()

		if span.SpanContext().IsValid() {
			ctx = infrastructure.WithTraceID(ctx, span.SpanContext().TraceID().String())
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		m.active.Add(ctx, 1)
		defer m.active.Add(ctx, -1)

		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))
		duration := time.Since(start)

		attrs := metric.WithAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.route", r.URL.Path),
			attribute.Int("http.status_code", ww.Status()),
		)
		m.requests.Add(ctx, 1, attrs)
		m.latency.Record(ctx, float64(duration.Milliseconds()), attrs)

		span.SetAttributes(semconv.HTTPResponseStatusCodeKey.Int(ww.Status()))
		if ww.Status() >= 500 {
			span.SetStatus(codes.Error, http.StatusText(ww.Status()))
		}
	})
}
