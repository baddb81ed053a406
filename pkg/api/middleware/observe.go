package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/marmos91/sharegate/internal/logger"
	"github.com/marmos91/sharegate/internal/telemetry"
	"github.com/marmos91/sharegate/pkg/metrics"
)

// Trace starts a server span per request, continuing any trace context the
// client sent, and attaches a LogContext so *Ctx log calls carry the
// request id and trace id.
func Trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		requestID := chimiddleware.GetReqID(ctx)
		ctx, span := telemetry.StartSpan(ctx, telemetry.SpanHTTPRequest,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				telemetry.HTTPMethod(r.Method),
				telemetry.RequestID(requestID),
				telemetry.ClientIP(r.RemoteAddr),
			))
		defer span.End()
		if rng := r.Header.Get("Range"); rng != "" {
			span.SetAttributes(telemetry.HTTPRange(rng))
		}

		lc := logger.NewLogContext(requestID, r.Method, r.RemoteAddr).
			WithRange(r.Header.Get("Range")).
			WithTrace(telemetry.TraceID(ctx), telemetry.SpanID(ctx))
		ctx = logger.WithContext(ctx, lc)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		status := statusOf(ww)
		span.SetAttributes(telemetry.HTTPStatus(status), telemetry.HTTPRoute(routePattern(r)))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	})
}

// Metrics records request counts, latency and in-flight requests. A nil
// HTTPMetrics (metrics disabled) makes this a passthrough.
func Metrics(m metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.InFlight(1)
			defer m.InFlight(-1)

			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			m.ObserveRequest(routePattern(r), r.Method, statusOf(ww), time.Since(start))
		})
	}
}

// statusOf treats a handler that never wrote a header as 200.
func statusOf(ww chimiddleware.WrapResponseWriter) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	return http.StatusOK
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		return rctx.RoutePattern()
	}
	return ""
}
