package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/sharegate/internal/logger"
	"github.com/marmos91/sharegate/pkg/api/handlers"
	apimw "github.com/marmos91/sharegate/pkg/api/middleware"
	"github.com/marmos91/sharegate/pkg/content"
	"github.com/marmos91/sharegate/pkg/metrics"
	"github.com/marmos91/sharegate/pkg/registry"
	"github.com/marmos91/sharegate/pkg/session"
)

// Services are the collaborators the router dispatches to.
type Services struct {
	Registry *registry.Registry
	Sessions *session.Manager
	Full     *content.FullStreamer
	Partial  *content.RangeStreamer

	// Metrics may be nil when metrics are disabled.
	Metrics metrics.HTTPMetrics
}

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Tracing and request-scoped log context
//   - Custom request logging using the internal logger
//   - HTTP metrics
//   - Panic recovery to prevent server crashes
//   - Session loading and per-request Basic credentials
//
// There is deliberately no request timeout: content streams may run for hours.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET / - Index page
//   - GET /get?file= - Normalize a target and redirect to its link
//   - GET, HEAD /get/* - Directory listing or file content
//   - POST /credentials/set, /credentials/remove
func NewRouter(svc Services) (http.Handler, error) {
	if svc.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if svc.Sessions == nil {
		return nil, errors.New("session manager is required")
	}
	if svc.Full == nil {
		svc.Full = content.NewFullStreamer(content.Options{})
	}
	if svc.Partial == nil {
		svc.Partial = content.NewRangeStreamer(content.Options{})
	}

	healthHandler := handlers.NewHealthHandler(svc.Registry)
	indexHandler, err := handlers.NewIndexHandler(svc.Registry, svc.Sessions)
	if err != nil {
		return nil, err
	}
	browseHandler, err := handlers.NewBrowseHandler(svc.Registry, svc.Sessions, svc.Full, svc.Partial)
	if err != nil {
		return nil, err
	}
	credentialsHandler := handlers.NewCredentialsHandler(svc.Sessions)

	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apimw.Trace)
	r.Use(requestLogger)
	r.Use(apimw.Metrics(svc.Metrics))
	r.Use(middleware.Recoverer)

	// Health routes - no session
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	r.Group(func(r chi.Router) {
		r.Use(apimw.Sessions(svc.Sessions))
		r.Use(apimw.BasicCredentials)

		r.Get("/", indexHandler.Index)
		r.Get("/get", browseHandler.Open)
		r.Get("/get/*", browseHandler.Get)
		r.Head("/get/*", browseHandler.Get)

		r.Route("/credentials", func(r chi.Router) {
			r.Post("/set", credentialsHandler.Set)
			r.Post("/remove", credentialsHandler.Remove)
		})
	})

	return r, nil
}

// requestLogger is a custom middleware that logs requests using the internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, range
//   - Request completion (INFO level): route, status, bytes, duration
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()

		logger.DebugCtx(ctx, "Request started", logger.Path(r.URL.Path))

		// Wrap response writer to capture status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logger.InfoCtx(ctx, "Request completed",
			logger.Path(r.URL.Path),
			logger.Route(chi.RouteContext(ctx).RoutePattern()),
			logger.Status(status),
			logger.BytesWritten(int64(ww.BytesWritten())),
			logger.DurationMs(float64(time.Since(start).Microseconds())/1000.0),
		)
	})
}
