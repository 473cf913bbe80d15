// Package httptransport is the thin HTTP layer. Handlers delegate to domain
// services without embedding business logic so transport concerns remain
// isolated.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"brdatabot/internal/platform/metrics"
)

// Registrar is implemented by every handler group that mounts routes.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires all public endpoints: webhooks and health under /api, the
// admin surface under /api/admin, Prometheus under /metrics. A nil admin
// registrar leaves the admin surface unmounted; nil metrics skips request
// instrumentation (tests).
func NewRouter(logger *slog.Logger, webhooks, health, admin Registrar, httpMetrics *metrics.HTTP) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger))
	if httpMetrics != nil {
		r.Use(httpMetrics.Middleware)
	}

	r.Get("/", handleRoot)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		webhooks.Register(api)
		health.Register(api)
		if admin != nil {
			api.Route("/admin", admin.Register)
		}
	})
	return r
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"service":"br-data-bot","status":"running"}`))
}

// requestLogger emits one structured line per request. Webhook bodies are
// never logged; the redacting handler guards the rest.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
