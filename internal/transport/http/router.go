// Package httptransport assembles the public HTTP surface: the middleware
// chain, operational endpoints and every module's routes.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"carewatch/internal/platform/metrics"
	"carewatch/internal/platform/middleware"
	"carewatch/pkg/platform/httputil"
	"carewatch/pkg/platform/middleware/metadata"
	"carewatch/pkg/platform/middleware/requesttime"
	"carewatch/pkg/platform/middleware/role"
)

const DefaultRequestTimeout = 30 * time.Second

// Registrar is implemented by every module handler.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck probes one backing dependency.
type HealthCheck func(ctx context.Context) error

type Config struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	RequestTimeout time.Duration
	HealthChecks   map[string]HealthCheck
	// RateLimit runs after the role check; nil disables it.
	RateLimit func(http.Handler) http.Handler
	Handlers  []Registrar
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// NewRouter mounts /healthz and /metrics outside the role check so probes
// never depend on request headers.
func NewRouter(cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(middleware.Recovery(cfg.Logger, cfg.Metrics))
	r.Use(middleware.RequestID)

	r.Get("/healthz", healthHandler(cfg.HealthChecks))
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(metadata.ClientMetadata)
		r.Use(requesttime.Middleware)
		r.Use(role.Middleware(cfg.Logger))
		r.Use(middleware.Logger(cfg.Logger))
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit)
		}
		r.Use(middleware.Timeout(cfg.RequestTimeout))
		if cfg.Metrics != nil {
			r.Use(middleware.LatencyMiddleware(cfg.Metrics))
		}
		for _, h := range cfg.Handlers {
			h.Register(r)
		}
	})
	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok"}
		status := http.StatusOK
		if len(checks) > 0 {
			resp.Checks = make(map[string]string, len(checks))
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
