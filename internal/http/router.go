// Package httpapi assembles the public HTTP surface.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aidledger/internal/platform/metrics"
	"aidledger/pkg/platform/httputil"
	"aidledger/pkg/platform/middleware/requestid"
	"aidledger/pkg/platform/middleware/requesttime"
	"aidledger/pkg/requestcontext"
)

// Registrar is implemented by module handlers.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Logger      *slog.Logger
	Registry    *prometheus.Registry
	Checks      map[string]HealthCheck
	Modules     []Registrar
	CORSOrigins []string
	// SeparateOps leaves /metrics and /healthz to NewOpsRouter on its own
	// listener.
	SeparateOps bool
}

const healthCheckTimeout = 2 * time.Second

// NewRouter wires middleware, operational endpoints and every module's routes.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(chimw.Recoverer)
	if len(deps.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: deps.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", requestid.Header},
			ExposedHeaders: []string{requestid.Header, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
			MaxAge:         300,
		}))
	}
	if deps.Registry != nil {
		r.Use(metrics.NewHTTP(deps.Registry).Middleware)
	}
	if !deps.SeparateOps {
		mountOps(r, deps)
	}
	for _, m := range deps.Modules {
		m.Register(r)
	}
	return r
}

// NewOpsRouter serves only /metrics and /healthz, for an internal listener
// kept off the public port.
func NewOpsRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	mountOps(r, deps)
	return r
}

func mountOps(r chi.Router, deps Deps) {
	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}
	r.Get("/healthz", healthHandler(deps.Checks, deps.Logger))
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
		status := http.StatusOK
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				resp.Checks[name] = "down"
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				if logger != nil {
					logger.WarnContext(ctx, "health check failed",
						"request_id", requestcontext.RequestID(ctx),
						"check", name,
						"error", err,
					)
				}
				continue
			}
			resp.Checks[name] = "up"
		}
		httputil.WriteJSON(w, status, resp)
	}
}
