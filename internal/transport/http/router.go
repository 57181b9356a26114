package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"siret-api/internal/platform/metrics"
	"siret-api/internal/platform/middleware"
	"siret-api/pkg/platform/httputil"
	"siret-api/pkg/platform/middleware/metadata"
	"siret-api/pkg/platform/middleware/request"
	"siret-api/pkg/platform/middleware/requesttime"
)

// Registrar is implemented by module handlers that mount routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Deps carries what the router needs besides the module handlers.
type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	HealthChecks   map[string]HealthCheck
	RequestTimeout time.Duration
	// TrustedProxies may set X-Forwarded-For/X-Real-IP; other peers cannot.
	TrustedProxies []netip.Prefix
}

// NewRouter builds the chi router with the shared middleware chain, the
// operational endpoints and every module's routes.
func NewRouter(deps Deps, modules ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Recovery(deps.Logger))
	r.Use(requesttime.Middleware)
	r.Use(request.RequestID)
	r.Use(metadata.NewResolver(deps.TrustedProxies).Middleware)
	r.Use(request.Logger(deps.Logger))
	r.Use(middleware.LatencyMiddleware(deps.Metrics))
	if deps.RequestTimeout > 0 {
		r.Use(request.Timeout(deps.RequestTimeout))
	}

	r.Get("/health", healthHandler(deps.HealthChecks))
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	for _, m := range modules {
		m.Register(r)
	}
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
		status := http.StatusOK
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
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
