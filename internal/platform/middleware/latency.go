package middleware

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"siret-api/internal/platform/metrics"
	"siret-api/pkg/platform/middleware/request"
	"siret-api/pkg/requestcontext"
)

// LatencyMiddleware records request latency labelled by the matched chi route
// pattern, so /{siret} requests share one series. A nil m disables it.
func LatencyMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := requestcontext.Now(r.Context())
			rec := &request.StatusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			status := rec.Status
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveRequest(r.Method, route, strconv.Itoa(status), start)
		})
	}
}
