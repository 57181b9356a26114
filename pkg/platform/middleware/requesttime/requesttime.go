// Package requesttime stamps each request with a single "now" so every log
// line and metric of the request agrees on its start time.
package requesttime

import (
	"net/http"
	"time"

	"siret-api/pkg/requestcontext"
)

// Middleware captures the current time at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
