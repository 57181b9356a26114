package testutil

import (
	"net/http"

	"siret-api/pkg/platform/middleware/request"
)

// WithRequestID sets the inbound request ID header, as an upstream proxy
// propagating its own ID would.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	req.Header.Set(request.HeaderRequestID, requestID)
	return req
}
