// Package httputil writes the registry's JSON responses.
//
// Every non-list response uses the {"detail": "..."} envelope, for successes as
// well as failures, so existing clients can keep decoding a single shape.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "siret-api/pkg/domain-errors"
)

// DetailResponse is the envelope shared by success and error messages.
type DetailResponse struct {
	Detail string `json:"detail"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteDetail writes a {"detail": message} body.
func WriteDetail(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, DetailResponse{Detail: message})
}

// WriteError translates err into its status and detail message and returns the
// status written. Errors without a domain code become a bare 500.
func WriteError(w http.ResponseWriter, err error) int {
	de, ok := dErrors.As(err)
	if !ok {
		WriteDetail(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return http.StatusInternalServerError
	}
	status := dErrors.ToHTTPStatus(de.Code)
	WriteDetail(w, status, de.Message)
	return status
}
