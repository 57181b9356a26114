package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
// These describe the state of a stored record, not validation failures:
//   - ErrNotFound: no record matched the identifier
//   - ErrConflict: a unique index rejected the write
//   - ErrUnavailable: the backing store could not be reached
//
// For validation errors (bad input, inconsistent identifiers), use pkg/domain-errors.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
