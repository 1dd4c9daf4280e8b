package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors:
//   - ErrNotFound: record does not exist in the store
//   - ErrConflict: a uniqueness guard rejected the write (e.g. a slot already reserved)
//   - ErrInvalidState: record is in the wrong state for the requested operation
//   - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
