package netmatch

import "github.com/kailas-cloud/netmatch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	// ErrNotFound is returned when a profile in a match pair does not exist.
	ErrNotFound = domain.ErrNotFound
	// ErrInvalidRequest is returned for a blank or self-referencing match pair.
	ErrInvalidRequest = domain.ErrInvalidRequest
	// ErrMatchUnavailable is returned when no explanation could be produced.
	ErrMatchUnavailable = domain.ErrMatchUnavailable
)
