package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing profile.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals a malformed caller request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUnparseable signals that model output could not be turned into a structured filter.
	// It is an expected outcome and always triggers the fallback search path.
	ErrUnparseable = errors.New("unparseable model output")

	// ErrCompletionFailed signals a transport or HTTP failure of the completion endpoint.
	ErrCompletionFailed = errors.New("completion failed")
	// ErrCompletionTimeout signals that the completion call exceeded its deadline.
	ErrCompletionTimeout = fmt.Errorf("%w: deadline exceeded", ErrCompletionFailed)
	// ErrCompletionQuotaExceeded signals an exhausted completion token budget.
	ErrCompletionQuotaExceeded = fmt.Errorf("%w: token quota exceeded", ErrCompletionFailed)

	// ErrMatchUnavailable signals that no explanation can be produced for a pair.
	// Callers hide the insight box instead of failing the profile view.
	ErrMatchUnavailable = errors.New("match explanation unavailable")

	// ErrStore signals a record store failure.
	ErrStore = errors.New("store error")
)

// StatusError carries the HTTP status returned by the completion endpoint.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", ErrCompletionFailed.Error(), e.StatusCode, e.Message)
}

func (e *StatusError) Unwrap() error { return ErrCompletionFailed }
