package health

import "context"

// Pinger checks a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CompletionChecker checks completion provider availability.
type CompletionChecker interface {
	HealthCheck(ctx context.Context) error
}
