package netmatch

import (
	"context"
	"time"

	healthuc "github.com/kailas-cloud/netmatch/internal/usecase/health"
)

// HealthChecker may be implemented by a Completer to take part in Health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthStatus represents the aggregated system health.
type HealthStatus struct {
	Status string            // "ok", "degraded", "error"
	Checks map[string]string // component → "ok"/"error"
}

// Healthy reports whether every component passed.
func (h HealthStatus) Healthy() bool { return h.Status == string(healthuc.Healthy) }

// Health checks the database, the cache and, when supported, the completer.
func (c *Client) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	report := c.healthSvc.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	c.obs.observe("health", string(report.Status), start, nil)
	return HealthStatus{
		Status: string(report.Status),
		Checks: checks,
	}
}
