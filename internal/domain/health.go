package domain

import "context"

// HealthCheck reports a dependency as healthy when it returns nil
type HealthCheck func(ctx context.Context) error

type HealthUsecase interface {
	// Check returns "ok" or "unavailable" per dependency, plus the overall "status"
	Check(ctx context.Context) map[string]string
}
