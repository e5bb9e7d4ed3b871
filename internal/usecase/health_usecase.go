package usecase

import (
	"context"
	"sort"

	"go-form-relay/internal/domain"
	"go-form-relay/pkg/logger"
)

type healthUsecase struct {
	names  []string
	checks map[string]domain.HealthCheck
}

// NewHealthUsecase reports on the named dependencies. Checks run in name order.
func NewHealthUsecase(checks map[string]domain.HealthCheck) domain.HealthUsecase {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return &healthUsecase{names: names, checks: checks}
}

func (u *healthUsecase) Check(ctx context.Context) map[string]string {
	status := map[string]string{"status": "ok"}
	for _, name := range u.names {
		if err := u.checks[name](ctx); err != nil {
			logger.Log.Warn("Health check failed", "dependency", name, "error", err)
			status[name] = "unavailable"
			continue
		}
		status[name] = "ok"
	}
	return status
}
