package health

import (
	"context"
	"time"

	corehealth "3tcapital/ms_saludplus_facturas/internal/core/health"
)

const probeTimeout = 2 * time.Second

// Metadata contains immutable metadata about the running service.
type Metadata struct {
	Service     string
	Version     string
	Environment string
}

// Service exposes health-check use cases to adapters.
type Service struct {
	meta      Metadata
	checkers  []corehealth.Checker
	startedAt time.Time
}

// NewService creates the health service. Checkers are probed on every call.
func NewService(meta Metadata, checkers ...corehealth.Checker) *Service {
	return &Service{
		meta:      meta,
		checkers:  checkers,
		startedAt: time.Now().UTC(),
	}
}

// Status returns the current availability snapshot. A failing dependency
// degrades the service but never takes it down: every dependency is optional.
func (s *Service) Status(ctx context.Context) corehealth.Status {
	uptime := time.Since(s.startedAt)
	status := corehealth.Status{
		Service:     s.meta.Service,
		Version:     s.meta.Version,
		Environment: s.meta.Environment,
		Status:      corehealth.StatusUp,
		StartedAt:   s.startedAt,
		Uptime:      uptime.String(),
		UptimeSecs:  int64(uptime.Seconds()),
	}

	for _, checker := range s.checkers {
		dep := probe(ctx, checker)
		if dep.Status == corehealth.StatusDown {
			status.Status = corehealth.StatusDegraded
		}
		status.Dependencies = append(status.Dependencies, dep)
	}
	return status
}

func probe(ctx context.Context, checker corehealth.Checker) corehealth.Dependency {
	dep := corehealth.Dependency{Name: checker.Name}
	if checker.Probe == nil {
		dep.Status = corehealth.StatusDisabled
		return dep
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := checker.Probe(ctx); err != nil {
		dep.Status = corehealth.StatusDown
		dep.Detail = err.Error()
		return dep
	}
	dep.Status = corehealth.StatusUp
	return dep
}
