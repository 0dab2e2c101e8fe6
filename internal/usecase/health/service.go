package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status  Status
	Checks  map[string]CheckResult
	Indexes int
}

// Service coordinates health checks.
type Service struct {
	db       DBPinger
	provider ProviderChecker
	catalog  IndexCatalog
}

// New creates a Service. provider and catalog can be nil.
func New(db DBPinger, provider ProviderChecker, catalog IndexCatalog) *Service {
	return &Service{db: db, provider: provider, catalog: catalog}
}

// Check runs health checks against all components. An unreachable component
// degrades the report rather than failing it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.provider != nil {
		if err := s.provider.HealthCheck(ctx); err != nil {
			checks["provider"] = CheckError
		} else {
			checks["provider"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	report := Report{Status: status, Checks: checks}
	if s.catalog != nil {
		report.Indexes = s.catalog.Len()
	}
	return report
}
