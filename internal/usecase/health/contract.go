package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks model provider availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexCatalog reports how many knowledge bases are loaded.
type IndexCatalog interface {
	Len() int
}
