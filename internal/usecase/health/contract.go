package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks an external provider (embedding API, chat LLM).
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}
