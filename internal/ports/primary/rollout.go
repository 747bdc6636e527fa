package primary

import (
	"context"

	"github.com/example/evo/internal/models"
)

// RolloutService owns the canary deployment state machine: deploy,
// widen, health-check, roll back. All waiting is caller-driven; the
// service only exposes state queries and transitions.
type RolloutService interface {
	// Deploy makes the variant the current configuration behind a
	// canary gate, capturing a rollback plan first.
	Deploy(ctx context.Context, cfg models.DeploymentConfig) (*models.Deployment, error)

	// IncreaseCanary widens the canary exposure. Reaching 100 clears
	// the canary gate.
	IncreaseCanary(ctx context.Context, id string, percent float64) (*models.Deployment, error)

	// CheckHealth compares the deployment's observed error rate against
	// its rollback threshold.
	CheckHealth(ctx context.Context, id string) (*models.HealthStatus, error)

	// ReportErrorRate records the error rate observed by the external
	// metrics collector.
	ReportErrorRate(ctx context.Context, id string, rate float64) (*models.Deployment, error)

	// Rollback reverses a deployment using its stored rollback plan.
	// A deployment can be rolled back exactly once.
	Rollback(ctx context.Context, id, reason string) (*models.Deployment, error)

	// History returns all deployments in insertion order.
	History(ctx context.Context) ([]*models.Deployment, error)
}
