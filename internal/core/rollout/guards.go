// Package rollout contains the pure business logic for canary
// deployments: transition guards, canary exposure math, and health
// evaluation. The service layer owns state; everything here is
// side-effect free.
package rollout

import (
	"fmt"

	"github.com/example/evo/internal/models"
)

// DefaultRollbackThreshold is the error rate above which a deployment
// is unhealthy when its config does not set one.
const DefaultRollbackThreshold = 0.10

// canaryStages is the progressive traffic ladder for widening a canary.
var canaryStages = []float64{1, 5, 10, 25, 50, 100}

// GuardResult represents the outcome of a rollout guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
	Kind    error
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	if r.Kind != nil {
		return fmt.Errorf("%w: %s", r.Kind, r.Reason)
	}
	return fmt.Errorf("%s", r.Reason)
}

// CanDeploy validates a deployment request before any state changes.
func CanDeploy(cfg models.DeploymentConfig) GuardResult {
	if cfg.CanaryPercent < 0 || cfg.CanaryPercent > 100 {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("canary percent %.1f outside [0,100]", cfg.CanaryPercent),
			Kind:    models.ErrInvalidConfig,
		}
	}
	return GuardResult{Allowed: true}
}

// CanRollback rejects rollback of a deployment already in its terminal
// state. A second rollback is a caller bug, not a safe no-op, so it is
// reported rather than ignored.
func CanRollback(dep models.Deployment) GuardResult {
	if dep.Status == models.DeploymentStatusRolledBack {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("deployment %s already rolled back", dep.ID),
			Kind:    models.ErrAlreadyRolledBack,
		}
	}
	return GuardResult{Allowed: true}
}

// CanaryActive reports whether a canary gate is in effect: true iff the
// percentage is strictly between 0 and 100.
func CanaryActive(percent float64) bool {
	return percent > 0 && percent < 100
}

// NextStage returns the next rung of the canary ladder above the
// current exposure, or 100 once the ladder is exhausted.
func NextStage(current float64) float64 {
	for _, stage := range canaryStages {
		if stage > current {
			return stage
		}
	}
	return 100
}

// Healthy evaluates an observed error rate against the deployment's
// rollback threshold, falling back to the default when the config left
// it unset.
func Healthy(errorRate, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultRollbackThreshold
	}
	return errorRate <= threshold
}

// EffectiveThreshold resolves the threshold a health check will use.
func EffectiveThreshold(threshold float64) float64 {
	if threshold <= 0 {
		return DefaultRollbackThreshold
	}
	return threshold
}

// PlanSteps is the ordered reversal procedure captured in every
// rollback plan.
func PlanSteps() []string {
	return []string{
		"stop_canary_traffic",
		"restore_previous_config",
		"verify_rollback",
	}
}
