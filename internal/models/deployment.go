package models

import "time"

// DeploymentConfig is the request to roll out a winning variant.
type DeploymentConfig struct {
	VariantID         string
	Variant           map[string]any
	RollbackThreshold float64
	CanaryPercent     float64 // 0..100
}

// RollbackPlan snapshots everything needed to reverse a deployment.
// Captured before the new configuration takes effect; the sole source
// of truth for reversal.
type RollbackPlan struct {
	PreviousConfig map[string]any
	Steps          []string
	CreatedAt      time.Time
}

// Deployment tracks one canary rollout through its state machine.
type Deployment struct {
	ID                string
	VariantID         string
	Status            string
	CanaryPercent     float64
	CanaryActive      bool // true iff 0 < CanaryPercent < 100
	RollbackPlan      RollbackPlan
	DeployedAt        time.Time
	CurrentConfig     map[string]any
	RollbackReason    string
	RollbackThreshold float64
	ErrorRate         float64
}

// Deployment status constants. The rollout manager writes deployed and
// rolled_back; deploying and failed are accepted on read (and by the
// rollback guard) for records written by external tooling.
const (
	DeploymentStatusDeploying  = "deploying"
	DeploymentStatusDeployed   = "deployed"
	DeploymentStatusRolledBack = "rolled_back"
	DeploymentStatusFailed     = "failed"
)

// HealthStatus is the result of a deployment health check.
type HealthStatus struct {
	Healthy   bool
	ErrorRate float64
	Threshold float64
	Timestamp time.Time
}
