package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/evo/internal/core/rollout"
	"github.com/example/evo/internal/models"
	"github.com/example/evo/internal/ports/primary"
	"github.com/example/evo/internal/ports/secondary"
)

// currentConfigKey is the config store entry deployments overwrite.
const currentConfigKey = "current"

// RolloutServiceImpl implements the RolloutService interface.
//
// The mutex covers the deploy/widen/rollback transitions: each one is a
// read-modify-write of both the deployment row and the shared config
// store entry.
type RolloutServiceImpl struct {
	mu             sync.Mutex
	deploymentRepo secondary.DeploymentRepository
	configStore    secondary.ConfigStore
	nowFn          func() time.Time
	idFn           func() string
}

// NewRolloutService creates a new RolloutService with injected
// dependencies.
func NewRolloutService(deploymentRepo secondary.DeploymentRepository, configStore secondary.ConfigStore) *RolloutServiceImpl {
	return &RolloutServiceImpl{
		deploymentRepo: deploymentRepo,
		configStore:    configStore,
		nowFn:          time.Now,
		idFn:           func() string { return "dep-" + uuid.NewString() },
	}
}

// Deploy makes the variant the current configuration behind a canary
// gate. The rollback plan snapshots the previous configuration BEFORE
// the swap; it is the only path back.
func (s *RolloutServiceImpl) Deploy(ctx context.Context, cfg models.DeploymentConfig) (*models.Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if guard := rollout.CanDeploy(cfg); !guard.Allowed {
		return nil, guard.Error()
	}

	previous, err := s.configStore.Get(ctx, currentConfigKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read current config: %w", err)
	}

	now := s.nowFn()
	plan := models.RollbackPlan{
		PreviousConfig: previous,
		Steps:          rollout.PlanSteps(),
		CreatedAt:      now,
	}

	// The new config takes effect immediately; the canary percent gates
	// traffic exposure, not the config swap.
	if err := s.configStore.Set(ctx, currentConfigKey, cfg.Variant); err != nil {
		return nil, fmt.Errorf("failed to apply config: %w", err)
	}

	planJSON, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rollback plan: %w", err)
	}
	configJSON, err := json.Marshal(cfg.Variant)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}

	record := &secondary.DeploymentRecord{
		ID:                s.idFn(),
		VariantID:         cfg.VariantID,
		Status:            models.DeploymentStatusDeployed,
		CanaryPercent:     cfg.CanaryPercent,
		CanaryActive:      rollout.CanaryActive(cfg.CanaryPercent),
		RollbackPlan:      string(planJSON),
		CurrentConfig:     string(configJSON),
		RollbackThreshold: cfg.RollbackThreshold,
		DeployedAt:        now,
	}
	if err := s.deploymentRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	return recordToDeployment(record)
}

// IncreaseCanary widens the canary exposure. Passing zero advances to
// the next rung of the standard ladder. Reaching 100 clears the canary
// gate.
func (s *RolloutServiceImpl) IncreaseCanary(ctx context.Context, id string, percent float64) (*models.Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.deploymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.Status == models.DeploymentStatusRolledBack {
		return nil, fmt.Errorf("%w: cannot widen deployment %s", models.ErrAlreadyRolledBack, id)
	}

	if percent == 0 {
		percent = rollout.NextStage(record.CanaryPercent)
	}
	if percent < 0 || percent > 100 {
		return nil, fmt.Errorf("%w: canary percent %.1f outside [0,100]", models.ErrInvalidConfig, percent)
	}
	if percent < record.CanaryPercent {
		return nil, fmt.Errorf("%w: canary percent cannot decrease from %.1f to %.1f",
			models.ErrInvalidConfig, record.CanaryPercent, percent)
	}

	record.CanaryPercent = percent
	record.CanaryActive = rollout.CanaryActive(percent)
	if err := s.deploymentRepo.Update(ctx, record); err != nil {
		return nil, err
	}

	return recordToDeployment(record)
}

// CheckHealth compares the deployment's last reported error rate against
// its rollback threshold. Read-only: acting on an unhealthy result is
// the caller's call.
func (s *RolloutServiceImpl) CheckHealth(ctx context.Context, id string) (*models.HealthStatus, error) {
	record, err := s.deploymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &models.HealthStatus{
		Healthy:   rollout.Healthy(record.ErrorRate, record.RollbackThreshold),
		ErrorRate: record.ErrorRate,
		Threshold: rollout.EffectiveThreshold(record.RollbackThreshold),
		Timestamp: s.nowFn(),
	}, nil
}

// ReportErrorRate records the error rate observed by the external
// metrics collector.
func (s *RolloutServiceImpl) ReportErrorRate(ctx context.Context, id string, rate float64) (*models.Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rate < 0 || rate > 1 {
		return nil, fmt.Errorf("%w: error rate %.3f outside [0,1]", models.ErrInvalidConfig, rate)
	}

	record, err := s.deploymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	record.ErrorRate = rate
	if err := s.deploymentRepo.Update(ctx, record); err != nil {
		return nil, err
	}

	return recordToDeployment(record)
}

// Rollback reverses a deployment using its stored rollback plan: restore
// the previous configuration, stop canary traffic, mark the terminal
// state. A deployment can be rolled back exactly once.
func (s *RolloutServiceImpl) Rollback(ctx context.Context, id, reason string) (*models.Deployment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.deploymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	deployment, err := recordToDeployment(record)
	if err != nil {
		return nil, err
	}
	if guard := rollout.CanRollback(*deployment); !guard.Allowed {
		return nil, guard.Error()
	}

	if err := s.configStore.Set(ctx, currentConfigKey, deployment.RollbackPlan.PreviousConfig); err != nil {
		return nil, fmt.Errorf("failed to restore previous config: %w", err)
	}

	// The deployment record follows the store: its current config reverts
	// to the plan's snapshot.
	previousJSON, err := json.Marshal(deployment.RollbackPlan.PreviousConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to encode previous config: %w", err)
	}

	if reason == "" {
		reason = "Rollback requested"
	}

	record.Status = models.DeploymentStatusRolledBack
	record.CanaryPercent = 0
	record.CanaryActive = false
	record.CurrentConfig = string(previousJSON)
	record.RollbackReason = reason
	if err := s.deploymentRepo.Update(ctx, record); err != nil {
		return nil, err
	}

	return recordToDeployment(record)
}

// History returns all deployments in insertion order.
func (s *RolloutServiceImpl) History(ctx context.Context) ([]*models.Deployment, error) {
	records, err := s.deploymentRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	deployments := make([]*models.Deployment, len(records))
	for i, r := range records {
		deployment, err := recordToDeployment(r)
		if err != nil {
			return nil, err
		}
		deployments[i] = deployment
	}
	return deployments, nil
}

// Helper methods

func recordToDeployment(r *secondary.DeploymentRecord) (*models.Deployment, error) {
	var plan models.RollbackPlan
	if r.RollbackPlan != "" {
		if err := json.Unmarshal([]byte(r.RollbackPlan), &plan); err != nil {
			return nil, fmt.Errorf("failed to decode rollback plan for deployment %s: %w", r.ID, err)
		}
	}
	var config map[string]any
	if r.CurrentConfig != "" {
		if err := json.Unmarshal([]byte(r.CurrentConfig), &config); err != nil {
			return nil, fmt.Errorf("failed to decode config for deployment %s: %w", r.ID, err)
		}
	}

	return &models.Deployment{
		ID:                r.ID,
		VariantID:         r.VariantID,
		Status:            r.Status,
		CanaryPercent:     r.CanaryPercent,
		CanaryActive:      r.CanaryActive,
		RollbackPlan:      plan,
		DeployedAt:        r.DeployedAt,
		CurrentConfig:     config,
		RollbackReason:    r.RollbackReason,
		RollbackThreshold: r.RollbackThreshold,
		ErrorRate:         r.ErrorRate,
	}, nil
}

// Ensure RolloutServiceImpl implements the interface
var _ primary.RolloutService = (*RolloutServiceImpl)(nil)
