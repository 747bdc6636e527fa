package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/example/evo/internal/models"
	"github.com/example/evo/internal/ports/secondary"
)

// mockDeploymentRepository implements secondary.DeploymentRepository for testing.
type mockDeploymentRepository struct {
	deployments map[string]*secondary.DeploymentRecord
	order       []string
}

func newMockDeploymentRepository() *mockDeploymentRepository {
	return &mockDeploymentRepository{deployments: make(map[string]*secondary.DeploymentRecord)}
}

func (m *mockDeploymentRepository) Create(ctx context.Context, deployment *secondary.DeploymentRecord) error {
	copied := *deployment
	m.deployments[deployment.ID] = &copied
	m.order = append(m.order, deployment.ID)
	return nil
}

func (m *mockDeploymentRepository) GetByID(ctx context.Context, id string) (*secondary.DeploymentRecord, error) {
	if d, ok := m.deployments[id]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, fmt.Errorf("%w: %s", models.ErrDeploymentNotFound, id)
}

func (m *mockDeploymentRepository) Update(ctx context.Context, deployment *secondary.DeploymentRecord) error {
	if _, ok := m.deployments[deployment.ID]; !ok {
		return fmt.Errorf("%w: %s", models.ErrDeploymentNotFound, deployment.ID)
	}
	copied := *deployment
	m.deployments[deployment.ID] = &copied
	return nil
}

func (m *mockDeploymentRepository) List(ctx context.Context) ([]*secondary.DeploymentRecord, error) {
	var result []*secondary.DeploymentRecord
	for _, id := range m.order {
		copied := *m.deployments[id]
		result = append(result, &copied)
	}
	return result, nil
}

// mockConfigStore implements secondary.ConfigStore for testing.
type mockConfigStore struct {
	configs map[string]map[string]any
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{configs: make(map[string]map[string]any)}
}

func (m *mockConfigStore) Get(ctx context.Context, key string) (map[string]any, error) {
	return m.configs[key], nil
}

func (m *mockConfigStore) Set(ctx context.Context, key string, config map[string]any) error {
	m.configs[key] = config
	return nil
}

func newTestRolloutService() (*RolloutServiceImpl, *mockDeploymentRepository, *mockConfigStore) {
	repo := newMockDeploymentRepository()
	store := newMockConfigStore()
	service := NewRolloutService(repo, store)
	nextID := 0
	service.idFn = func() string {
		nextID++
		return fmt.Sprintf("dep-%03d", nextID)
	}
	return service, repo, store
}

func TestRolloutService_Deploy(t *testing.T) {
	service, _, store := newTestRolloutService()
	ctx := context.Background()

	store.configs[currentConfigKey] = map[string]any{"mode": "old"}

	deployment, err := service.Deploy(ctx, models.DeploymentConfig{
		VariantID:         "design-1-treatment",
		Variant:           map[string]any{"mode": "new"},
		RollbackThreshold: 0.05,
		CanaryPercent:     1,
	})
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}

	if deployment.Status != models.DeploymentStatusDeployed {
		t.Errorf("expected status deployed, got %q", deployment.Status)
	}
	if !deployment.CanaryActive {
		t.Error("expected canary active at 1%")
	}
	if deployment.RollbackPlan.PreviousConfig["mode"] != "old" {
		t.Errorf("rollback plan should snapshot the previous config, got %v", deployment.RollbackPlan.PreviousConfig)
	}
	if len(deployment.RollbackPlan.Steps) != 3 {
		t.Errorf("expected 3 rollback steps, got %d", len(deployment.RollbackPlan.Steps))
	}

	// Config swap is eager: the store already holds the new config
	if store.configs[currentConfigKey]["mode"] != "new" {
		t.Errorf("expected config store to hold the new config, got %v", store.configs[currentConfigKey])
	}
}

func TestRolloutService_Deploy_FullTrafficHasNoCanary(t *testing.T) {
	service, _, _ := newTestRolloutService()

	deployment, err := service.Deploy(context.Background(), models.DeploymentConfig{
		VariantID:     "v1",
		Variant:       map[string]any{"mode": "new"},
		CanaryPercent: 100,
	})
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	if deployment.CanaryActive {
		t.Error("canary must be inactive at 100%")
	}
}

func TestRolloutService_Deploy_InvalidPercent(t *testing.T) {
	service, _, _ := newTestRolloutService()
	ctx := context.Background()

	for _, percent := range []float64{-1, 101} {
		_, err := service.Deploy(ctx, models.DeploymentConfig{VariantID: "v1", CanaryPercent: percent})
		if !errors.Is(err, models.ErrInvalidConfig) {
			t.Errorf("percent %f: expected ErrInvalidConfig, got %v", percent, err)
		}
	}
}

func TestRolloutService_IncreaseCanary_Ladder(t *testing.T) {
	service, _, _ := newTestRolloutService()
	ctx := context.Background()

	deployment, err := service.Deploy(ctx, models.DeploymentConfig{
		VariantID:     "v1",
		Variant:       map[string]any{"mode": "new"},
		CanaryPercent: 1,
	})
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}

	// Zero percent advances along the standard ladder
	wantStages := []float64{5, 10, 25, 50, 100}
	for _, want := range wantStages {
		deployment, err = service.IncreaseCanary(ctx, deployment.ID, 0)
		if err != nil {
			t.Fatalf("IncreaseCanary failed: %v", err)
		}
		if deployment.CanaryPercent != want {
			t.Errorf("expected stage %f, got %f", want, deployment.CanaryPercent)
		}
	}

	if deployment.CanaryActive {
		t.Error("canary gate must clear at 100%")
	}
}

func TestRolloutService_IncreaseCanary_ExplicitPercent(t *testing.T) {
	service, _, _ := newTestRolloutService()
	ctx := context.Background()

	deployment, err := service.Deploy(ctx, models.DeploymentConfig{
		VariantID:     "v1",
		Variant:       map[string]any{"mode": "new"},
		CanaryPercent: 5,
	})
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}

	deployment, err = service.IncreaseCanary(ctx, deployment.ID, 50)
	if err != nil {
		t.Fatalf("IncreaseCanary failed: %v", err)
	}
	if deployment.CanaryPercent != 50 {
		t.Errorf("expected 50, got %f", deployment.CanaryPercent)
	}
	if !deployment.CanaryActive {
		t.Error("expected canary still active at 50%")
	}

	// Narrowing is refused
	_, err = service.IncreaseCanary(ctx, deployment.ID, 10)
	if !errors.Is(err, models.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for decrease, got %v", err)
	}
}

func TestRolloutService_IncreaseCanary_AfterRollback(t *testing.T) {
	service, _, _ := newTestRolloutService()
	ctx := context.Background()

	deployment, err := service.Deploy(ctx, models.DeploymentConfig{
		VariantID:     "v1",
		Variant:       map[string]any{"mode": "new"},
		CanaryPercent: 1,
	})
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}
	if _, err := service.Rollback(ctx, deployment.ID, "bad metrics"); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	_, err = service.IncreaseCanary(ctx, deployment.ID, 5)
	if !errors.Is(err, models.ErrAlreadyRolledBack) {
		t.Errorf("expected ErrAlreadyRolledBack, got %v", err)
	}
}

func TestRolloutService_CheckHealth(t *testing.T) {
	service, _, _ := newTestRolloutService()
	ctx := context.Background()

	deployment, err := service.Deploy(ctx, models.DeploymentConfig{
		VariantID:         "v1",
		Variant:           map[string]any{"mode": "new"},
		RollbackThreshold: 0.05,
		CanaryPercent:     1,
	})
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}

	// Fresh deployment: zero error rate, healthy
	health, err := service.CheckHealth(ctx, deployment.ID)
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.Healthy {
		t.Error("expected healthy deployment")
	}
	if health.Threshold != 0.05 {
		t.Errorf("expected threshold 0.05, got %f", health.Threshold)
	}

	// Above the per-deployment threshold
	if _, err := service.ReportErrorRate(ctx, deployment.ID, 0.08); err != nil {
		t.Fatalf("ReportErrorRate failed: %v", err)
	}
	health, err = service.CheckHealth(ctx, deployment.ID)
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if health.Healthy {
		t.Error("expected unhealthy at 0.08 against threshold 0.05")
	}
	if health.ErrorRate != 0.08 {
		t.Errorf("expected error rate 0.08, got %f", health.ErrorRate)
	}
	if health.Timestamp.IsZero() {
		t.Error("expected health check timestamp")
	}
}

func TestRolloutService_CheckHealth_DefaultThreshold(t *testing.T) {
	service, _, _ := newTestRolloutService()
	ctx := context.Background()

	// No threshold in the config: default 0.10 applies
	deployment, err := service.Deploy(ctx, models.DeploymentConfig{
		VariantID:     "v1",
		Variant:       map[string]any{"mode": "new"},
		CanaryPercent: 1,
	})
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}

	if _, err := service.ReportErrorRate(ctx, deployment.ID, 0.08); err != nil {
		t.Fatalf("ReportErrorRate failed: %v", err)
	}

	health, err := service.CheckHealth(ctx, deployment.ID)
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.Healthy {
		t.Error("0.08 should be healthy against the 0.10 default")
	}
	if health.Threshold != 0.10 {
		t.Errorf("expected default threshold 0.10, got %f", health.Threshold)
	}
}

func TestRolloutService_ReportErrorRate_OutOfRange(t *testing.T) {
	service, _, _ := newTestRolloutService()
	ctx := context.Background()

	deployment, err := service.Deploy(ctx, models.DeploymentConfig{
		VariantID:     "v1",
		Variant:       map[string]any{"mode": "new"},
		CanaryPercent: 1,
	})
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}

	for _, rate := range []float64{-0.1, 1.5} {
		_, err := service.ReportErrorRate(ctx, deployment.ID, rate)
		if !errors.Is(err, models.ErrInvalidConfig) {
			t.Errorf("rate %f: expected ErrInvalidConfig, got %v", rate, err)
		}
	}
}

func TestRolloutService_Rollback(t *testing.T) {
	service, _, store := newTestRolloutService()
	ctx := context.Background()

	store.configs[currentConfigKey] = map[string]any{"mode": "old"}

	deployment, err := service.Deploy(ctx, models.DeploymentConfig{
		VariantID:     "v1",
		Variant:       map[string]any{"mode": "new"},
		CanaryPercent: 25,
	})
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}

	rolledBack, err := service.Rollback(ctx, deployment.ID, "error rate exceeded threshold")
	if err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	if rolledBack.Status != models.DeploymentStatusRolledBack {
		t.Errorf("expected status rolled_back, got %q", rolledBack.Status)
	}
	if rolledBack.CanaryPercent != 0 || rolledBack.CanaryActive {
		t.Errorf("rollback must stop canary traffic, got percent=%f active=%v",
			rolledBack.CanaryPercent, rolledBack.CanaryActive)
	}
	if rolledBack.RollbackReason != "error rate exceeded threshold" {
		t.Errorf("unexpected rollback reason: %q", rolledBack.RollbackReason)
	}

	// Previous config restored in the store
	if store.configs[currentConfigKey]["mode"] != "old" {
		t.Errorf("expected config store restored to old config, got %v", store.configs[currentConfigKey])
	}

	// The deployment record reverts with it
	if rolledBack.CurrentConfig["mode"] != "old" {
		t.Errorf("expected deployment config restored from rollback plan, got %v", rolledBack.CurrentConfig)
	}

	// Re-reads report the restored config, not the failed variant
	history, err := service.History(ctx)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if history[0].CurrentConfig["mode"] != "old" {
		t.Errorf("expected persisted deployment config restored, got %v", history[0].CurrentConfig)
	}
}

func TestRolloutService_Rollback_DefaultReason(t *testing.T) {
	service, _, _ := newTestRolloutService()
	ctx := context.Background()

	deployment, err := service.Deploy(ctx, models.DeploymentConfig{
		VariantID:     "v1",
		Variant:       map[string]any{"mode": "new"},
		CanaryPercent: 1,
	})
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}

	rolledBack, err := service.Rollback(ctx, deployment.ID, "")
	if err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if rolledBack.RollbackReason != "Rollback requested" {
		t.Errorf("expected default rollback reason, got %q", rolledBack.RollbackReason)
	}
}

func TestRolloutService_Rollback_Twice(t *testing.T) {
	service, _, _ := newTestRolloutService()
	ctx := context.Background()

	deployment, err := service.Deploy(ctx, models.DeploymentConfig{
		VariantID:     "v1",
		Variant:       map[string]any{"mode": "new"},
		CanaryPercent: 1,
	})
	if err != nil {
		t.Fatalf("Deploy failed: %v", err)
	}

	if _, err := service.Rollback(ctx, deployment.ID, "first"); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	_, err = service.Rollback(ctx, deployment.ID, "second")
	if !errors.Is(err, models.ErrAlreadyRolledBack) {
		t.Errorf("expected ErrAlreadyRolledBack, got %v", err)
	}
}

func TestRolloutService_Rollback_NotFound(t *testing.T) {
	service, _, _ := newTestRolloutService()

	_, err := service.Rollback(context.Background(), "dep-999", "reason")
	if !errors.Is(err, models.ErrDeploymentNotFound) {
		t.Errorf("expected ErrDeploymentNotFound, got %v", err)
	}
}

func TestRolloutService_History(t *testing.T) {
	service, _, _ := newTestRolloutService()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := service.Deploy(ctx, models.DeploymentConfig{
			VariantID:     fmt.Sprintf("v%d", i+1),
			Variant:       map[string]any{"round": float64(i)},
			CanaryPercent: 1,
		})
		if err != nil {
			t.Fatalf("Deploy %d failed: %v", i, err)
		}
	}

	history, err := service.History(ctx)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 deployments, got %d", len(history))
	}
	if history[0].VariantID != "v1" || history[2].VariantID != "v3" {
		t.Errorf("unexpected history order: %s .. %s", history[0].VariantID, history[2].VariantID)
	}
	for _, d := range history {
		if d.DeployedAt.IsZero() {
			t.Errorf("deployment %s missing DeployedAt", d.ID)
		}
	}
}
