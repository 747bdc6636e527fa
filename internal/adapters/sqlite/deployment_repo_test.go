package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/example/evo/internal/adapters/sqlite"
	"github.com/example/evo/internal/models"
	"github.com/example/evo/internal/ports/secondary"
)

func newTestDeployment(id string) *secondary.DeploymentRecord {
	return &secondary.DeploymentRecord{
		ID:                id,
		VariantID:         "design-abc-variant",
		Status:            models.DeploymentStatusDeployed,
		CanaryPercent:     1,
		CanaryActive:      true,
		RollbackPlan:      `{"steps":["stop_canary_traffic"]}`,
		CurrentConfig:     `{"window_size":50}`,
		RollbackThreshold: 0.1,
		DeployedAt:        time.Now().UTC().Truncate(time.Second),
	}
}

func TestDeploymentRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewDeploymentRepository(db)
	ctx := context.Background()

	dep := newTestDeployment("dep-001")
	if err := repo.Create(ctx, dep); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	retrieved, err := repo.GetByID(ctx, "dep-001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if retrieved.VariantID != "design-abc-variant" {
		t.Errorf("unexpected variant ID: %s", retrieved.VariantID)
	}
	if retrieved.CanaryPercent != 1 {
		t.Errorf("expected canary percent 1, got %f", retrieved.CanaryPercent)
	}
	if !retrieved.CanaryActive {
		t.Error("expected canary to be active")
	}
	if retrieved.RollbackThreshold != 0.1 {
		t.Errorf("expected rollback threshold 0.1, got %f", retrieved.RollbackThreshold)
	}
	if retrieved.RollbackReason != "" {
		t.Errorf("expected empty rollback reason, got %q", retrieved.RollbackReason)
	}
}

func TestDeploymentRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewDeploymentRepository(db)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "dep-999")
	if !errors.Is(err, models.ErrDeploymentNotFound) {
		t.Errorf("expected ErrDeploymentNotFound, got %v", err)
	}
}

func TestDeploymentRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewDeploymentRepository(db)
	ctx := context.Background()

	dep := newTestDeployment("dep-001")
	if err := repo.Create(ctx, dep); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	dep.Status = models.DeploymentStatusRolledBack
	dep.CanaryPercent = 0
	dep.CanaryActive = false
	dep.RollbackReason = "error rate 0.25 exceeded threshold"
	dep.ErrorRate = 0.25

	if err := repo.Update(ctx, dep); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	retrieved, err := repo.GetByID(ctx, "dep-001")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if retrieved.Status != models.DeploymentStatusRolledBack {
		t.Errorf("expected status rolled_back, got %s", retrieved.Status)
	}
	if retrieved.CanaryActive {
		t.Error("expected canary to be inactive")
	}
	if retrieved.RollbackReason != "error rate 0.25 exceeded threshold" {
		t.Errorf("unexpected rollback reason: %q", retrieved.RollbackReason)
	}
	if retrieved.ErrorRate != 0.25 {
		t.Errorf("expected error rate 0.25, got %f", retrieved.ErrorRate)
	}
	// Immutable fields survive updates
	if retrieved.RollbackPlan != `{"steps":["stop_canary_traffic"]}` {
		t.Errorf("rollback plan changed: %s", retrieved.RollbackPlan)
	}
}

func TestDeploymentRepository_Update_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewDeploymentRepository(db)
	ctx := context.Background()

	err := repo.Update(ctx, newTestDeployment("dep-999"))
	if !errors.Is(err, models.ErrDeploymentNotFound) {
		t.Errorf("expected ErrDeploymentNotFound, got %v", err)
	}
}

func TestDeploymentRepository_List_InsertionOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewDeploymentRepository(db)
	ctx := context.Background()

	for _, id := range []string{"dep-b", "dep-a", "dep-c"} {
		if err := repo.Create(ctx, newTestDeployment(id)); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	deployments, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(deployments) != 3 {
		t.Fatalf("expected 3 deployments, got %d", len(deployments))
	}
	if deployments[0].ID != "dep-b" || deployments[1].ID != "dep-a" || deployments[2].ID != "dep-c" {
		t.Errorf("unexpected order: %s, %s, %s", deployments[0].ID, deployments[1].ID, deployments[2].ID)
	}
}
