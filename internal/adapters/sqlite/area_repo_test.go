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

func TestAreaRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewAreaRepository(db)
	ctx := context.Background()

	area := &secondary.AreaRecord{
		Name:           "prediction",
		CurrentVersion: "1.0.0",
		MetricNames:    `["accuracy","latency"]`,
		Priority:       1,
	}

	if err := repo.Create(ctx, area); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	retrieved, err := repo.GetByName(ctx, "prediction")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if retrieved.CurrentVersion != "1.0.0" {
		t.Errorf("expected version '1.0.0', got '%s'", retrieved.CurrentVersion)
	}
	if retrieved.MetricNames != `["accuracy","latency"]` {
		t.Errorf("unexpected metric names: %s", retrieved.MetricNames)
	}
	if !retrieved.LastExperimentAt.IsZero() {
		t.Error("expected zero LastExperimentAt for new area")
	}
}

func TestAreaRepository_Create_DuplicateName(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewAreaRepository(db)
	ctx := context.Background()

	area := &secondary.AreaRecord{Name: "routing", CurrentVersion: "1.0.0", MetricNames: "[]"}
	if err := repo.Create(ctx, area); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := repo.Create(ctx, area); err == nil {
		t.Error("expected error for duplicate area name")
	}
}

func TestAreaRepository_GetByName_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewAreaRepository(db)
	ctx := context.Background()

	_, err := repo.GetByName(ctx, "nonexistent")
	if !errors.Is(err, models.ErrAreaNotFound) {
		t.Errorf("expected ErrAreaNotFound, got %v", err)
	}
}

func TestAreaRepository_Exists(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewAreaRepository(db)
	ctx := context.Background()

	seedArea(t, db, "prediction", "")

	exists, err := repo.Exists(ctx, "prediction")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected area to exist")
	}

	exists, err = repo.Exists(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("expected area to not exist")
	}
}

func TestAreaRepository_List_RegistrationOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewAreaRepository(db)
	ctx := context.Background()

	seedArea(t, db, "zeta", "")
	seedArea(t, db, "alpha", "")
	seedArea(t, db, "mid", "")

	areas, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(areas) != 3 {
		t.Fatalf("expected 3 areas, got %d", len(areas))
	}
	// Insertion order, not alphabetical
	if areas[0].Name != "zeta" || areas[1].Name != "alpha" || areas[2].Name != "mid" {
		t.Errorf("unexpected order: %s, %s, %s", areas[0].Name, areas[1].Name, areas[2].Name)
	}
}

func TestAreaRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewAreaRepository(db)
	ctx := context.Background()

	seedArea(t, db, "prediction", "1.0.0")

	now := time.Now().UTC().Truncate(time.Second)
	record := &secondary.AreaRecord{
		Name:              "prediction",
		CurrentVersion:    "1.1.0",
		ActiveExperiments: 1,
		TotalExperiments:  5,
		SuccessRate:       0.8,
		LastExperimentAt:  now,
	}

	if err := repo.Update(ctx, record); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	retrieved, err := repo.GetByName(ctx, "prediction")
	if err != nil {
		t.Fatalf("GetByName failed: %v", err)
	}
	if retrieved.CurrentVersion != "1.1.0" {
		t.Errorf("expected version '1.1.0', got '%s'", retrieved.CurrentVersion)
	}
	if retrieved.TotalExperiments != 5 {
		t.Errorf("expected 5 total experiments, got %d", retrieved.TotalExperiments)
	}
	if retrieved.SuccessRate != 0.8 {
		t.Errorf("expected success rate 0.8, got %f", retrieved.SuccessRate)
	}
	if !retrieved.LastExperimentAt.Equal(now) {
		t.Errorf("expected last experiment at %v, got %v", now, retrieved.LastExperimentAt)
	}
}

func TestAreaRepository_Update_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewAreaRepository(db)
	ctx := context.Background()

	err := repo.Update(ctx, &secondary.AreaRecord{Name: "nonexistent"})
	if !errors.Is(err, models.ErrAreaNotFound) {
		t.Errorf("expected ErrAreaNotFound, got %v", err)
	}
}

func TestAreaRepository_VersionHistory(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewAreaRepository(db)
	ctx := context.Background()

	seedArea(t, db, "prediction", "1.0.0")

	base := time.Now().UTC().Truncate(time.Second)
	records := []*secondary.VersionRecord{
		{AreaName: "prediction", Version: "1.0.0", Timestamp: base, Improvement: 0},
		{AreaName: "prediction", Version: "1.1.0", Timestamp: base.Add(time.Hour), Improvement: 0.12},
		{AreaName: "prediction", Version: "1.2.0", Timestamp: base.Add(2 * time.Hour), Improvement: 0.05},
	}
	for _, rec := range records {
		if err := repo.AppendVersion(ctx, rec); err != nil {
			t.Fatalf("AppendVersion failed: %v", err)
		}
	}

	history, err := repo.ListVersions(ctx, "prediction")
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}

	if len(history) != 3 {
		t.Fatalf("expected 3 version records, got %d", len(history))
	}
	// Oldest first
	if history[0].Version != "1.0.0" || history[2].Version != "1.2.0" {
		t.Errorf("unexpected order: %s .. %s", history[0].Version, history[2].Version)
	}
	if history[1].Improvement != 0.12 {
		t.Errorf("expected improvement 0.12, got %f", history[1].Improvement)
	}
}

func TestAreaRepository_ListVersions_Empty(t *testing.T) {
	db := setupTestDB(t)
	repo := sqlite.NewAreaRepository(db)
	ctx := context.Background()

	seedArea(t, db, "prediction", "")

	history, err := repo.ListVersions(ctx, "prediction")
	if err != nil {
		t.Fatalf("ListVersions failed: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("expected no version records, got %d", len(history))
	}
}
