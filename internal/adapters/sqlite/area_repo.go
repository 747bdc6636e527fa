// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/evo/internal/models"
	"github.com/example/evo/internal/ports/secondary"
)

// AreaRepository implements secondary.AreaRepository with SQLite.
type AreaRepository struct {
	db *sql.DB
}

// NewAreaRepository creates a new SQLite area repository.
func NewAreaRepository(db *sql.DB) *AreaRepository {
	return &AreaRepository{db: db}
}

// Create persists a new area.
func (r *AreaRepository) Create(ctx context.Context, area *secondary.AreaRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO areas (name, current_version, metric_names, priority) VALUES (?, ?, ?, ?)",
		area.Name, area.CurrentVersion, area.MetricNames, area.Priority,
	)
	if err != nil {
		return fmt.Errorf("failed to create area: %w", err)
	}
	return nil
}

// GetByName retrieves an area by its name.
func (r *AreaRepository) GetByName(ctx context.Context, name string) (*secondary.AreaRecord, error) {
	var (
		lastExperimentAt sql.NullTime
		createdAt        time.Time
	)

	record := &secondary.AreaRecord{}
	err := r.db.QueryRowContext(ctx,
		`SELECT name, current_version, metric_names, priority, active_experiments,
			total_experiments, success_rate, last_experiment_at, created_at
		 FROM areas WHERE name = ?`,
		name,
	).Scan(&record.Name, &record.CurrentVersion, &record.MetricNames, &record.Priority,
		&record.ActiveExperiments, &record.TotalExperiments, &record.SuccessRate,
		&lastExperimentAt, &createdAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", models.ErrAreaNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get area: %w", err)
	}

	if lastExperimentAt.Valid {
		record.LastExperimentAt = lastExperimentAt.Time
	}
	record.CreatedAt = createdAt.Format(time.RFC3339)

	return record, nil
}

// Exists reports whether an area is registered.
func (r *AreaRepository) Exists(ctx context.Context, name string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM areas WHERE name = ?", name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check area existence: %w", err)
	}
	return count > 0, nil
}

// List retrieves all areas in registration order.
func (r *AreaRepository) List(ctx context.Context) ([]*secondary.AreaRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, current_version, metric_names, priority, active_experiments,
			total_experiments, success_rate, last_experiment_at, created_at
		 FROM areas ORDER BY rowid ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}
	defer rows.Close()

	var areas []*secondary.AreaRecord
	for rows.Next() {
		var (
			lastExperimentAt sql.NullTime
			createdAt        time.Time
		)

		record := &secondary.AreaRecord{}
		err := rows.Scan(&record.Name, &record.CurrentVersion, &record.MetricNames,
			&record.Priority, &record.ActiveExperiments, &record.TotalExperiments,
			&record.SuccessRate, &lastExperimentAt, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan area: %w", err)
		}

		if lastExperimentAt.Valid {
			record.LastExperimentAt = lastExperimentAt.Time
		}
		record.CreatedAt = createdAt.Format(time.RFC3339)

		areas = append(areas, record)
	}

	return areas, nil
}

// Update overwrites the mutable fields of an area.
func (r *AreaRepository) Update(ctx context.Context, area *secondary.AreaRecord) error {
	var lastExperimentAt any
	if !area.LastExperimentAt.IsZero() {
		lastExperimentAt = area.LastExperimentAt
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE areas SET current_version = ?, priority = ?, active_experiments = ?,
			total_experiments = ?, success_rate = ?, last_experiment_at = ?
		 WHERE name = ?`,
		area.CurrentVersion, area.Priority, area.ActiveExperiments,
		area.TotalExperiments, area.SuccessRate, lastExperimentAt, area.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to update area: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrAreaNotFound, area.Name)
	}

	return nil
}

// AppendVersion adds a version record to an area's history.
func (r *AreaRepository) AppendVersion(ctx context.Context, record *secondary.VersionRecord) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO version_records (area_name, version, timestamp, improvement) VALUES (?, ?, ?, ?)",
		record.AreaName, record.Version, record.Timestamp, record.Improvement,
	)
	if err != nil {
		return fmt.Errorf("failed to append version record: %w", err)
	}
	return nil
}

// ListVersions returns an area's version history oldest-first.
func (r *AreaRepository) ListVersions(ctx context.Context, areaName string) ([]*secondary.VersionRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT area_name, version, timestamp, improvement FROM version_records WHERE area_name = ? ORDER BY id ASC",
		areaName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list version records: %w", err)
	}
	defer rows.Close()

	var records []*secondary.VersionRecord
	for rows.Next() {
		record := &secondary.VersionRecord{}
		if err := rows.Scan(&record.AreaName, &record.Version, &record.Timestamp, &record.Improvement); err != nil {
			return nil, fmt.Errorf("failed to scan version record: %w", err)
		}
		records = append(records, record)
	}

	return records, nil
}

// Ensure AreaRepository implements the interface.
var _ secondary.AreaRepository = (*AreaRepository)(nil)
