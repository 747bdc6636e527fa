package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/evo/internal/models"
	"github.com/example/evo/internal/ports/secondary"
)

// DeploymentRepository implements secondary.DeploymentRepository with SQLite.
type DeploymentRepository struct {
	db *sql.DB
}

// NewDeploymentRepository creates a new SQLite deployment repository.
func NewDeploymentRepository(db *sql.DB) *DeploymentRepository {
	return &DeploymentRepository{db: db}
}

// Create persists a new deployment.
func (r *DeploymentRepository) Create(ctx context.Context, deployment *secondary.DeploymentRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO deployments (id, variant_id, status, canary_percent, canary_active,
			rollback_plan, current_config, rollback_reason, rollback_threshold, error_rate, deployed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		deployment.ID, deployment.VariantID, deployment.Status, deployment.CanaryPercent,
		deployment.CanaryActive, deployment.RollbackPlan, deployment.CurrentConfig,
		nullableString(deployment.RollbackReason), deployment.RollbackThreshold,
		deployment.ErrorRate, deployment.DeployedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create deployment: %w", err)
	}
	return nil
}

// GetByID retrieves a deployment by its ID.
func (r *DeploymentRepository) GetByID(ctx context.Context, id string) (*secondary.DeploymentRecord, error) {
	record := &secondary.DeploymentRecord{}
	var rollbackReason sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, variant_id, status, canary_percent, canary_active, rollback_plan,
			current_config, rollback_reason, rollback_threshold, error_rate, deployed_at
		 FROM deployments WHERE id = ?`,
		id,
	).Scan(&record.ID, &record.VariantID, &record.Status, &record.CanaryPercent,
		&record.CanaryActive, &record.RollbackPlan, &record.CurrentConfig,
		&rollbackReason, &record.RollbackThreshold, &record.ErrorRate, &record.DeployedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", models.ErrDeploymentNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deployment: %w", err)
	}

	record.RollbackReason = rollbackReason.String

	return record, nil
}

// Update overwrites the mutable fields of a deployment.
func (r *DeploymentRepository) Update(ctx context.Context, deployment *secondary.DeploymentRecord) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE deployments SET status = ?, canary_percent = ?, canary_active = ?,
			current_config = ?, rollback_reason = ?, error_rate = ?
		 WHERE id = ?`,
		deployment.Status, deployment.CanaryPercent, deployment.CanaryActive,
		deployment.CurrentConfig, nullableString(deployment.RollbackReason),
		deployment.ErrorRate, deployment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update deployment: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrDeploymentNotFound, deployment.ID)
	}

	return nil
}

// List retrieves all deployments in insertion order.
func (r *DeploymentRepository) List(ctx context.Context) ([]*secondary.DeploymentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, variant_id, status, canary_percent, canary_active, rollback_plan,
			current_config, rollback_reason, rollback_threshold, error_rate, deployed_at
		 FROM deployments ORDER BY rowid ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list deployments: %w", err)
	}
	defer rows.Close()

	var deployments []*secondary.DeploymentRecord
	for rows.Next() {
		record := &secondary.DeploymentRecord{}
		var rollbackReason sql.NullString

		err := rows.Scan(&record.ID, &record.VariantID, &record.Status, &record.CanaryPercent,
			&record.CanaryActive, &record.RollbackPlan, &record.CurrentConfig,
			&rollbackReason, &record.RollbackThreshold, &record.ErrorRate, &record.DeployedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deployment: %w", err)
		}

		record.RollbackReason = rollbackReason.String

		deployments = append(deployments, record)
	}

	return deployments, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Ensure DeploymentRepository implements the interface.
var _ secondary.DeploymentRepository = (*DeploymentRepository)(nil)
