package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/evo/internal/models"
	"github.com/example/evo/internal/ports/secondary"
)

// ExperimentRepository implements secondary.ExperimentRepository with SQLite.
type ExperimentRepository struct {
	db *sql.DB
}

// NewExperimentRepository creates a new SQLite experiment repository.
func NewExperimentRepository(db *sql.DB) *ExperimentRepository {
	return &ExperimentRepository{db: db}
}

// Create persists a new experiment with status active.
func (r *ExperimentRepository) Create(ctx context.Context, experiment *secondary.ExperimentRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO experiments (id, area_name, hypothesis, treatment, status, paused, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		experiment.ID, experiment.Area, experiment.Hypothesis, experiment.Treatment,
		models.ExperimentStatusActive, experiment.Paused, experiment.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create experiment: %w", err)
	}
	return nil
}

// GetActiveByArea retrieves the oldest active experiment for an area,
// or nil when the area has none.
func (r *ExperimentRepository) GetActiveByArea(ctx context.Context, area string) (*secondary.ExperimentRecord, error) {
	record := &secondary.ExperimentRecord{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, area_name, hypothesis, treatment, status, paused, started_at
		 FROM experiments WHERE area_name = ? AND status = ? ORDER BY started_at ASC LIMIT 1`,
		area, models.ExperimentStatusActive,
	).Scan(&record.ID, &record.Area, &record.Hypothesis, &record.Treatment,
		&record.Status, &record.Paused, &record.StartedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active experiment: %w", err)
	}

	return record, nil
}

// ListActive retrieves all active experiments oldest-first.
func (r *ExperimentRepository) ListActive(ctx context.Context) ([]*secondary.ExperimentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, area_name, hypothesis, treatment, status, paused, started_at
		 FROM experiments WHERE status = ? ORDER BY started_at ASC`,
		models.ExperimentStatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active experiments: %w", err)
	}
	defer rows.Close()

	var experiments []*secondary.ExperimentRecord
	for rows.Next() {
		record := &secondary.ExperimentRecord{}
		err := rows.Scan(&record.ID, &record.Area, &record.Hypothesis, &record.Treatment,
			&record.Status, &record.Paused, &record.StartedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan experiment: %w", err)
		}
		experiments = append(experiments, record)
	}

	return experiments, nil
}

// CountUnpausedActive returns the number of active, non-paused
// experiments system-wide.
func (r *ExperimentRepository) CountUnpausedActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM experiments WHERE status = ? AND paused = 0",
		models.ExperimentStatusActive,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active experiments: %w", err)
	}
	return count, nil
}

// Complete marks an experiment completed, removing it from the active set.
func (r *ExperimentRepository) Complete(ctx context.Context, id string, completedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE experiments SET status = ?, completed_at = ? WHERE id = ? AND status = ?",
		models.ExperimentStatusCompleted, completedAt, id, models.ExperimentStatusActive,
	)
	if err != nil {
		return fmt.Errorf("failed to complete experiment: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("active experiment %s not found", id)
	}

	return nil
}

// SetAllPaused toggles the paused flag on every active experiment.
func (r *ExperimentRepository) SetAllPaused(ctx context.Context, paused bool) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE experiments SET paused = ? WHERE status = ?",
		paused, models.ExperimentStatusActive,
	)
	if err != nil {
		return fmt.Errorf("failed to toggle paused flag: %w", err)
	}
	return nil
}

// GetNextID returns the next available experiment ID.
func (r *ExperimentRepository) GetNextID(ctx context.Context) (string, error) {
	var maxID int
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(CAST(SUBSTR(id, 5) AS INTEGER)), 0) FROM experiments",
	).Scan(&maxID)
	if err != nil {
		return "", fmt.Errorf("failed to get next experiment ID: %w", err)
	}

	return fmt.Sprintf("EXP-%03d", maxID+1), nil
}

// Ensure ExperimentRepository implements the interface.
var _ secondary.ExperimentRepository = (*ExperimentRepository)(nil)
