// Package primary defines the primary ports (driving adapters) for the
// application: the service interfaces the CLI and any host process
// program against, plus their request/response types.
package primary

import (
	"context"

	"github.com/example/evo/internal/models"
)

// SchedulerService coordinates evolution across registered areas under
// global concurrency and per-area cooldown constraints.
type SchedulerService interface {
	// RegisterArea registers a subsystem for evolution, seeding its
	// version history with the current version as baseline.
	RegisterArea(ctx context.Context, req RegisterAreaRequest) (*models.Area, error)

	// NextExperiment picks the most urgent area whose cooldown has
	// elapsed. Returns nil when no area is eligible.
	NextExperiment(ctx context.Context) (*models.Area, error)

	// StartExperiment begins an experiment in an area, enforcing the
	// concurrency limit and the area cooldown.
	StartExperiment(ctx context.Context, req StartExperimentRequest) (*models.Experiment, error)

	// CompleteExperiment finishes the area's active experiment and
	// folds the outcome into the area's statistics. A successful
	// outcome with a new version upgrades the area.
	CompleteExperiment(ctx context.Context, req CompleteExperimentRequest) (*models.Area, error)

	// UpgradeVersion moves an area to a new version, appending to its
	// history.
	UpgradeVersion(ctx context.Context, area, newVersion string, improvement float64) (*models.Area, error)

	// RollbackToVersion points an area back at an earlier version
	// without truncating history.
	RollbackToVersion(ctx context.Context, area, version string) (*models.Area, error)

	// PauseAll pauses every tracked experiment; paused experiments do
	// not count toward the concurrency limit.
	PauseAll(ctx context.Context) error

	// ResumeAll resumes every tracked experiment.
	ResumeAll(ctx context.Context) error

	// ListAreas returns all registered areas in registration order.
	ListAreas(ctx context.Context) ([]*models.Area, error)

	// ListActiveExperiments returns all active experiments oldest-first.
	ListActiveExperiments(ctx context.Context) ([]*models.Experiment, error)

	// Report summarizes one area's evolution to date.
	Report(ctx context.Context, area string) (*AreaReport, error)

	// Summary aggregates every area's report.
	Summary(ctx context.Context) (*EvolutionSummary, error)
}

// RegisterAreaRequest contains the data needed to register an area.
type RegisterAreaRequest struct {
	Name           string
	CurrentVersion string
	MetricNames    []string
	Priority       int
}

// StartExperimentRequest contains the data needed to start an experiment.
type StartExperimentRequest struct {
	Area       string
	Hypothesis string
	Treatment  map[string]any
}

// CompleteExperimentRequest reports an experiment outcome.
type CompleteExperimentRequest struct {
	Area        string
	Success     bool
	Improvement float64
	NewVersion  string // optional; triggers a version upgrade on success
}

// AreaReport summarizes one area's evolution.
type AreaReport struct {
	Area                  string
	CurrentVersion        string
	Priority              int
	TotalExperiments      int
	SuccessfulExperiments int
	SuccessRate           float64
	TotalImprovement      float64
	VersionCount          int
}

// EvolutionSummary aggregates reports across all areas.
type EvolutionSummary struct {
	TotalAreas            int
	TotalExperiments      int
	SuccessfulExperiments int
	OverallSuccessRate    float64
	TotalImprovement      float64
	Areas                 []AreaReport
}
