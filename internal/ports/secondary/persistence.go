// Package secondary defines the secondary ports (driven adapters) for
// the application. These are the interfaces through which the engine
// drives external systems: persistence and the configuration store.
package secondary

import (
	"context"
	"time"
)

// AreaRepository defines the secondary port for area persistence.
type AreaRepository interface {
	// Create persists a new area.
	Create(ctx context.Context, area *AreaRecord) error

	// GetByName retrieves an area by its name.
	GetByName(ctx context.Context, name string) (*AreaRecord, error)

	// Exists reports whether an area is registered.
	Exists(ctx context.Context, name string) (bool, error)

	// List retrieves all areas in registration order.
	List(ctx context.Context) ([]*AreaRecord, error)

	// Update overwrites the mutable fields of an area.
	Update(ctx context.Context, area *AreaRecord) error

	// AppendVersion adds a version record to an area's history.
	AppendVersion(ctx context.Context, record *VersionRecord) error

	// ListVersions returns an area's version history oldest-first.
	ListVersions(ctx context.Context, areaName string) ([]*VersionRecord, error)
}

// AreaRecord represents an area as stored in persistence.
type AreaRecord struct {
	Name              string
	CurrentVersion    string
	MetricNames       string // JSON array
	Priority          int
	ActiveExperiments int
	TotalExperiments  int
	SuccessRate       float64
	LastExperimentAt  time.Time // zero when never experimented on
	CreatedAt         string
}

// VersionRecord represents one version history entry as stored.
type VersionRecord struct {
	AreaName    string
	Version     string
	Timestamp   time.Time
	Improvement float64
}

// ExperimentRepository defines the secondary port for experiment
// persistence.
type ExperimentRepository interface {
	// Create persists a new experiment with status active.
	Create(ctx context.Context, experiment *ExperimentRecord) error

	// GetActiveByArea retrieves the oldest active experiment for an
	// area, or nil when the area has none.
	GetActiveByArea(ctx context.Context, area string) (*ExperimentRecord, error)

	// ListActive retrieves all active experiments oldest-first.
	ListActive(ctx context.Context) ([]*ExperimentRecord, error)

	// CountUnpausedActive returns the number of active, non-paused
	// experiments system-wide.
	CountUnpausedActive(ctx context.Context) (int, error)

	// Complete marks an experiment completed, removing it from the
	// active set.
	Complete(ctx context.Context, id string, completedAt time.Time) error

	// SetAllPaused toggles the paused flag on every active experiment.
	SetAllPaused(ctx context.Context, paused bool) error

	// GetNextID returns the next available experiment ID.
	GetNextID(ctx context.Context) (string, error)
}

// ExperimentRecord represents an experiment as stored in persistence.
type ExperimentRecord struct {
	ID          string
	Area        string
	Hypothesis  string
	Treatment   string // JSON object
	Status      string
	Paused      bool
	StartedAt   time.Time
	CompletedAt time.Time // zero while active
}

// DeploymentRepository defines the secondary port for deployment
// persistence.
type DeploymentRepository interface {
	// Create persists a new deployment.
	Create(ctx context.Context, deployment *DeploymentRecord) error

	// GetByID retrieves a deployment by its ID.
	GetByID(ctx context.Context, id string) (*DeploymentRecord, error)

	// Update overwrites the mutable fields of a deployment.
	Update(ctx context.Context, deployment *DeploymentRecord) error

	// List retrieves all deployments in insertion order.
	List(ctx context.Context) ([]*DeploymentRecord, error)
}

// DeploymentRecord represents a deployment as stored in persistence.
type DeploymentRecord struct {
	ID                string
	VariantID         string
	Status            string
	CanaryPercent     float64
	CanaryActive      bool
	RollbackPlan      string // JSON object
	CurrentConfig     string // JSON object
	RollbackReason    string
	RollbackThreshold float64
	ErrorRate         float64
	DeployedAt        time.Time
}

// ConfigStore abstracts the external configuration store the engine
// reads and overwrites. Configurations are opaque key/value blobs.
type ConfigStore interface {
	// Get returns the configuration under key, or nil when unset.
	Get(ctx context.Context, key string) (map[string]any, error)

	// Set overwrites the configuration under key.
	Set(ctx context.Context, key string, config map[string]any) error
}
