// Package wire provides dependency injection for the evo application.
// It creates singleton services with lazy initialization.
package wire

import (
	"log"
	"os"
	"sync"

	"github.com/example/evo/internal/adapters/sqlite"
	"github.com/example/evo/internal/app"
	"github.com/example/evo/internal/config"
	"github.com/example/evo/internal/core/design"
	"github.com/example/evo/internal/core/schedule"
	"github.com/example/evo/internal/db"
	"github.com/example/evo/internal/ports/primary"
)

var (
	schedulerService primary.SchedulerService
	rolloutService   primary.RolloutService
	designer         *design.Designer
	once             sync.Once
)

// SchedulerService returns the singleton SchedulerService instance.
func SchedulerService() primary.SchedulerService {
	once.Do(initServices)
	return schedulerService
}

// RolloutService returns the singleton RolloutService instance.
func RolloutService() primary.RolloutService {
	once.Do(initServices)
	return rolloutService
}

// Designer returns the singleton experiment designer.
func Designer() *design.Designer {
	once.Do(initServices)
	return designer
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	// Get database connection
	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// Create repository adapters (secondary ports) - sqlite adapters with injected DB
	areaRepo := sqlite.NewAreaRepository(database)
	experimentRepo := sqlite.NewExperimentRepository(database)
	deploymentRepo := sqlite.NewDeploymentRepository(database)
	configStore := sqlite.NewConfigStore(database)

	// Scheduler limits come from .evo/config.json when present
	limits := loadLimits()

	// Create services (primary ports implementation)
	scheduler, err := app.NewSchedulerService(areaRepo, experimentRepo, limits)
	if err != nil {
		log.Fatalf("failed to initialize scheduler: %v", err)
	}
	schedulerService = scheduler
	rolloutService = app.NewRolloutService(deploymentRepo, configStore)
	designer = design.NewDesigner()
}

// loadLimits reads scheduler limits from the working directory's config,
// falling back to defaults when no config exists.
func loadLimits() schedule.Limits {
	cwd, err := os.Getwd()
	if err != nil {
		return schedule.DefaultLimits()
	}
	cfg, err := config.LoadConfig(cwd)
	if err != nil {
		return schedule.DefaultLimits()
	}
	limits, err := cfg.Limits()
	if err != nil {
		log.Fatalf("invalid scheduler limits in config: %v", err)
	}
	return limits
}
