package app

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/example/evo/internal/core/schedule"
	"github.com/example/evo/internal/models"
	"github.com/example/evo/internal/ports/primary"
	"github.com/example/evo/internal/ports/secondary"
)

// SchedulerServiceImpl implements the SchedulerService interface.
//
// All mutating operations run under one mutex: scheduling decisions are
// read-modify-write against shared counters (global concurrency, per-area
// cooldown) and interleaving them would let two starts both pass the
// concurrency guard.
type SchedulerServiceImpl struct {
	mu             sync.Mutex
	areaRepo       secondary.AreaRepository
	experimentRepo secondary.ExperimentRepository
	limits         schedule.Limits
	nowFn          func() time.Time
}

// NewSchedulerService creates a new SchedulerService with injected
// dependencies.
func NewSchedulerService(areaRepo secondary.AreaRepository, experimentRepo secondary.ExperimentRepository, limits schedule.Limits) (*SchedulerServiceImpl, error) {
	if guard := schedule.ValidateLimits(limits); !guard.Allowed {
		return nil, guard.Error()
	}
	return &SchedulerServiceImpl{
		areaRepo:       areaRepo,
		experimentRepo: experimentRepo,
		limits:         limits,
		nowFn:          time.Now,
	}, nil
}

// RegisterArea registers a subsystem for evolution. The current version
// becomes the first entry of the area's version history.
func (s *SchedulerServiceImpl) RegisterArea(ctx context.Context, req primary.RegisterAreaRequest) (*models.Area, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Name == "" {
		return nil, fmt.Errorf("%w: area name is required", models.ErrInvalidConfig)
	}
	if req.CurrentVersion == "" {
		return nil, fmt.Errorf("%w: current version is required", models.ErrInvalidConfig)
	}

	exists, err := s.areaRepo.Exists(ctx, req.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to check area existence: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("area %s already registered", req.Name)
	}

	metricNames, err := json.Marshal(req.MetricNames)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metric names: %w", err)
	}

	record := &secondary.AreaRecord{
		Name:           req.Name,
		CurrentVersion: req.CurrentVersion,
		MetricNames:    string(metricNames),
		Priority:       req.Priority,
	}
	if err := s.areaRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	// Baseline version record
	baseline := &secondary.VersionRecord{
		AreaName:  req.Name,
		Version:   req.CurrentVersion,
		Timestamp: s.nowFn(),
	}
	if err := s.areaRepo.AppendVersion(ctx, baseline); err != nil {
		return nil, err
	}

	return s.loadArea(ctx, req.Name)
}

// NextExperiment picks the most urgent area whose cooldown has elapsed.
// Returns nil when no area is eligible.
func (s *SchedulerServiceImpl) NextExperiment(ctx context.Context) (*models.Area, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.areaRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]schedule.AreaCandidate, len(records))
	for i, r := range records {
		candidates[i] = schedule.AreaCandidate{
			Name:             r.Name,
			Priority:         r.Priority,
			LastExperimentAt: r.LastExperimentAt,
		}
	}

	name, ok := schedule.PickNext(candidates, s.limits.MinGap, s.nowFn())
	if !ok {
		return nil, nil
	}

	return s.loadArea(ctx, name)
}

// StartExperiment begins an experiment in an area, enforcing the global
// concurrency limit and the area cooldown.
func (s *SchedulerServiceImpl) StartExperiment(ctx context.Context, req primary.StartExperimentRequest) (*models.Experiment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.areaRepo.Exists(ctx, req.Area)
	if err != nil {
		return nil, fmt.Errorf("failed to check area existence: %w", err)
	}

	unpaused, err := s.experimentRepo.CountUnpausedActive(ctx)
	if err != nil {
		return nil, err
	}

	var lastExperimentAt time.Time
	if exists {
		record, err := s.areaRepo.GetByName(ctx, req.Area)
		if err != nil {
			return nil, err
		}
		lastExperimentAt = record.LastExperimentAt
	}

	now := s.nowFn()
	guard := schedule.CanStartExperiment(schedule.StartExperimentContext{
		Area:             req.Area,
		AreaExists:       exists,
		UnpausedActive:   unpaused,
		MaxConcurrent:    s.limits.MaxConcurrent,
		LastExperimentAt: lastExperimentAt,
		MinGap:           s.limits.MinGap,
		Now:              now,
	})
	if !guard.Allowed {
		return nil, guard.Error()
	}

	id, err := s.experimentRepo.GetNextID(ctx)
	if err != nil {
		return nil, err
	}

	treatment, err := json.Marshal(req.Treatment)
	if err != nil {
		return nil, fmt.Errorf("failed to encode treatment: %w", err)
	}

	experiment := &secondary.ExperimentRecord{
		ID:         id,
		Area:       req.Area,
		Hypothesis: req.Hypothesis,
		Treatment:  string(treatment),
		StartedAt:  now,
	}
	if err := s.experimentRepo.Create(ctx, experiment); err != nil {
		return nil, err
	}

	// Fold the start into the area's scheduling state
	record, err := s.areaRepo.GetByName(ctx, req.Area)
	if err != nil {
		return nil, err
	}
	record.ActiveExperiments++
	record.LastExperimentAt = now
	if err := s.areaRepo.Update(ctx, record); err != nil {
		return nil, err
	}

	return recordToExperiment(experiment)
}

// CompleteExperiment finishes the area's active experiment and folds the
// outcome into the area's statistics. A successful outcome carrying a
// new version also upgrades the area.
func (s *SchedulerServiceImpl) CompleteExperiment(ctx context.Context, req primary.CompleteExperimentRequest) (*models.Area, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.areaRepo.GetByName(ctx, req.Area)
	if err != nil {
		return nil, err
	}

	active, err := s.experimentRepo.GetActiveByArea(ctx, req.Area)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, fmt.Errorf("area %s has no active experiment", req.Area)
	}

	now := s.nowFn()
	if err := s.experimentRepo.Complete(ctx, active.ID, now); err != nil {
		return nil, err
	}

	if record.ActiveExperiments > 0 {
		record.ActiveExperiments--
	}
	record.TotalExperiments++
	record.SuccessRate = schedule.SuccessRateAfter(record.SuccessRate, record.TotalExperiments, req.Success)

	if req.Success && req.NewVersion != "" {
		record.CurrentVersion = req.NewVersion
		version := &secondary.VersionRecord{
			AreaName:    req.Area,
			Version:     req.NewVersion,
			Timestamp:   now,
			Improvement: req.Improvement,
		}
		if err := s.areaRepo.AppendVersion(ctx, version); err != nil {
			return nil, err
		}
	}

	if err := s.areaRepo.Update(ctx, record); err != nil {
		return nil, err
	}

	return s.loadArea(ctx, req.Area)
}

// UpgradeVersion moves an area to a new version, appending to its history.
func (s *SchedulerServiceImpl) UpgradeVersion(ctx context.Context, area, newVersion string, improvement float64) (*models.Area, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.areaRepo.GetByName(ctx, area)
	if err != nil {
		return nil, err
	}

	record.CurrentVersion = newVersion
	if err := s.areaRepo.Update(ctx, record); err != nil {
		return nil, err
	}

	version := &secondary.VersionRecord{
		AreaName:    area,
		Version:     newVersion,
		Timestamp:   s.nowFn(),
		Improvement: improvement,
	}
	if err := s.areaRepo.AppendVersion(ctx, version); err != nil {
		return nil, err
	}

	return s.loadArea(ctx, area)
}

// RollbackToVersion points an area back at an earlier version. The
// version must appear in the area's history; history is never truncated.
func (s *SchedulerServiceImpl) RollbackToVersion(ctx context.Context, area, version string) (*models.Area, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.areaRepo.GetByName(ctx, area)
	if err != nil {
		return nil, err
	}

	history, err := s.areaRepo.ListVersions(ctx, area)
	if err != nil {
		return nil, err
	}
	found := false
	for _, v := range history {
		if v.Version == version {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("version %s not found in history of area %s", version, area)
	}

	record.CurrentVersion = version
	if err := s.areaRepo.Update(ctx, record); err != nil {
		return nil, err
	}

	return s.loadArea(ctx, area)
}

// PauseAll pauses every tracked experiment. Paused experiments stay
// active but stop counting toward the concurrency limit.
func (s *SchedulerServiceImpl) PauseAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.experimentRepo.SetAllPaused(ctx, true)
}

// ResumeAll resumes every tracked experiment.
func (s *SchedulerServiceImpl) ResumeAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.experimentRepo.SetAllPaused(ctx, false)
}

// ListAreas returns all registered areas in registration order.
func (s *SchedulerServiceImpl) ListAreas(ctx context.Context) ([]*models.Area, error) {
	records, err := s.areaRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	areas := make([]*models.Area, len(records))
	for i, r := range records {
		versions, err := s.areaRepo.ListVersions(ctx, r.Name)
		if err != nil {
			return nil, err
		}
		area, err := recordToArea(r, versions)
		if err != nil {
			return nil, err
		}
		areas[i] = area
	}
	return areas, nil
}

// ListActiveExperiments returns all active experiments oldest-first.
func (s *SchedulerServiceImpl) ListActiveExperiments(ctx context.Context) ([]*models.Experiment, error) {
	records, err := s.experimentRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	experiments := make([]*models.Experiment, len(records))
	for i, r := range records {
		experiment, err := recordToExperiment(r)
		if err != nil {
			return nil, err
		}
		experiments[i] = experiment
	}
	return experiments, nil
}

// Report summarizes one area's evolution to date.
func (s *SchedulerServiceImpl) Report(ctx context.Context, area string) (*primary.AreaReport, error) {
	record, err := s.areaRepo.GetByName(ctx, area)
	if err != nil {
		return nil, err
	}
	versions, err := s.areaRepo.ListVersions(ctx, area)
	if err != nil {
		return nil, err
	}
	return buildReport(record, versions), nil
}

// Summary aggregates every area's report.
func (s *SchedulerServiceImpl) Summary(ctx context.Context) (*primary.EvolutionSummary, error) {
	records, err := s.areaRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	summary := &primary.EvolutionSummary{TotalAreas: len(records)}
	for _, r := range records {
		versions, err := s.areaRepo.ListVersions(ctx, r.Name)
		if err != nil {
			return nil, err
		}
		report := buildReport(r, versions)
		summary.Areas = append(summary.Areas, *report)
		summary.TotalExperiments += report.TotalExperiments
		summary.SuccessfulExperiments += report.SuccessfulExperiments
		summary.TotalImprovement += report.TotalImprovement
	}
	if summary.TotalExperiments > 0 {
		summary.OverallSuccessRate = float64(summary.SuccessfulExperiments) / float64(summary.TotalExperiments)
	}
	return summary, nil
}

// Helper methods

func (s *SchedulerServiceImpl) loadArea(ctx context.Context, name string) (*models.Area, error) {
	record, err := s.areaRepo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	versions, err := s.areaRepo.ListVersions(ctx, name)
	if err != nil {
		return nil, err
	}
	return recordToArea(record, versions)
}

func buildReport(record *secondary.AreaRecord, versions []*secondary.VersionRecord) *primary.AreaReport {
	report := &primary.AreaReport{
		Area:                  record.Name,
		CurrentVersion:        record.CurrentVersion,
		Priority:              record.Priority,
		TotalExperiments:      record.TotalExperiments,
		SuccessfulExperiments: int(math.Round(record.SuccessRate * float64(record.TotalExperiments))),
		SuccessRate:           record.SuccessRate,
		VersionCount:          len(versions),
	}
	for _, v := range versions {
		report.TotalImprovement += v.Improvement
	}
	return report
}

func recordToArea(r *secondary.AreaRecord, versions []*secondary.VersionRecord) (*models.Area, error) {
	var metricNames []string
	if r.MetricNames != "" {
		if err := json.Unmarshal([]byte(r.MetricNames), &metricNames); err != nil {
			return nil, fmt.Errorf("failed to decode metric names for area %s: %w", r.Name, err)
		}
	}

	area := &models.Area{
		Name:              r.Name,
		CurrentVersion:    r.CurrentVersion,
		MetricNames:       metricNames,
		Priority:          r.Priority,
		ActiveExperiments: r.ActiveExperiments,
		TotalExperiments:  r.TotalExperiments,
		SuccessRate:       r.SuccessRate,
		LastExperimentAt:  r.LastExperimentAt,
	}
	if r.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, r.CreatedAt); err == nil {
			area.RegisteredAt = t
		}
	}
	for _, v := range versions {
		area.VersionHistory = append(area.VersionHistory, models.VersionRecord{
			Version:     v.Version,
			Timestamp:   v.Timestamp,
			Improvement: v.Improvement,
		})
	}
	return area, nil
}

func recordToExperiment(r *secondary.ExperimentRecord) (*models.Experiment, error) {
	var treatment map[string]any
	if r.Treatment != "" {
		if err := json.Unmarshal([]byte(r.Treatment), &treatment); err != nil {
			return nil, fmt.Errorf("failed to decode treatment for experiment %s: %w", r.ID, err)
		}
	}
	return &models.Experiment{
		ID:         r.ID,
		Area:       r.Area,
		Hypothesis: r.Hypothesis,
		Treatment:  treatment,
		StartedAt:  r.StartedAt,
		Paused:     r.Paused,
	}, nil
}

// Ensure SchedulerServiceImpl implements the interface
var _ primary.SchedulerService = (*SchedulerServiceImpl)(nil)
