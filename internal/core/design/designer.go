// Package design turns improvement opportunities into fully specified
// control/treatment experiments: variant configurations, success
// criteria, safety bounds, and a sampling plan.
package design

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/example/evo/internal/models"
)

const (
	// baseSampleSize anchors the minimum sample size scaling.
	baseSampleSize = 100

	// maxDuration bounds an experiment run; enforcement is caller-driven.
	maxDuration = 7 * 24 * time.Hour

	// checkpointInterval is how often the host should collect interim
	// sample summaries.
	checkpointInterval = time.Hour
)

// Designer generates experiment designs. Treatment construction is
// dispatched through a registry of per-area strategies so new areas can
// be added without touching the designer itself.
type Designer struct {
	strategies map[string]TreatmentStrategy
	nowFn      func() time.Time
	idFn       func() string
}

// NewDesigner constructs a designer preloaded with the built-in area
// strategies.
func NewDesigner() *Designer {
	d := &Designer{
		strategies: make(map[string]TreatmentStrategy),
		nowFn:      time.Now,
		idFn:       func() string { return "design-" + uuid.NewString() },
	}
	for area, strategy := range builtinStrategies() {
		d.strategies[area] = strategy
	}
	return d
}

// RegisterStrategy installs or replaces the treatment strategy for an
// area.
func (d *Designer) RegisterStrategy(area string, strategy TreatmentStrategy) {
	d.strategies[area] = strategy
}

// Generate produces an experiment design for the opportunity. It
// succeeds for every input: unknown impact levels fall back to the
// least strict safety profile, and areas without a registered strategy
// get the generic experimental-mode treatment.
func (d *Designer) Generate(opp models.Opportunity) models.ExperimentDesign {
	control := controlConfig(opp.Area)

	strategy, ok := d.strategies[opp.Area]
	if !ok {
		strategy = experimentalModeStrategy
	}
	treatment := strategy(cloneConfig(control), opp)

	delta := math.Abs(opp.TargetValue - opp.CurrentValue)
	minSamples := minSampleSize(opp)

	return models.ExperimentDesign{
		ID:         d.idFn(),
		Name:       fmt.Sprintf("%s %s improvement", opp.Area, opp.Metric),
		Hypothesis: hypothesis(opp),
		Area:       opp.Area,
		Metric:     opp.Metric,
		Variants: []models.Variant{
			{
				Name:        "control",
				Description: "current configuration",
				IsControl:   true,
				Config:      control,
			},
			{
				Name:        "treatment",
				Description: fmt.Sprintf("candidate configuration targeting %s=%v", opp.Metric, opp.TargetValue),
				IsControl:   false,
				Config:      treatment,
			},
		},
		SuccessCriteria: models.SuccessCriteria{
			MinImprovement:    delta * 0.5, // half the targeted delta counts as success
			SignificanceLevel: 0.05,
			MinSampleSize:     minSamples,
		},
		SafetyBounds: safetyBounds(opp.Impact),
		SampleConfig: models.SampleConfig{
			MinSampleSize:      minSamples,
			MaxDuration:        maxDuration,
			CheckpointInterval: checkpointInterval,
		},
		CreatedAt: d.nowFn(),
	}
}

func hypothesis(opp models.Opportunity) string {
	direction := "improve"
	if opp.TargetValue < opp.CurrentValue {
		direction = "reduce"
	}
	return fmt.Sprintf("adjusting %s will %s %s from %v to %v",
		opp.Area, direction, opp.Metric, opp.CurrentValue, opp.TargetValue)
}

// minSampleSize scales inversely with the relative effect size: small
// effects need far more samples to detect.
func minSampleSize(opp models.Opportunity) int {
	relative := 1.0
	if opp.CurrentValue != 0 {
		relative = math.Abs(opp.TargetValue-opp.CurrentValue) / math.Abs(opp.CurrentValue)
	}
	switch {
	case relative < 0.05:
		return baseSampleSize * 15
	case relative < 0.10:
		return baseSampleSize * 10
	case relative < 0.20:
		return baseSampleSize * 5
	default:
		return baseSampleSize * 2
	}
}

// safetyBounds tighten with impact; unknown impact levels get the least
// strict profile.
func safetyBounds(impact string) models.SafetyBounds {
	switch impact {
	case models.ImpactCritical:
		return models.SafetyBounds{MaxRegression: 0.02, RollbackThreshold: 0.05, MaxErrorRate: 0.01}
	case models.ImpactHigh:
		return models.SafetyBounds{MaxRegression: 0.05, RollbackThreshold: 0.10, MaxErrorRate: 0.02}
	default:
		return models.SafetyBounds{MaxRegression: 0.10, RollbackThreshold: 0.15, MaxErrorRate: 0.05}
	}
}
