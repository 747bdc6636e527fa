package models

import "time"

// Experiment is the scheduling unit tracked by the evolution scheduler.
// Created by StartExperiment, removed from the active set on completion.
type Experiment struct {
	ID         string
	Area       string
	Hypothesis string
	Treatment  map[string]any
	StartedAt  time.Time
	Paused     bool
}

// Experiment status constants
const (
	ExperimentStatusActive    = "active"
	ExperimentStatusCompleted = "completed"
)

// ExperimentDesign is a fully specified control/treatment experiment
// produced from an opportunity. Immutable once generated.
type ExperimentDesign struct {
	ID              string
	Name            string
	Hypothesis      string
	Area            string
	Metric          string
	Variants        []Variant
	SuccessCriteria SuccessCriteria
	SafetyBounds    SafetyBounds
	SampleConfig    SampleConfig
	CreatedAt       time.Time
}

// Variant is one arm of an experiment with an opaque configuration blob.
type Variant struct {
	Name        string
	Description string
	IsControl   bool
	Config      map[string]any
}

// SuccessCriteria defines what counts as a winning treatment.
type SuccessCriteria struct {
	MinImprovement    float64
	SignificanceLevel float64
	MinSampleSize     int
}

// SafetyBounds limit the acceptable blast radius of an experiment.
type SafetyBounds struct {
	MaxRegression     float64
	RollbackThreshold float64
	MaxErrorRate      float64
}

// SampleConfig drives the sampling plan for the experiment run.
type SampleConfig struct {
	MinSampleSize      int
	MaxDuration        time.Duration
	CheckpointInterval time.Duration
}
