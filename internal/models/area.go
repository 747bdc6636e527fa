// Package models contains domain types for evolution engine entities.
// SQL persistence lives in internal/adapters/sqlite/*.go
package models

import "time"

// Area represents a named subsystem that can be independently
// experimented on and versioned.
type Area struct {
	Name              string
	CurrentVersion    string
	MetricNames       []string
	Priority          int // lower = more urgent
	VersionHistory    []VersionRecord
	ActiveExperiments int
	TotalExperiments  int
	SuccessRate       float64
	LastExperimentAt  time.Time // zero when no experiment has started yet
	RegisteredAt      time.Time
}

// VersionRecord is one append-only entry in an area's version history.
// The first record is the baseline captured at registration.
type VersionRecord struct {
	Version     string
	Timestamp   time.Time
	Improvement float64 // zero for the baseline record
}

// Opportunity is a detected, quantified potential improvement in some
// metric for some area. Immutable input produced by an external detector.
type Opportunity struct {
	Area         string
	Metric       string
	CurrentValue float64
	TargetValue  float64
	Confidence   float64
	Impact       string
}

// Opportunity impact levels.
const (
	ImpactCritical = "critical"
	ImpactHigh     = "high"
	ImpactMedium   = "medium"
	ImpactLow      = "low"
)
