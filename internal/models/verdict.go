package models

// SampleSummary holds the aggregate statistics for one variant.
// Raw observations never enter the engine.
type SampleSummary struct {
	Mean   float64
	StdDev float64
	N      int
}

// ConfidenceInterval bounds the estimated improvement.
type ConfidenceInterval struct {
	Lower float64
	Upper float64
	Level float64
}

// Verdict is the full result of comparing a treatment against control.
// Computed fresh per analysis; never stored.
type Verdict struct {
	Significant         bool
	PValue              float64
	EffectSize          float64
	Improvement         float64
	RelativeImprovement float64
	ConfidenceInterval  ConfidenceInterval
	Recommendation      string
	Confidence          float64
	HasRegression       bool
	TestStatistic       float64
	DegreesOfFreedom    int
	Warnings            []string
}

// Recommendation constants
const (
	RecommendDeploy   = "deploy"
	RecommendRollback = "rollback"
	RecommendContinue = "continue"
	RecommendNoChange = "no_change"
)

// Analysis warnings
const (
	WarningInsufficientSampleSize = "insufficient_sample_size"
)
