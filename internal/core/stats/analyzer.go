// Package stats contains the pure statistical decision logic for
// experiment analysis. Functions here never perform I/O and never
// mutate their inputs; degenerate data (zero variance, zero control
// mean, tiny samples) produces a defined verdict instead of an error.
package stats

import (
	"math"

	"github.com/example/evo/internal/models"
)

const (
	// significanceLevel is the two-tailed alpha for the deploy/rollback
	// decision.
	significanceLevel = 0.05

	// varianceFloor keeps the standard error finite for zero-variance
	// samples.
	varianceFloor = 1e-10

	// minSampleWarning is the per-variant sample size below which the
	// verdict carries an insufficient_sample_size warning.
	minSampleWarning = 30

	// maxConfidence caps the reported confidence for significant results.
	maxConfidence = 0.99
)

// Analyze compares a treatment against control using Welch's
// unequal-variance t-test and returns the full verdict: significance,
// effect size, confidence interval, and a deploy/rollback/continue/
// no_change recommendation.
func Analyze(control, treatment models.SampleSummary) models.Verdict {
	improvement := treatment.Mean - control.Mean

	relative := 0.0
	if control.Mean != 0 {
		relative = improvement / math.Abs(control.Mean)
	}

	t, df, se := welch(control, treatment)
	p := pValue(math.Abs(t), df)
	significant := p < significanceLevel

	verdict := models.Verdict{
		PValue:              p,
		Significant:         significant,
		Improvement:         improvement,
		RelativeImprovement: relative,
		EffectSize:          cohensD(control, treatment),
		TestStatistic:       t,
		DegreesOfFreedom:    df,
		HasRegression:       improvement < 0 && significant,
		ConfidenceInterval: models.ConfidenceInterval{
			Lower: improvement - normalCritical95*se,
			Upper: improvement + normalCritical95*se,
			Level: 0.95,
		},
	}

	switch {
	case improvement == 0:
		verdict.Recommendation = models.RecommendNoChange
		verdict.Confidence = 1.0
	case significant && improvement > 0:
		verdict.Recommendation = models.RecommendDeploy
		verdict.Confidence = math.Min(maxConfidence, 1-p)
	case significant && improvement < 0:
		verdict.Recommendation = models.RecommendRollback
		verdict.Confidence = math.Min(maxConfidence, 1-p)
	default:
		verdict.Recommendation = models.RecommendContinue
		verdict.Confidence = 0.5
	}

	if control.N < minSampleWarning || treatment.N < minSampleWarning {
		verdict.Warnings = append(verdict.Warnings, models.WarningInsufficientSampleSize)
	}

	return verdict
}
