package stats

import (
	"math"

	"github.com/example/evo/internal/models"
)

// normalCritical95 is the two-tailed 95% critical value of the standard
// normal distribution, used for the confidence interval in place of the
// exact t critical value.
const normalCritical95 = 1.96

// welch computes the Welch t statistic, the Welch-Satterthwaite degrees
// of freedom, and the standard error of the mean difference. Variances
// are floored so zero-variance samples stay finite.
func welch(control, treatment models.SampleSummary) (t float64, df int, se float64) {
	nc := math.Max(1, float64(control.N))
	nt := math.Max(1, float64(treatment.N))

	varC := math.Max(control.StdDev*control.StdDev, varianceFloor)
	varT := math.Max(treatment.StdDev*treatment.StdDev, varianceFloor)

	sc := varC / nc
	st := varT / nt
	se = math.Sqrt(sc + st)
	t = (treatment.Mean - control.Mean) / se

	denom := sc*sc/math.Max(1, nc-1) + st*st/math.Max(1, nt-1)
	raw := (sc + st) * (sc + st) / denom
	df = int(math.Floor(math.Max(1, raw)))
	return t, df, se
}

// pValue converts an absolute t statistic and degrees of freedom into a
// two-tailed p-value. Above 100 degrees of freedom the Student-t is
// close enough to normal that the exact CDF is used; below that a
// coarse critical-value table stands in for the t CDF. The table is an
// approximation: it resolves "significant at 0.05 or not" reliably but
// the returned p is a bucket, not an exact probability.
func pValue(t float64, df int) float64 {
	if df > 100 {
		return math.Erfc(t / math.Sqrt2)
	}
	if df >= 30 {
		switch {
		case t >= 2.75:
			return 0.01
		case t >= 2.04:
			return 0.04
		case t >= 1.70:
			return 0.09
		default:
			return 0.5
		}
	}
	switch {
	case t >= 3.0:
		return 0.01
	case t >= 2.0:
		return 0.05
	case t >= 1.5:
		return 0.2
	default:
		return 0.5
	}
}

// cohensD returns the standardized effect size using the pooled
// standard deviation. A zero pooled deviation with differing means is
// reported as 10, a stand-in for "very large effect".
func cohensD(control, treatment models.SampleSummary) float64 {
	nc := float64(control.N)
	nt := float64(treatment.N)
	denom := nc + nt - 2
	if denom <= 0 {
		denom = 1
	}

	pooledVar := ((nc-1)*control.StdDev*control.StdDev + (nt-1)*treatment.StdDev*treatment.StdDev) / denom
	pooled := math.Sqrt(math.Max(0, pooledVar))
	if pooled == 0 {
		if treatment.Mean != control.Mean {
			return 10
		}
		return 0
	}
	return (treatment.Mean - control.Mean) / pooled
}
