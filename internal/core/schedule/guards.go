// Package schedule contains the pure business logic for experiment
// scheduling. Guards are pure functions that evaluate preconditions
// without side effects; the service layer holds the lock and applies
// the outcome.
package schedule

import (
	"fmt"
	"math"
	"time"

	"github.com/example/evo/internal/models"
)

// Default scheduler limits.
const (
	DefaultMaxConcurrent = 3
	DefaultMinGap        = 24 * time.Hour
)

// GuardResult represents the outcome of a guard evaluation. Kind
// carries the sentinel error classifying a refusal so callers can
// match with errors.Is.
type GuardResult struct {
	Allowed bool
	Reason  string
	Kind    error
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	if r.Kind != nil {
		return fmt.Errorf("%w: %s", r.Kind, r.Reason)
	}
	return fmt.Errorf("%s", r.Reason)
}

// Limits holds the global scheduling constraints.
type Limits struct {
	MaxConcurrent int
	MinGap        time.Duration
}

// DefaultLimits returns the standard constraints: three concurrent
// experiments, 24 hours between starts in the same area.
func DefaultLimits() Limits {
	return Limits{MaxConcurrent: DefaultMaxConcurrent, MinGap: DefaultMinGap}
}

// ValidateLimits rejects configurations that could never schedule
// anything.
func ValidateLimits(l Limits) GuardResult {
	if l.MaxConcurrent <= 0 {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("max concurrent experiments must be positive, got %d", l.MaxConcurrent),
			Kind:    models.ErrInvalidConfig,
		}
	}
	return GuardResult{Allowed: true}
}

// StartExperimentContext provides context for experiment start guards.
type StartExperimentContext struct {
	Area             string
	AreaExists       bool
	UnpausedActive   int // non-paused experiments currently running system-wide
	MaxConcurrent    int
	LastExperimentAt time.Time // zero when the area has never run one
	MinGap           time.Duration
	Now              time.Time
}

// CanStartExperiment evaluates whether an experiment may start.
// Rules:
// - Area must be registered
// - Global unpaused concurrency must be below the limit
// - The area's minimum experiment gap must have elapsed
func CanStartExperiment(ctx StartExperimentContext) GuardResult {
	if !ctx.AreaExists {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("area %s not found", ctx.Area),
			Kind:    models.ErrAreaNotFound,
		}
	}
	if ctx.UnpausedActive >= ctx.MaxConcurrent {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("%d experiments already running (limit %d)", ctx.UnpausedActive, ctx.MaxConcurrent),
			Kind:    models.ErrMaxConcurrent,
		}
	}
	if !ctx.LastExperimentAt.IsZero() {
		elapsed := ctx.Now.Sub(ctx.LastExperimentAt)
		if elapsed < ctx.MinGap {
			return GuardResult{
				Allowed: false,
				Reason: fmt.Sprintf("area %s started an experiment %s ago (gap %s)",
					ctx.Area, elapsed.Round(time.Second), ctx.MinGap),
				Kind: models.ErrCooldownActive,
			}
		}
	}
	return GuardResult{Allowed: true}
}

// AreaCandidate is the scheduling view of an area used for next-
// experiment selection.
type AreaCandidate struct {
	Name             string
	Priority         int // lower = more urgent
	LastExperimentAt time.Time
}

// PickNext returns the name of the most urgent area whose cooldown has
// elapsed. Candidates must be supplied in registration order; ties on
// priority keep that order. ok is false when no area is eligible.
func PickNext(candidates []AreaCandidate, minGap time.Duration, now time.Time) (name string, ok bool) {
	best := -1
	for i, c := range candidates {
		if !c.LastExperimentAt.IsZero() && now.Sub(c.LastExperimentAt) < minGap {
			continue
		}
		if best == -1 || c.Priority < candidates[best].Priority {
			best = i
		}
	}
	if best == -1 {
		return "", false
	}
	return candidates[best].Name, true
}

// SuccessRateAfter folds one experiment outcome into the running
// success rate. total is the experiment count including the one being
// completed.
func SuccessRateAfter(prevRate float64, total int, success bool) float64 {
	if total <= 0 {
		return 0
	}
	successes := math.Round(prevRate * float64(total-1))
	if success {
		successes++
	}
	return successes / float64(total)
}
