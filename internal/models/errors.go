package models

import "errors"

// Typed failure kinds returned by the engine. Callers match with
// errors.Is; every error is recoverable by the caller (retry after the
// cooldown, free a slot, fix the configuration) except ErrAlreadyRolledBack,
// which signals a caller logic bug rather than a transient condition.
var (
	// ErrInvalidConfig covers bad engine limits and out-of-range canary
	// percentages.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrAreaNotFound is returned when an operation references an
	// unregistered area name.
	ErrAreaNotFound = errors.New("area not found")

	// ErrDeploymentNotFound is returned for unknown deployment ids.
	ErrDeploymentNotFound = errors.New("deployment not found")

	// ErrMaxConcurrent is returned when starting an experiment would
	// exceed the global concurrency limit.
	ErrMaxConcurrent = errors.New("maximum concurrent experiments reached")

	// ErrCooldownActive is returned when an area's minimum experiment
	// gap has not elapsed.
	ErrCooldownActive = errors.New("minimum experiment gap not met")

	// ErrAlreadyRolledBack is returned on a second rollback attempt for
	// the same deployment.
	ErrAlreadyRolledBack = errors.New("deployment already rolled back")
)
