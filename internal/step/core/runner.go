package core

import "github.com/google/uuid"

// Runner is the capability contract every step variant implements. Variants
// own their map-item registry and injected collaborators; there is no shared
// mutable base state.
//
// Callers must not invoke Run, CheckRunningJobs, or RetryFailed concurrently
// on the same instance. The usual sequence is Initialize, Run, then
// CheckRunningJobs repeatedly until Status is terminal, with RetryFailed
// consulted when items fail.
type Runner interface {
	// ID identifies the step instance in the status store.
	ID() uuid.UUID

	// Initialize validates the execution context, prepares the output
	// location, and builds the map-item registry from the map location.
	Initialize() error

	// Run submits one job per map item, in registry order, failing fast on
	// the first submission error.
	Run() error

	// CheckRunningJobs reconciles every item's current attempt with the
	// observed scheduler or process state. Per-item inspection failures mark
	// only that item FAILED; the sweep itself never fails.
	CheckRunningJobs() error

	// RetryFailed resubmits FAILED items as new attempts on variants that
	// support it, or reports ErrUnsupported.
	RetryFailed() error

	// Status is the derived aggregate step status.
	Status() Status

	// SerializeDetail returns the registry in serializable form.
	SerializeDetail() []ItemDetail
}

// StatusStore persists step-level status. Implementations live outside the
// step core; the in-memory store is used by the CLI and tests.
type StatusStore interface {
	Update(stepID uuid.UUID, status Status, msg string) error
	SaveDetail(stepID uuid.UUID, detail []ItemDetail) error
}
