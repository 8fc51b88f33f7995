package core

import "errors"

// Error kinds for step failures. Callers classify with errors.Is; messages
// carry the failing location or item.
var (
	// ErrConfiguration marks an execution-context mismatch or a missing
	// application definition section. Fatal at initialization.
	ErrConfiguration = errors.New("invalid step configuration")

	// ErrAddressing marks an unsupported location scheme.
	ErrAddressing = errors.New("unsupported location scheme")

	// ErrStorage marks a location creation or listing failure.
	ErrStorage = errors.New("storage operation failed")

	// ErrSubmission marks a job submission rejected or failed by the driver.
	// Fatal for the whole step.
	ErrSubmission = errors.New("job submission failed")

	// ErrInspection marks a transient failure observing a job or process.
	// Recovered per item during polling.
	ErrInspection = errors.New("job inspection failed")

	// ErrUnsupported marks an operation the step variant does not provide.
	ErrUnsupported = errors.New("operation not supported")
)
