// Package gridengine implements the step variant that submits map-item jobs
// to a Grid Engine batch scheduler through an injected Driver.
package gridengine

// JobState classifies what the scheduler reports for a submitted job.
type JobState string

const (
	// JobStateRunning covers queued, held, and executing jobs.
	JobStateRunning JobState = "RUNNING"
	// JobStateDone means the job left the queue with a clean exit.
	JobStateDone JobState = "DONE"
	// JobStateFailed means the job left the queue with a failure indicator.
	JobStateFailed JobState = "FAILED"
)

// Template is a scheduler job template. Fields are set by the submitter
// before the template is handed back to the driver.
type Template struct {
	// RemoteCommand is the full command the scheduler executes.
	RemoteCommand string
	// NativeSpecification is the scheduler-specific resource request string,
	// passed through verbatim.
	NativeSpecification string
}

// Driver abstracts a batch scheduler's submission API. Implementations wrap
// DRMAA-style sessions or the scheduler's command-line tools. The driver is
// injected at step construction so tests can substitute a fake.
//
// Submit and JobState block on the external scheduler.
type Driver interface {
	NewTemplate() *Template
	Submit(t *Template) (jobID string, err error)
	DeleteTemplate(t *Template) error
	JobState(jobID string) (JobState, error)
}
