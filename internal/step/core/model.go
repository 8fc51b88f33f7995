package core

// ProcessHandle observes one locally spawned process. Terminal state is
// reported through ExitCode once the process has been reaped.
type ProcessHandle interface {
	// Alive reports whether the process is still running.
	Alive() bool
	// ExitCode returns the process exit code. ok is false while the process
	// is running or when the code could not be collected.
	ExitCode() (code int, ok bool)
}

// Run is one submission attempt of a map item. Exactly one of JobID and
// Process is set, depending on the step's execution context.
type Run struct {
	AttemptNumber int
	// JobID is the scheduler-assigned job identifier for remote contexts.
	JobID string
	// Process is the local process handle for local contexts. It is kept in
	// memory only and never serialized; PID is what survives serialization.
	Process ProcessHandle
	PID     int
	Status  Status
}

// MapItem is one independently schedulable unit of work derived from a
// single entry of the map location.
type MapItem struct {
	Filename       string
	Template       map[string]string
	Status         Status
	Attempts       []*Run
	CurrentAttempt int
}

// NewMapItem creates an item in PENDING state with no attempts.
func NewMapItem(filename string, template map[string]string) *MapItem {
	return &MapItem{
		Filename: filename,
		Template: template,
		Status:   StatusPending,
	}
}

// AppendRun records a new attempt and makes it current. Attempt numbers are
// contiguous starting at zero.
func (mi *MapItem) AppendRun(run *Run) {
	run.AttemptNumber = len(mi.Attempts)
	mi.Attempts = append(mi.Attempts, run)
	mi.CurrentAttempt = run.AttemptNumber
}

// CurrentRun returns the active attempt, or nil before first submission.
func (mi *MapItem) CurrentRun() *Run {
	if len(mi.Attempts) == 0 {
		return nil
	}
	return mi.Attempts[mi.CurrentAttempt]
}

// SetStatus updates the item status together with its current run, keeping
// the two in lockstep.
func (mi *MapItem) SetStatus(status Status) {
	mi.Status = status
	if run := mi.CurrentRun(); run != nil {
		run.Status = status
	}
}
