package core

// Status is the lifecycle status of a map item, a run, or a whole step.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusRunning  Status = "RUNNING"
	StatusFinished Status = "FINISHED"
	StatusFailed   Status = "FAILED"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusFailed
}

// Aggregate derives the step status from all map items. Any RUNNING or
// PENDING item keeps the step RUNNING; otherwise a single FAILED item fails
// the step; FINISHED requires every item to have finished.
func Aggregate(items []*MapItem) Status {
	failed := false
	for _, item := range items {
		switch item.Status {
		case StatusRunning, StatusPending:
			return StatusRunning
		case StatusFailed:
			failed = true
		}
	}
	if failed {
		return StatusFailed
	}
	return StatusFinished
}
