package core

// RunDetail is the serializable view of one attempt. Local process handles
// are not serializable and are dropped; the scheduler job ID is kept.
type RunDetail struct {
	AttemptNumber int    `json:"attempt" yaml:"attempt"`
	JobID         string `json:"job_id,omitempty" yaml:"job_id,omitempty"`
	PID           int    `json:"pid,omitempty" yaml:"pid,omitempty"`
	Status        Status `json:"status" yaml:"status"`
}

// ItemDetail is the serializable view of one map item and its attempt
// history.
type ItemDetail struct {
	Filename       string      `json:"filename" yaml:"filename"`
	Status         Status      `json:"status" yaml:"status"`
	CurrentAttempt int         `json:"current_attempt" yaml:"current_attempt"`
	Attempts       []RunDetail `json:"attempts" yaml:"attempts"`
}

// Detail maps the registry to its serializable form.
func Detail(items []*MapItem) []ItemDetail {
	details := make([]ItemDetail, 0, len(items))
	for _, item := range items {
		attempts := make([]RunDetail, 0, len(item.Attempts))
		for _, run := range item.Attempts {
			attempts = append(attempts, RunDetail{
				AttemptNumber: run.AttemptNumber,
				JobID:         run.JobID,
				PID:           run.PID,
				Status:        run.Status,
			})
		}
		details = append(details, ItemDetail{
			Filename:       item.Filename,
			Status:         item.Status,
			CurrentAttempt: item.CurrentAttempt,
			Attempts:       attempts,
		})
	}
	return details
}
