package types

import (
	"time"

	"reportfire/internal/state"
)

// JobInformation is one schedulable unit of recurring report work. The record
// is owned by the scheduler subsystem; everything else reads it through the
// record store.
type JobInformation struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	OwnerRef    string          `json:"owner_ref"`
	Policy      SchedulePolicy  `json:"policy"`
	Status      state.JobStatus `json:"status"`
	WindowStart time.Time       `json:"window_start"`
	WindowEnd   time.Time       `json:"window_end"`
	Active      bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Clone deep-copies the record, including its policy.
func (j *JobInformation) Clone() *JobInformation {
	out := *j
	out.Policy = j.Policy.Clone()
	return &out
}
