package types

import (
	"time"

	"reportfire/internal/state"
)

// JobLogEntry is one append-only monitoring record of a lifecycle event.
// Entries are immutable once written and reference the job id by value, so
// logs outlive a deleted job for audit.
type JobLogEntry struct {
	ID        string            `json:"id"`
	JobID     string            `json:"job_id"`
	Status    state.LogStatus   `json:"status"`
	Message   string            `json:"message"`
	Timestamp time.Time         `json:"timestamp"`
	Data      map[string]string `json:"data,omitempty"`
}
