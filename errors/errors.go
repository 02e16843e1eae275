package errors

import (
	"errors"
	"fmt"
)

// InvalidScheduleError rejects a schedule policy before anything is persisted:
// a cron expression that fails to parse, a negative interval or offset, or a
// policy with zero or more than one variant populated.
type InvalidScheduleError struct {
	Reason string
}

func (e *InvalidScheduleError) Error() string {
	return fmt.Sprintf("invalid schedule: %s", e.Reason)
}

// AlreadyExistsError is returned when a trigger is scheduled under an
// (id, group) pair that is already registered with the runtime.
type AlreadyExistsError struct {
	ID    string
	Group string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("job %q is already scheduled in group %q", e.ID, e.Group)
}

// NotFoundError is returned for operations against an unknown job id.
type NotFoundError struct {
	ID    string
	Group string
}

func (e *NotFoundError) Error() string {
	if e.Group != "" {
		return fmt.Sprintf("job %q not found in group %q", e.ID, e.Group)
	}
	return fmt.Sprintf("job %q not found", e.ID)
}

// IsNotFound reports whether err is a NotFoundError anywhere in its chain.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// PauseError wraps a runtime-level failure to pause a trigger. Callers may
// treat it as transient and retry.
type PauseError struct {
	ID  string
	Err error
}

func (e *PauseError) Error() string {
	return fmt.Sprintf("failed to pause job %q: %v", e.ID, e.Err)
}

func (e *PauseError) Unwrap() error { return e.Err }

// ResumeError wraps a runtime-level failure to resume a paused trigger.
type ResumeError struct {
	ID  string
	Err error
}

func (e *ResumeError) Error() string {
	return fmt.Sprintf("failed to resume job %q: %v", e.ID, e.Err)
}

func (e *ResumeError) Unwrap() error { return e.Err }

// ListenerRegistrationError means a job group has no trigger listener
// registered. Fire-count bookkeeping would silently be skipped for every job
// in that group, so this is fatal at startup.
type ListenerRegistrationError struct {
	Group string
}

func (e *ListenerRegistrationError) Error() string {
	return fmt.Sprintf("no trigger listener registered for group %q", e.Group)
}

// JobExecutionError reports a failed payload execution. The failure has
// already been written to the monitoring log by the time this error is
// surfaced; it exists for runtime bookkeeping and must not trigger retries.
type JobExecutionError struct {
	JobID   string
	Message string
	Err     error
}

func (e *JobExecutionError) Error() string {
	return fmt.Sprintf("execution of job %q failed: %s", e.JobID, e.Message)
}

func (e *JobExecutionError) Unwrap() error { return e.Err }

// ValidationError collects configuration option errors so a caller sees every
// problem at once instead of the first one.
type ValidationError struct {
	Errors []error `json:"errors"`
}

func (c *ValidationError) Add(err error) {
	c.Errors = append(c.Errors, err)
}

func (c *ValidationError) HasError() bool {
	return len(c.Errors) > 0
}

func (c *ValidationError) Error() string {
	if len(c.Errors) == 0 {
		return ""
	}
	return fmt.Sprintf("%v", errors.Join(c.Errors...))
}
