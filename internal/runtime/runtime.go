package runtime

import (
	"context"

	"reportfire/internal/schedule"
)

// JobKey addresses one registered trigger: a job id inside a group namespace.
type JobKey struct {
	ID    string
	Group string
}

// TriggerState is the runtime-side state of a registered trigger.
type TriggerState int

const (
	StateActive TriggerState = iota + 1
	StatePaused
	StateComplete
)

func (s TriggerState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	case StateComplete:
		return "complete"
	}
	return "unknown"
}

// TriggerListener is invoked synchronously on every firing, before the
// execute callback, on whichever goroutine drives the trigger. One listener
// is registered per group; a group without a listener cannot schedule jobs.
type TriggerListener interface {
	OnFire(ctx context.Context, jobID string)
}

// ExecuteFunc is the execute callback bound to a trigger. Errors it returns
// are counted and logged by the runtime but never retried.
type ExecuteFunc func(ctx context.Context, jobID string) error

// Runtime is the embedded scheduling engine abstraction: any timer-wheel or
// cron library can be substituted behind it.
type Runtime interface {
	Start(ctx context.Context) error
	Stop()

	RegisterListener(group string, listener TriggerListener) error
	Register(key JobKey, spec schedule.TriggerSpec, execute ExecuteFunc) error
	Pause(key JobKey) error
	Resume(key JobKey) error
	Deregister(key JobKey) error

	State(key JobKey) (TriggerState, error)
	JobIDsInGroup(group string) []string
}
