package state

// JobStatus is the lifecycle state of a scheduled job record.
type JobStatus string

const (
	StatusCreated   JobStatus = "created"
	StatusRunning   JobStatus = "running"
	StatusStopped   JobStatus = "stopped"
	StatusRestarted JobStatus = "restarted"
	StatusFailed    JobStatus = "failed"
)

func (s JobStatus) String() string {
	return string(s)
}

var AllStatuses = []JobStatus{
	StatusCreated,
	StatusRunning,
	StatusStopped,
	StatusRestarted,
	StatusFailed,
}

type Transition struct {
	From JobStatus
	To   JobStatus
}

// ValidTransitions lists every allowed status change. A job enters running on
// its first successful execution, bounces between running and failed as
// executions succeed or fail, can be stopped from any live state, and can only
// be restarted from stopped.
var ValidTransitions = []Transition{
	{From: StatusCreated, To: StatusRunning},
	{From: StatusCreated, To: StatusFailed},
	{From: StatusCreated, To: StatusStopped},
	{From: StatusRunning, To: StatusRunning},
	{From: StatusRunning, To: StatusFailed},
	{From: StatusRunning, To: StatusStopped},
	{From: StatusFailed, To: StatusRunning},
	{From: StatusFailed, To: StatusFailed},
	{From: StatusFailed, To: StatusStopped},
	{From: StatusStopped, To: StatusRestarted},
	{From: StatusRestarted, To: StatusRunning},
	{From: StatusRestarted, To: StatusFailed},
	{From: StatusRestarted, To: StatusStopped},
}

func IsValidTransition(from, to JobStatus) bool {
	for _, t := range ValidTransitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}

// LogStatus is the event kind of a monitoring log entry. Entries are
// append-only; these values never describe the live job record.
type LogStatus string

const (
	LogCreated   LogStatus = "created"
	LogSuccess   LogStatus = "success"
	LogError     LogStatus = "error"
	LogStopped   LogStatus = "stopped"
	LogRestarted LogStatus = "restarted"
	LogDeleted   LogStatus = "deleted"
)

func (s LogStatus) String() string {
	return string(s)
}

var AllLogStatuses = []LogStatus{
	LogCreated,
	LogSuccess,
	LogError,
	LogStopped,
	LogRestarted,
	LogDeleted,
}
