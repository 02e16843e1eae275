package types

// OutcomeStatus is the terminal state of one payload execution.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailure OutcomeStatus = "failure"
)

// ExecutionOutcome is produced by the executor for every firing. It is
// transient and never persisted; the monitoring log entry derived from it is
// the durable record.
type ExecutionOutcome struct {
	Status      OutcomeStatus
	Message     string
	ArtifactRef string
	Err         error
}

func (o ExecutionOutcome) Failed() bool {
	return o.Status == OutcomeFailure
}
