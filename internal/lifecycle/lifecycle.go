package lifecycle

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	errs "reportfire/errors"
	"reportfire/internal/executor"
	"reportfire/internal/lock"
	"reportfire/internal/schedule"
	"reportfire/internal/scheduler"
	"reportfire/internal/state"
	"reportfire/internal/store"
	"reportfire/types"
)

// Service is the per-family façade over the scheduler, the executor and the
// two stores. One instance exists per job family ("personal-report",
// "project-report", ...); the family name doubles as the trigger group.
type Service struct {
	family  string
	records store.JobRecordStore
	monitor store.MonitoringStore
	sched   *scheduler.Service
	exec    *executor.Service
	locks   lock.KeyedLockManager
}

func NewService(
	family string,
	records store.JobRecordStore,
	monitor store.MonitoringStore,
	sched *scheduler.Service,
	exec *executor.Service,
	locks lock.KeyedLockManager,
) *Service {
	return &Service{
		family:  family,
		records: records,
		monitor: monitor,
		sched:   sched,
		exec:    exec,
		locks:   locks,
	}
}

// Family returns the job family this service manages.
func (s *Service) Family() string {
	return s.family
}

// Run validates, persists and schedules a new job. The policy is rejected
// before anything is written; on success the job is live immediately and a
// CREATED entry is in the monitoring log.
func (s *Service) Run(ctx context.Context, job *types.JobInformation) (*types.JobInformation, error) {
	if _, err := schedule.Compile(job.Policy); err != nil {
		return nil, err
	}

	if job.ID == "" {
		job.ID = uuid.NewString()
	} else {
		exists, err := s.records.Exists(ctx, job.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, &errs.AlreadyExistsError{ID: job.ID, Group: s.family}
		}
	}

	job.Status = state.StatusCreated
	job.Active = true
	job.CreatedAt = time.Now()

	if err := s.records.Put(ctx, job); err != nil {
		return nil, err
	}
	s.appendLog(ctx, job.ID, state.LogCreated, fmt.Sprintf("job %q created", job.Name), nil)

	if _, err := s.sched.Schedule(job, s.family, s.ExecuteNow); err != nil {
		return nil, err
	}
	return job, nil
}

// Stop pauses the job's trigger and marks the record stopped. The trigger
// stays registered so the job can be restarted later.
func (s *Service) Stop(ctx context.Context, id string) error {
	if err := s.transition(ctx, id, state.StatusStopped, state.LogStopped, "job stopped"); err != nil {
		return err
	}
	return s.sched.Pause(id, s.family)
}

// Restart resumes a stopped job's trigger.
func (s *Service) Restart(ctx context.Context, id string) error {
	if err := s.transition(ctx, id, state.StatusRestarted, state.LogRestarted, "job restarted"); err != nil {
		return err
	}
	return s.sched.Resume(id, s.family)
}

// Delete removes the job from the schedule and the record store. Existence is
// confirmed before the DELETED entry is appended, so no log entry ever
// references a job that was never there.
func (s *Service) Delete(ctx context.Context, id string) error {
	job, err := s.records.Get(ctx, id)
	if err != nil {
		return err
	}

	s.appendLog(ctx, id, state.LogDeleted, fmt.Sprintf("job %q deleted", job.Name), nil)
	return s.sched.Delete(ctx, id, s.family)
}

// Job loads the current record of a scheduled job.
func (s *Service) Job(ctx context.Context, id string) (*types.JobInformation, error) {
	return s.sched.GetRunningJob(ctx, id, s.family)
}

// Jobs loads the records of every scheduled job in the family.
func (s *Service) Jobs(ctx context.Context) ([]types.JobInformation, error) {
	return s.sched.GetAllRunningJobsInGroup(ctx, s.family)
}

// Logs returns the monitoring entries of a job, oldest first.
func (s *Service) Logs(ctx context.Context, id string) ([]types.JobLogEntry, error) {
	return s.monitor.QueryByJobID(ctx, id)
}

// ExecuteNow is the execute callback the runtime invokes at each firing. It
// runs on a runtime execution goroutine, waits for the executor's outcome,
// records it, and reports a failure back to the runtime without ever
// retrying.
func (s *Service) ExecuteNow(ctx context.Context, id string) error {
	job, err := s.records.Get(ctx, id)
	if err != nil {
		return &errs.JobExecutionError{JobID: id, Message: "job record is missing", Err: err}
	}

	outcome := <-s.exec.Execute(ctx, job)
	s.recordOutcome(ctx, id, outcome)

	if outcome.Failed() {
		return &errs.JobExecutionError{JobID: id, Message: outcome.Message, Err: outcome.Err}
	}
	return nil
}

// recordOutcome applies the execution result to the record and the log under
// the per-id lock. A job deleted while its execution was in flight still gets
// its outcome logged; only the status write is skipped.
func (s *Service) recordOutcome(ctx context.Context, id string, outcome types.ExecutionOutcome) {
	if err := s.locks.Acquire(id); err != nil {
		log.Printf("lifecycle: cannot lock job %s: %v", id, err)
		return
	}
	defer func() {
		if err := s.locks.Release(id); err != nil {
			log.Printf("lifecycle: cannot unlock job %s: %v", id, err)
		}
	}()

	target := state.StatusRunning
	if outcome.Failed() {
		target = state.StatusFailed
	}

	job, err := s.records.Get(ctx, id)
	if err == nil {
		if state.IsValidTransition(job.Status, target) {
			job.Status = target
			if err := s.records.Put(ctx, job); err != nil {
				log.Printf("lifecycle: cannot persist status of job %s: %v", id, err)
			}
		}
	} else if !errs.IsNotFound(err) {
		log.Printf("lifecycle: cannot load job %s: %v", id, err)
	}

	if outcome.Failed() {
		s.appendLog(ctx, id, state.LogError, outcome.Message, nil)
		return
	}
	s.appendLog(ctx, id, state.LogSuccess, outcome.Message, map[string]string{
		"reportUrl": outcome.ArtifactRef,
	})
}

// transition applies a stop/restart status change under the per-id lock and
// appends the matching log entry.
func (s *Service) transition(ctx context.Context, id string, target state.JobStatus, logStatus state.LogStatus, message string) error {
	if err := s.locks.Acquire(id); err != nil {
		return err
	}
	defer func() {
		if err := s.locks.Release(id); err != nil {
			log.Printf("lifecycle: cannot unlock job %s: %v", id, err)
		}
	}()

	job, err := s.records.Get(ctx, id)
	if err != nil {
		return err
	}
	if !state.IsValidTransition(job.Status, target) {
		return fmt.Errorf("job %s cannot go from %s to %s", id, job.Status, target)
	}

	job.Status = target
	if err := s.records.Put(ctx, job); err != nil {
		return err
	}

	s.appendLog(ctx, id, logStatus, message, nil)
	return nil
}

func (s *Service) appendLog(ctx context.Context, jobID string, status state.LogStatus, message string, data map[string]string) {
	entry := &types.JobLogEntry{
		ID:        uuid.NewString(),
		JobID:     jobID,
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
		Data:      data,
	}
	if err := s.monitor.Append(ctx, entry); err != nil {
		log.Printf("lifecycle: cannot append %s entry for job %s: %v", status, jobID, err)
	}
}
