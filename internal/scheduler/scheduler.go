package scheduler

import (
	"context"
	"errors"
	"fmt"

	errs "reportfire/errors"
	"reportfire/internal/runtime"
	"reportfire/internal/schedule"
	"reportfire/internal/store"
	"reportfire/types"
)

// Service is the central orchestrator between schedule policies, the trigger
// runtime and the record store. It owns no goroutines of its own; the runtime
// does the firing.
type Service struct {
	rt      runtime.Runtime
	records store.JobRecordStore
}

func NewService(rt runtime.Runtime, records store.JobRecordStore) *Service {
	return &Service{
		rt:      rt,
		records: records,
	}
}

// Schedule compiles the job's policy and registers the trigger with its
// execute callback under (id, group). The job is live as soon as this
// returns.
func (s *Service) Schedule(job *types.JobInformation, group string, execute runtime.ExecuteFunc) (*types.JobInformation, error) {
	spec, err := schedule.Compile(job.Policy)
	if err != nil {
		return nil, err
	}

	key := runtime.JobKey{ID: job.ID, Group: group}
	if err := s.rt.Register(key, spec, execute); err != nil {
		return nil, err
	}
	return job, nil
}

// Pause suspends the job's trigger without deregistering it.
func (s *Service) Pause(id, group string) error {
	if err := s.rt.Pause(runtime.JobKey{ID: id, Group: group}); err != nil {
		return &errs.PauseError{ID: id, Err: err}
	}
	return nil
}

// Resume reactivates a paused trigger.
func (s *Service) Resume(id, group string) error {
	if err := s.rt.Resume(runtime.JobKey{ID: id, Group: group}); err != nil {
		return &errs.ResumeError{ID: id, Err: err}
	}
	return nil
}

// Delete deregisters the trigger and removes the job record. The two steps
// are not atomic; if the record deletion fails after deregistration the error
// is returned so the caller retries, and no success is reported.
func (s *Service) Delete(ctx context.Context, id, group string) error {
	if err := s.rt.Deregister(runtime.JobKey{ID: id, Group: group}); err != nil {
		return err
	}

	if err := s.records.Delete(ctx, id); err != nil && !errs.IsNotFound(err) {
		return fmt.Errorf("trigger deregistered but record deletion failed for job %s: %w", id, err)
	}
	return nil
}

// GetRunningJob loads the current record of a registered job. A paused job is
// still registered and still returned.
func (s *Service) GetRunningJob(ctx context.Context, id, group string) (*types.JobInformation, error) {
	if _, err := s.rt.State(runtime.JobKey{ID: id, Group: group}); err != nil {
		return nil, err
	}
	return s.records.Get(ctx, id)
}

// GetAllRunningJobsInGroup loads the records of every job registered in the
// group. Records missing from the store are skipped.
func (s *Service) GetAllRunningJobsInGroup(ctx context.Context, group string) ([]types.JobInformation, error) {
	ids := s.rt.JobIDsInGroup(group)

	jobs := make([]types.JobInformation, 0, len(ids))
	for _, id := range ids {
		job, err := s.records.Get(ctx, id)
		if err != nil {
			var nf *errs.NotFoundError
			if errors.As(err, &nf) {
				continue
			}
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

// TriggerState exposes the runtime's own state query for a registered job.
func (s *Service) TriggerState(id, group string) (runtime.TriggerState, error) {
	return s.rt.State(runtime.JobKey{ID: id, Group: group})
}
