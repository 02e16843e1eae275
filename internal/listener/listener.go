package listener

import (
	"context"
	"log"

	"reportfire/internal/lock"
	"reportfire/internal/store"
)

// FireCountListener keeps the remaining-fire-count bookkeeping of fire-count
// jobs. The runtime invokes it synchronously before every execute callback.
//
// Business conditions never error: a job without a fire-count policy, or one
// already at zero, is a no-op. Store failures are logged and swallowed so the
// firing itself still proceeds; a lost decrement under a broken store is
// acceptable.
type FireCountListener struct {
	records store.JobRecordStore
	locks   lock.KeyedLockManager
}

func NewFireCountListener(records store.JobRecordStore, locks lock.KeyedLockManager) *FireCountListener {
	return &FireCountListener{
		records: records,
		locks:   locks,
	}
}

func (l *FireCountListener) OnFire(ctx context.Context, jobID string) {
	if err := l.locks.Acquire(jobID); err != nil {
		log.Printf("listener: cannot lock job %s: %v", jobID, err)
		return
	}
	defer func() {
		if err := l.locks.Release(jobID); err != nil {
			log.Printf("listener: cannot unlock job %s: %v", jobID, err)
		}
	}()

	job, err := l.records.Get(ctx, jobID)
	if err != nil {
		log.Printf("listener: cannot load job %s: %v", jobID, err)
		return
	}

	fc := job.Policy.FireCount
	if fc == nil || fc.Remaining <= 0 {
		return
	}

	fc.Remaining--
	if err := l.records.Put(ctx, job); err != nil {
		log.Printf("listener: cannot persist fire count of job %s: %v", jobID, err)
	}
}
