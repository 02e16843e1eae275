package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	errs "reportfire/errors"
	"reportfire/internal/state"
	"reportfire/types"
)

// RecordStore is the in-memory job record driver, used by tests and embedded
// deployments that need no durability.
type RecordStore struct {
	mu   sync.RWMutex
	jobs map[string]*types.JobInformation
}

func NewRecordStore() *RecordStore {
	return &RecordStore{
		jobs: make(map[string]*types.JobInformation),
	}
}

func (s *RecordStore) Get(ctx context.Context, id string) (*types.JobInformation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, &errs.NotFoundError{ID: id}
	}
	return job.Clone(), nil
}

func (s *RecordStore) Put(ctx context.Context, job *types.JobInformation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.ID] = job.Clone()
	return nil
}

func (s *RecordStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return &errs.NotFoundError{ID: id}
	}
	delete(s.jobs, id)
	return nil
}

func (s *RecordStore) Exists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.jobs[id]
	return ok, nil
}

func (s *RecordStore) GetAll(ctx context.Context, page, pageSize int, status state.JobStatus) (*types.PaginationResult[types.JobInformation], error) {
	if page < 1 {
		page = 1
	}

	s.mu.RLock()
	var matched []types.JobInformation
	for _, job := range s.jobs {
		if status != "" && job.Status != status {
			continue
		}
		matched = append(matched, *job.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})

	totalItems := len(matched)
	start := (page - 1) * pageSize
	if start > totalItems {
		start = totalItems
	}
	end := start + pageSize
	if end > totalItems {
		end = totalItems
	}

	totalPages := int(math.Ceil(float64(totalItems) / float64(pageSize)))
	return &types.PaginationResult[types.JobInformation]{
		Items:           matched[start:end],
		TotalItems:      totalItems,
		Page:            page,
		PageSize:        pageSize,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}, nil
}

func (s *RecordStore) CountGroupedByStatus(ctx context.Context) (map[state.JobStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[state.JobStatus]int)
	for _, job := range s.jobs {
		counts[job.Status]++
	}
	return counts, nil
}

func (s *RecordStore) Close() error {
	return nil
}
