package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/redis/go-redis/v9"

	errs "reportfire/errors"
	"reportfire/internal/state"
	"reportfire/internal/store"
	"reportfire/types"
)

const (
	jobKeyPrefix = "reportfire:job:"
	jobIndexKey  = "reportfire:jobs"
)

type recordStore struct {
	client *redis.Client
}

// NewRecordStore creates a JobRecordStore on a Redis client. Each record is a
// JSON value under its own key; a set of ids serves as the index for listing.
func NewRecordStore(client *redis.Client) store.JobRecordStore {
	return &recordStore{client: client}
}

func (r *recordStore) Get(ctx context.Context, id string) (*types.JobInformation, error) {
	raw, err := r.client.Get(ctx, jobKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, &errs.NotFoundError{ID: id}
		}
		return nil, err
	}

	var job types.JobInformation
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", id, err)
	}
	return &job, nil
}

func (r *recordStore) Put(ctx context.Context, job *types.JobInformation) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", job.ID, err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, jobKeyPrefix+job.ID, raw, 0)
	pipe.SAdd(ctx, jobIndexKey, job.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *recordStore) Delete(ctx context.Context, id string) error {
	deleted, err := r.client.Del(ctx, jobKeyPrefix+id).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return &errs.NotFoundError{ID: id}
	}
	return r.client.SRem(ctx, jobIndexKey, id).Err()
}

func (r *recordStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := r.client.Exists(ctx, jobKeyPrefix+id).Result()
	return n > 0, err
}

func (r *recordStore) GetAll(ctx context.Context, page, pageSize int, status state.JobStatus) (*types.PaginationResult[types.JobInformation], error) {
	if page < 1 {
		page = 1
	}

	jobs, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	if status != "" {
		filtered := jobs[:0]
		for _, job := range jobs {
			if job.Status == status {
				filtered = append(filtered, job)
			}
		}
		jobs = filtered
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	totalItems := len(jobs)
	totalPages := int(math.Ceil(float64(totalItems) / float64(pageSize)))

	start := (page - 1) * pageSize
	if start > totalItems {
		start = totalItems
	}
	end := start + pageSize
	if end > totalItems {
		end = totalItems
	}

	return &types.PaginationResult[types.JobInformation]{
		Items:           jobs[start:end],
		TotalItems:      totalItems,
		Page:            page,
		PageSize:        pageSize,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}, nil
}

func (r *recordStore) CountGroupedByStatus(ctx context.Context) (map[state.JobStatus]int, error) {
	jobs, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	result := make(map[state.JobStatus]int)
	for _, status := range state.AllStatuses {
		result[status] = 0
	}
	for _, job := range jobs {
		result[job.Status]++
	}
	return result, nil
}

func (r *recordStore) Close() error {
	return r.client.Close()
}

func (r *recordStore) loadAll(ctx context.Context) ([]types.JobInformation, error) {
	ids, err := r.client.SMembers(ctx, jobIndexKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = jobKeyPrefix + id
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	jobs := make([]types.JobInformation, 0, len(values))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Index entry without a record, left behind by a crashed delete.
			if err := r.client.SRem(ctx, jobIndexKey, ids[i]).Err(); err != nil {
				log.Println("failed to prune stale job index entry:", err)
			}
			continue
		}

		var job types.JobInformation
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			log.Println("failed to unmarshal job:", err)
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
