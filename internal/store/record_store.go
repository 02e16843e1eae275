package store

import (
	"context"

	"reportfire/internal/state"
	"reportfire/types"
)

// JobRecordStore is the durable home of JobInformation records, keyed by job
// id. Implementations must be safe for concurrent use from runtime worker
// goroutines and API handlers; Get returns NotFoundError for unknown ids.
type JobRecordStore interface {
	Get(ctx context.Context, id string) (*types.JobInformation, error)
	Put(ctx context.Context, job *types.JobInformation) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)

	// GetAll pages through records for the dashboard, optionally filtered by
	// status (empty status means all).
	GetAll(ctx context.Context, page, pageSize int, status state.JobStatus) (*types.PaginationResult[types.JobInformation], error)

	CountGroupedByStatus(ctx context.Context) (map[state.JobStatus]int, error)

	// Close closes the underlying storage connection.
	Close() error
}
