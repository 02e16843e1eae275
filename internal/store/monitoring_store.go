package store

import (
	"context"

	"reportfire/internal/state"
	"reportfire/types"
)

// MonitoringStore is the append-only log of job lifecycle events. Entries are
// never mutated; QueryByJobID returns them ordered by timestamp.
type MonitoringStore interface {
	Append(ctx context.Context, entry *types.JobLogEntry) error
	QueryByJobID(ctx context.Context, jobID string) ([]types.JobLogEntry, error)
	CountGroupedByStatus(ctx context.Context) (map[state.LogStatus]int, error)
	Close() error
}
