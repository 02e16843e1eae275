package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/redis/go-redis/v9"

	"reportfire/internal/state"
	"reportfire/internal/store"
	"reportfire/types"
)

const (
	logKeyPrefix = "reportfire:log:"
	logCountsKey = "reportfire:log-counts"
)

type monitoringStore struct {
	client *redis.Client
}

// NewMonitoringStore creates a MonitoringStore on a Redis client. Each job's
// entries live in a list under its id, appended in order; a hash keeps the
// per-status counts so the chart query avoids scanning every list.
func NewMonitoringStore(client *redis.Client) store.MonitoringStore {
	return &monitoringStore{client: client}
}

func (r *monitoringStore) Append(ctx context.Context, entry *types.JobLogEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal log entry for job %s: %w", entry.JobID, err)
	}

	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, logKeyPrefix+entry.JobID, raw)
	pipe.HIncrBy(ctx, logCountsKey, string(entry.Status), 1)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *monitoringStore) QueryByJobID(ctx context.Context, jobID string) ([]types.JobLogEntry, error) {
	values, err := r.client.LRange(ctx, logKeyPrefix+jobID, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]types.JobLogEntry, 0, len(values))
	for _, raw := range values {
		var entry types.JobLogEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Println("failed to unmarshal log entry:", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (r *monitoringStore) CountGroupedByStatus(ctx context.Context) (map[state.LogStatus]int, error) {
	counts, err := r.client.HGetAll(ctx, logCountsKey).Result()
	if err != nil {
		return nil, err
	}

	result := make(map[state.LogStatus]int)
	for _, status := range state.AllLogStatuses {
		result[status] = 0
	}
	for status, raw := range counts {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("corrupt log count for status %s: %w", status, err)
		}
		result[state.LogStatus(status)] = n
	}
	return result, nil
}

// Close is a no-op: the client is shared with the record store, which owns
// the connection.
func (r *monitoringStore) Close() error {
	return nil
}
