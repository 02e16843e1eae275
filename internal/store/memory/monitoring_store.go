package memory

import (
	"context"
	"sort"
	"sync"

	"reportfire/internal/state"
	"reportfire/types"
)

// MonitoringStore is the in-memory append-only log driver.
type MonitoringStore struct {
	mu      sync.RWMutex
	entries []types.JobLogEntry
}

func NewMonitoringStore() *MonitoringStore {
	return &MonitoringStore{}
}

func (s *MonitoringStore) Append(ctx context.Context, entry *types.JobLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, *entry)
	return nil
}

func (s *MonitoringStore) QueryByJobID(ctx context.Context, jobID string) ([]types.JobLogEntry, error) {
	s.mu.RLock()
	var matched []types.JobLogEntry
	for _, e := range s.entries {
		if e.JobID == jobID {
			matched = append(matched, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Timestamp.Before(matched[j].Timestamp)
	})
	return matched, nil
}

func (s *MonitoringStore) CountGroupedByStatus(ctx context.Context) (map[state.LogStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[state.LogStatus]int)
	for _, e := range s.entries {
		counts[e.Status]++
	}
	return counts, nil
}

func (s *MonitoringStore) Close() error {
	return nil
}
