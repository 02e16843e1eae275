package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"reportfire/internal/state"
	"reportfire/internal/store"
	"reportfire/types"
)

type monitoringStore struct {
	db *sql.DB
}

// NewMonitoringStore creates a MonitoringStore backed by the job_logs table.
// Entries are only ever inserted; there is no update path.
func NewMonitoringStore(db *sql.DB) store.MonitoringStore {
	return &monitoringStore{db: db}
}

func (r *monitoringStore) Append(ctx context.Context, entry *types.JobLogEntry) error {
	var dataJSON []byte
	if entry.Data != nil {
		var err error
		dataJSON, err = json.Marshal(entry.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal log data: %w", err)
		}
	}

	query := `
		INSERT INTO reportfire_schema.job_logs (id, job_id, status, message, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.JobID, entry.Status, entry.Message, dataJSON, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append log entry for job %s: %w", entry.JobID, err)
	}
	return nil
}

func (r *monitoringStore) QueryByJobID(ctx context.Context, jobID string) ([]types.JobLogEntry, error) {
	query := `
		SELECT id, job_id, status, message, data, created_at
		FROM reportfire_schema.job_logs
		WHERE job_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []types.JobLogEntry
	for rows.Next() {
		var entry types.JobLogEntry
		var dataJSON sql.NullString

		err := rows.Scan(&entry.ID, &entry.JobID, &entry.Status, &entry.Message, &dataJSON, &entry.Timestamp)
		if err != nil {
			log.Println("Scan error:", err)
			continue
		}

		if dataJSON.Valid && dataJSON.String != "" {
			if err := json.Unmarshal([]byte(dataJSON.String), &entry.Data); err != nil {
				log.Println("failed to unmarshal log data:", err)
			}
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (r *monitoringStore) CountGroupedByStatus(ctx context.Context) (map[state.LogStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) AS count
		FROM reportfire_schema.job_logs
		GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[state.LogStatus]int)
	for rows.Next() {
		var status state.LogStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		result[status] = count
	}

	for _, status := range state.AllLogStatuses {
		if _, ok := result[status]; !ok {
			result[status] = 0
		}
	}

	return result, nil
}

func (r *monitoringStore) Close() error {
	return r.db.Close()
}
