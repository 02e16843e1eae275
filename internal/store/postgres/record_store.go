package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"

	errs "reportfire/errors"
	"reportfire/internal/state"
	"reportfire/internal/store"
	"reportfire/types"
)

type recordStore struct {
	db *sql.DB
}

// NewRecordStore creates a JobRecordStore backed by the jobs table.
func NewRecordStore(db *sql.DB) store.JobRecordStore {
	return &recordStore{db: db}
}

func (r *recordStore) Get(ctx context.Context, id string) (*types.JobInformation, error) {
	query := `
		SELECT id, name, owner_ref, policy, status,
		       window_start, window_end, is_active, created_at
		FROM reportfire_schema.jobs
		WHERE id = $1
	`

	job, err := scanJob(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &errs.NotFoundError{ID: id}
		}
		return nil, err
	}
	return job, nil
}

func (r *recordStore) Put(ctx context.Context, job *types.JobInformation) error {
	policyJSON, err := json.Marshal(job.Policy)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule policy: %w", err)
	}

	query := `
		INSERT INTO reportfire_schema.jobs
			(id, name, owner_ref, policy, status, window_start, window_end, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = $2,
			owner_ref = $3,
			policy = $4,
			status = $5,
			window_start = $6,
			window_end = $7,
			is_active = $8
	`

	_, err = r.db.ExecContext(ctx, query,
		job.ID, job.Name, job.OwnerRef, policyJSON, job.Status,
		job.WindowStart, job.WindowEnd, job.Active, job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert or update job %s: %w", job.ID, err)
	}
	return nil
}

func (r *recordStore) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reportfire_schema.jobs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return &errs.NotFoundError{ID: id}
	}
	return nil
}

func (r *recordStore) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM reportfire_schema.jobs WHERE id = $1)`, id,
	).Scan(&exists)
	return exists, err
}

func (r *recordStore) GetAll(ctx context.Context, page, pageSize int, status state.JobStatus) (*types.PaginationResult[types.JobInformation], error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	var args []interface{}
	where := "TRUE"

	argIndex := 1
	if status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, status)
		argIndex++
	}

	countQuery := `SELECT COUNT(*) FROM reportfire_schema.jobs WHERE ` + where
	selectQuery := fmt.Sprintf(`
		SELECT id, name, owner_ref, policy, status,
		       window_start, window_end, is_active, created_at
		FROM reportfire_schema.jobs
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, where, argIndex, argIndex+1)

	args = append(args, pageSize, offset)

	var totalItems int
	err := r.db.QueryRowContext(ctx, countQuery, args[:len(args)-2]...).Scan(&totalItems)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, selectQuery, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []types.JobInformation
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			log.Println("Scan error:", err)
			continue
		}
		jobs = append(jobs, *job)
	}

	totalPages := int(math.Ceil(float64(totalItems) / float64(pageSize)))
	result := &types.PaginationResult[types.JobInformation]{
		Items:           jobs,
		TotalItems:      totalItems,
		Page:            page,
		PageSize:        pageSize,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}

	return result, nil
}

func (r *recordStore) CountGroupedByStatus(ctx context.Context) (map[state.JobStatus]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*) AS count
		FROM reportfire_schema.jobs
		GROUP BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[state.JobStatus]int)
	for rows.Next() {
		var status state.JobStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		result[status] = count
	}

	for _, status := range state.AllStatuses {
		if _, ok := result[status]; !ok {
			result[status] = 0
		}
	}

	return result, nil
}

func (r *recordStore) Close() error {
	return r.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*types.JobInformation, error) {
	var job types.JobInformation
	var policyJSON []byte

	err := row.Scan(
		&job.ID, &job.Name, &job.OwnerRef, &policyJSON, &job.Status,
		&job.WindowStart, &job.WindowEnd, &job.Active, &job.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(policyJSON, &job.Policy); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schedule policy of job %s: %w", job.ID, err)
	}
	return &job, nil
}
