package lock

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"time"
)

// PostgresLockManager maps keys onto advisory locks so multiple processes
// sharing one database serialise updates to the same job id.
type PostgresLockManager struct {
	db *sql.DB
}

func NewPostgresLockManager(db *sql.DB) *PostgresLockManager {
	return &PostgresLockManager{
		db: db,
	}
}

func (l *PostgresLockManager) Acquire(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := l.db.ExecContext(ctx, "SELECT pg_advisory_lock($1)", lockID(key))
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	return nil
}

func (l *PostgresLockManager) Release(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := l.db.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", lockID(key))
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}

	return nil
}

func lockID(key string) int64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return int64(h.Sum64())
}
