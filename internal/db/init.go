package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"reportfire/internal/lock"
)

const (
	schema = "reportfire_schema"

	// initLock serialises schema initialisation across engine instances
	// sharing one database.
	initLock = "reportfire:schema-init"
)

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS ` + schema + `.jobs (
		id           TEXT PRIMARY KEY,
		name         TEXT NOT NULL,
		owner_ref    TEXT NOT NULL,
		policy       JSONB NOT NULL,
		status       TEXT NOT NULL,
		window_start TIMESTAMPTZ,
		window_end   TIMESTAMPTZ,
		is_active    BOOLEAN NOT NULL DEFAULT TRUE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS ` + schema + `.job_logs (
		id         TEXT PRIMARY KEY,
		job_id     TEXT NOT NULL,
		status     TEXT NOT NULL,
		message    TEXT,
		data       JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_job_logs_job_id ON ` + schema + `.job_logs (job_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS ` + schema + `.users (
		id         BIGSERIAL PRIMARY KEY,
		username   TEXT NOT NULL UNIQUE,
		password   TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Init verifies the connection and creates the schema and tables if they do
// not exist. The lock manager keeps concurrent engine instances from running
// the DDL at the same time; the lock is released before returning.
func Init(db *sql.DB, locks lock.KeyedLockManager) error {
	if err := locks.Acquire(initLock); err != nil {
		return err
	}
	defer locks.Release(initLock)

	if err := db.Ping(); err != nil {
		return err
	}

	if _, err := db.Exec(fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
		return err
	}

	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
