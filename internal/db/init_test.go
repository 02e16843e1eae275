package db

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportfire/internal/lock"
)

type mockLockManager struct {
	acquireErr error
	releaseErr error
	acquired   []string
}

func (m *mockLockManager) Acquire(key string) error {
	m.acquired = append(m.acquired, key)
	return m.acquireErr
}
func (m *mockLockManager) Release(key string) error { return m.releaseErr }

var _ lock.KeyedLockManager = (*mockLockManager)(nil)

func TestInit_LockAcquireFails(t *testing.T) {
	conn, _, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	lockMgr := &mockLockManager{acquireErr: errors.New("lock busy")}

	err = Init(conn, lockMgr)
	assert.Error(t, err)
	assert.Equal(t, []string{initLock}, lockMgr.acquired)
}

func TestInit_CreatesSchemaAndTables(t *testing.T) {
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectPing()
	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS reportfire_schema").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS reportfire_schema.jobs").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS reportfire_schema.job_logs").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_job_logs_job_id").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS reportfire_schema.users").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Init(conn, &mockLockManager{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInit_DDLFailureSurfaces(t *testing.T) {
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectPing()
	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS reportfire_schema").
		WillReturnError(errors.New("permission denied"))

	err = Init(conn, &mockLockManager{})
	assert.Error(t, err)
}
