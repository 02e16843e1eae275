package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reportfire/internal/store"
)

func TestNewUserStore(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	users := NewUserStore(db)
	require.NotNil(t, users)
	var _ store.UserStore = users
}

func TestUserStore_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	users := NewUserStore(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM reportfire_schema.users").
		WithArgs("newuser").
		WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery("INSERT INTO reportfire_schema.users").
		WithArgs("newuser", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	id, err := users.Create(ctx, "newuser", "password123")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStore_Create_DeleteFails(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	users := NewUserStore(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM reportfire_schema.users").
		WithArgs("newuser").
		WillReturnError(sql.ErrConnDone)

	_, err = users.Create(ctx, "newuser", "password123")
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStore_FindByUsername_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	users := NewUserStore(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT id, username FROM reportfire_schema.users").
		WithArgs("nonexistent").
		WillReturnError(sql.ErrNoRows)

	user, err := users.FindByUsername(ctx, "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStore_FindByUsername_Found(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	users := NewUserStore(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT id, username FROM reportfire_schema.users").
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(1, "admin"))

	user, err := users.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "admin", user.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStore_Delete_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	users := NewUserStore(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM reportfire_schema.users").
		WithArgs("nonexistent").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = users.Delete(ctx, "nonexistent")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no user found")
	assert.NoError(t, mock.ExpectationsWereMet())
}
