package postgres

import (
	"context"
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"reportfire/internal/store"
	"reportfire/types"
)

type userStore struct {
	db *sql.DB
}

// NewUserStore creates a UserStore with a DB connection
func NewUserStore(db *sql.DB) store.UserStore {
	return &userStore{db: db}
}

func (r *userStore) Create(ctx context.Context, username, password string) (int64, error) {
	// Re-creating a user replaces the old row.
	if _, err := r.db.ExecContext(ctx, "DELETE FROM reportfire_schema.users WHERE username = $1", username); err != nil {
		return 0, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	var id int64
	query := `INSERT INTO reportfire_schema.users (username, password) VALUES ($1, $2) RETURNING id`
	err = r.db.QueryRowContext(ctx, query, username, hashedPassword).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *userStore) Find(ctx context.Context, username, password string) (*types.User, error) {
	query := `SELECT id, username, password FROM reportfire_schema.users WHERE username = $1`
	user := &types.User{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(&user.ID, &user.Username, &user.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // user not found
		}
		return nil, err
	}
	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	if err != nil {
		return nil, errors.New("user not found")
	}
	user.Password = ""
	return user, nil
}

func (r *userStore) FindByUsername(ctx context.Context, username string) (*types.User, error) {
	query := `SELECT id, username FROM reportfire_schema.users WHERE username = $1;`
	user := &types.User{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(&user.ID, &user.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // user not found
		}
		return nil, err
	}
	return user, nil
}

func (r *userStore) Delete(ctx context.Context, username string) error {
	query := `DELETE FROM reportfire_schema.users WHERE username = $1`
	result, err := r.db.ExecContext(ctx, query, username)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return errors.New("no user found to delete")
	}
	return nil
}
