package types

import "time"

// User is a dashboard account. Password carries the bcrypt hash inside the
// store layer and is blanked before the record leaves it.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
