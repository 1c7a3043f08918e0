package model

import "time"

// User roles.
const (
	RoleAdmin   = "admin"
	RoleAnalyst = "analyst"
)

type User struct {
	ID        int       `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	Role      string    `db:"role" json:"role"`
	APIKey    string    `db:"api_key" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
