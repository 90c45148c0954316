package domain

import "time"

// Role is the access level attached to a user account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether the role is one of the known levels.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID           string
	Name         string
	Email        string // unique
	PasswordHash string // argon2id encoded
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
