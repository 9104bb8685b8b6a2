package domain

import (
	"context"
	"time"
)

// Role is the account type chosen at registration.
type Role string

const (
	RoleStudent Role = "student"
	RoleClient  Role = "client"
)

// Valid reports whether r is one of the accepted roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleClient
}

// User represents a registered account.
type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Phone        string // Empty when unset
	Skills       string // Empty when unset
	PhotoPath    string // FileStore key of the profile photo, empty when unset
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserRepository defines persistence operations for users.
// Create and Update return ErrDuplicateEmail when the unique email constraint fires.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *User) error
}
