package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered identity.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `db:"id"`

	// Username is the unique human-readable handle used for login and friend lookup.
	Username string `db:"username"`

	// Email is the user's email address.
	Email string `db:"email"`

	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `db:"password_hash"`

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64 `db:"created_at"`
	UpdatedAt int64 `db:"updated_at"`
}

// NewUser creates a User with a fresh ID and timestamps.
func NewUser(username, email, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
