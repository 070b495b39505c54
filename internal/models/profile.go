package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Profile is the per-identity record holding department, wallet balance and friends.
// Exactly one Profile exists for each User.
type Profile struct {
	// ID is the unique identifier for the profile (UUID format).
	ID string `db:"id"`

	// UserID references the owning User. Unique across profiles.
	UserID string `db:"user_id"`

	Department string `db:"department"`

	// WalletBalance is non-negative by convention; nothing enforces it.
	WalletBalance decimal.Decimal `db:"wallet_balance"`

	// User is populated by lookups that join the identity.
	User *User `db:"-"`
}

// NewProfile creates an empty Profile for the given user.
func NewProfile(userID string) *Profile {
	return &Profile{
		ID:            uuid.New().String(),
		UserID:        userID,
		WalletBalance: decimal.Zero,
	}
}

// Username returns the handle of the joined user, or "" when it was not loaded.
func (p *Profile) Username() string {
	if p.User == nil {
		return ""
	}
	return p.User.Username
}
