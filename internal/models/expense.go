package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense represents a monetary outlay paid by its owner.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// OwnerID is the profile that created the expense. Immutable.
	OwnerID string

	Title string

	// Amount is strictly positive with at most two fractional digits.
	Amount decimal.Decimal

	Description string

	// CreatedAt is set once by the store and never updated.
	CreatedAt time.Time

	// ParticipantIDs are the profiles sharing the expense. Always contains OwnerID.
	ParticipantIDs []string
}

// HasParticipant reports whether the profile shares the expense.
func (e *Expense) HasParticipant(profileID string) bool {
	for _, id := range e.ParticipantIDs {
		if id == profileID {
			return true
		}
	}
	return false
}

// ExpenseShare binds one payee to the amount owed on one expense.
type ExpenseShare struct {
	ID string

	// ExpenseID is the parent expense. Pinned after creation.
	ExpenseID string

	// PayeeID is the profile that owes Amount to the expense owner.
	PayeeID string

	Amount decimal.Decimal

	CreatedAt time.Time
}
