// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/mmynk/splitledger/internal/models"
)

var (
	// ErrNotFound is returned when a record does not exist or is not visible to the caller.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a uniqueness constraint would be violated.
	ErrDuplicate = errors.New("record already exists")
)

// Store defines the full persistence surface used by the service layer.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	UserStore
	ProfileStore
	FriendStore
	ExpenseStore
	ShareStore
	TokenStore

	// WithTx runs fn inside a single transaction. The Store passed to fn is bound to
	// that transaction; fn returning an error rolls everything back.
	// Nested calls reuse the outer transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	// Close releases any resources held by the store.
	Close() error
}

// UserStore persists identities.
type UserStore interface {
	// CreateUserWithProfile inserts the user and its profile atomically.
	// Returns ErrDuplicate if the username is taken or the user already has a profile.
	CreateUserWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error

	// GetUserByUsername returns ErrNotFound when no such user exists.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUserByID returns ErrNotFound when no such user exists.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// UpdateUserNames updates first and last name.
	UpdateUserNames(ctx context.Context, userID, firstName, lastName string) error
}

// ProfileStore persists profiles.
type ProfileStore interface {
	// FindProfileByUser is an optional lookup: found is false when the user has no profile.
	FindProfileByUser(ctx context.Context, userID string) (profile *models.Profile, found bool, err error)

	// GetProfile returns the profile (with its user) or ErrNotFound.
	GetProfile(ctx context.Context, profileID string) (*models.Profile, error)

	// GetProfilesByIDs returns the profiles that exist, keyed by profile ID.
	GetProfilesByIDs(ctx context.Context, ids []string) (map[string]*models.Profile, error)

	// UpdateDepartment sets the profile's department.
	UpdateDepartment(ctx context.Context, profileID, department string) error
}

// FriendStore persists directed friend edges.
type FriendStore interface {
	HasFriend(ctx context.Context, ownerID, targetID string) (bool, error)

	// AddFriend inserts owner->target. Returns ErrDuplicate if the edge exists.
	AddFriend(ctx context.Context, ownerID, targetID string) error

	// RemoveFriend deletes owner->target. Returns ErrNotFound if the edge did not exist.
	RemoveFriend(ctx context.Context, ownerID, targetID string) error

	// ListFriends returns the outgoing edges of ownerID.
	ListFriends(ctx context.Context, ownerID string) ([]*models.Profile, error)

	// ListFollowers returns the profiles holding an edge to targetID.
	ListFollowers(ctx context.Context, targetID string) ([]*models.Profile, error)
}

// ExpenseStore persists expenses and their participant sets.
// Lookups are scoped to a viewer: a profile sees an expense it owns,
// participates in, or holds a share on. Anything else is ErrNotFound.
type ExpenseStore interface {
	// CreateExpense persists the expense and its participants. ID and CreatedAt are
	// populated by the store when empty.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetVisibleExpense returns the expense if viewerID may see it.
	GetVisibleExpense(ctx context.Context, expenseID, viewerID string) (*models.Expense, error)

	// ListVisibleExpenses returns every expense viewerID may see, newest first.
	ListVisibleExpenses(ctx context.Context, viewerID string) ([]*models.Expense, error)

	// UpdateExpense rewrites title, amount, description and participants.
	// Owner and creation time are never touched.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense removes the expense; participants and shares cascade.
	DeleteExpense(ctx context.Context, expenseID string) error
}

// ShareStore persists explicit per-payee shares.
type ShareStore interface {
	// CreateShare populates ID and CreatedAt when empty.
	CreateShare(ctx context.Context, share *models.ExpenseShare) error

	// GetVisibleShare returns the share if viewerID owns its expense or is its payee.
	GetVisibleShare(ctx context.Context, shareID, viewerID string) (*models.ExpenseShare, error)

	// ListShares returns the shares of one expense, oldest first.
	ListShares(ctx context.Context, expenseID string) ([]*models.ExpenseShare, error)

	// ListSharesForExpenses returns shares grouped by expense ID.
	ListSharesForExpenses(ctx context.Context, expenseIDs []string) (map[string][]*models.ExpenseShare, error)

	// UpdateShare rewrites payee and amount. The parent expense is never changed.
	UpdateShare(ctx context.Context, share *models.ExpenseShare) error

	DeleteShare(ctx context.Context, shareID string) error
}

// TokenStore persists revoked refresh-token ids.
type TokenStore interface {
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}
