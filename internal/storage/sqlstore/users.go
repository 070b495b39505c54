package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const userColumns = `id, username, email, first_name, last_name, password_hash, created_at, updated_at`

// CreateUserWithProfile inserts a user and its profile in one transaction.
func (s *SQLStore) CreateUserWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error {
	return s.WithTx(ctx, func(tx storage.Store) error {
		ts := tx.(*SQLStore)

		_, err := ts.exec(ctx,
			`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			user.ID, user.Username, user.Email, user.FirstName, user.LastName,
			user.PasswordHash, user.CreatedAt, user.UpdatedAt,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("user %q: %w", user.Username, storage.ErrDuplicate)
		}
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		profile.UserID = user.ID
		_, err = ts.exec(ctx,
			`INSERT INTO profiles (id, user_id, department, wallet_balance) VALUES (?, ?, ?, ?)`,
			profile.ID, profile.UserID, profile.Department, money(profile.WalletBalance),
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("profile for user %s: %w", user.ID, storage.ErrDuplicate)
		}
		if err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}

		profile.User = user
		return nil
	})
}

// GetUserByUsername retrieves a user by their handle.
func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	err := s.get(ctx, user, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *SQLStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	err := s.get(ctx, user, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// UpdateUserNames sets first and last name.
func (s *SQLStore) UpdateUserNames(ctx context.Context, userID, firstName, lastName string) error {
	res, err := s.exec(ctx,
		`UPDATE users SET first_name = ?, last_name = ?, updated_at = ? WHERE id = ?`,
		firstName, lastName, time.Now().Unix(), userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return expectAffected(res, "user", userID)
}

// expectAffected turns a zero-row UPDATE/DELETE into storage.ErrNotFound.
func expectAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}
