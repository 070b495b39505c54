package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// profileRow is a profile joined with its user.
type profileRow struct {
	ID            string          `db:"id"`
	UserID        string          `db:"user_id"`
	Department    string          `db:"department"`
	WalletBalance decimal.Decimal `db:"wallet_balance"`
	Username      string          `db:"username"`
	Email         string          `db:"email"`
	FirstName     string          `db:"first_name"`
	LastName      string          `db:"last_name"`
}

const profileSelect = `SELECT p.id, p.user_id, p.department, p.wallet_balance,
       u.username, u.email, u.first_name, u.last_name
FROM profiles p
JOIN users u ON u.id = p.user_id`

func (r profileRow) toModel() *models.Profile {
	return &models.Profile{
		ID:            r.ID,
		UserID:        r.UserID,
		Department:    r.Department,
		WalletBalance: r.WalletBalance,
		User: &models.User{
			ID:        r.UserID,
			Username:  r.Username,
			Email:     r.Email,
			FirstName: r.FirstName,
			LastName:  r.LastName,
		},
	}
}

func rowsToProfiles(rows []profileRow) []*models.Profile {
	profiles := make([]*models.Profile, len(rows))
	for i, r := range rows {
		profiles[i] = r.toModel()
	}
	return profiles
}

// FindProfileByUser looks up the profile owned by userID.
func (s *SQLStore) FindProfileByUser(ctx context.Context, userID string) (*models.Profile, bool, error) {
	var row profileRow
	err := s.get(ctx, &row, profileSelect+` WHERE p.user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to find profile: %w", err)
	}
	return row.toModel(), true, nil
}

// GetProfile retrieves a profile by its ID.
func (s *SQLStore) GetProfile(ctx context.Context, profileID string) (*models.Profile, error) {
	var row profileRow
	err := s.get(ctx, &row, profileSelect+` WHERE p.id = ?`, profileID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", profileID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return row.toModel(), nil
}

// GetProfilesByIDs retrieves multiple profiles by their IDs.
// Profiles that don't exist are omitted from the result.
func (s *SQLStore) GetProfilesByIDs(ctx context.Context, ids []string) (map[string]*models.Profile, error) {
	result := make(map[string]*models.Profile, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var rows []profileRow
	if err := s.selectIn(ctx, &rows, profileSelect+` WHERE p.id IN (?)`, ids); err != nil {
		return nil, fmt.Errorf("failed to get profiles by IDs: %w", err)
	}
	for _, r := range rows {
		result[r.ID] = r.toModel()
	}
	return result, nil
}

// UpdateDepartment sets the profile's department.
func (s *SQLStore) UpdateDepartment(ctx context.Context, profileID, department string) error {
	res, err := s.exec(ctx, `UPDATE profiles SET department = ? WHERE id = ?`, department, profileID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return expectAffected(res, "profile", profileID)
}
