package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

type shareRow struct {
	ID        string          `db:"id"`
	ExpenseID string          `db:"expense_id"`
	PayeeID   string          `db:"payee_id"`
	Amount    decimal.Decimal `db:"amount"`
	CreatedAt int64           `db:"created_at"`
}

func (r shareRow) toModel() *models.ExpenseShare {
	return &models.ExpenseShare{
		ID:        r.ID,
		ExpenseID: r.ExpenseID,
		PayeeID:   r.PayeeID,
		Amount:    r.Amount,
		CreatedAt: fromMicros(r.CreatedAt),
	}
}

const shareSelect = `SELECT s.id, s.expense_id, s.payee_id, s.amount, s.created_at FROM expense_shares s`

// CreateShare persists a new share.
func (s *SQLStore) CreateShare(ctx context.Context, share *models.ExpenseShare) error {
	if share.ID == "" {
		share.ID = uuid.New().String()
	}
	if share.CreatedAt.IsZero() {
		share.CreatedAt = time.Now().UTC()
	}
	// Stored with microsecond precision.
	share.CreatedAt = share.CreatedAt.Truncate(time.Microsecond)

	_, err := s.exec(ctx,
		`INSERT INTO expense_shares (id, expense_id, payee_id, amount, created_at) VALUES (?, ?, ?, ?, ?)`,
		share.ID, share.ExpenseID, share.PayeeID, money(share.Amount), toMicros(share.CreatedAt),
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("share references: %w", storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to insert share: %w", err)
	}
	return nil
}

// GetVisibleShare retrieves a share if viewerID owns the parent expense or is the payee.
func (s *SQLStore) GetVisibleShare(ctx context.Context, shareID, viewerID string) (*models.ExpenseShare, error) {
	var row shareRow
	err := s.get(ctx, &row,
		shareSelect+`
JOIN expenses e ON e.id = s.expense_id
WHERE s.id = ? AND (e.owner_id = ? OR s.payee_id = ?)`,
		shareID, viewerID, viewerID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("share %s: %w", shareID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get share: %w", err)
	}
	return row.toModel(), nil
}

// ListShares retrieves the shares of one expense, oldest first.
func (s *SQLStore) ListShares(ctx context.Context, expenseID string) ([]*models.ExpenseShare, error) {
	var rows []shareRow
	err := s.selectAll(ctx, &rows,
		shareSelect+` WHERE s.expense_id = ? ORDER BY s.created_at, s.id`,
		expenseID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}

	shares := make([]*models.ExpenseShare, len(rows))
	for i, r := range rows {
		shares[i] = r.toModel()
	}
	return shares, nil
}

// ListSharesForExpenses retrieves shares for several expenses, grouped by expense ID.
func (s *SQLStore) ListSharesForExpenses(ctx context.Context, expenseIDs []string) (map[string][]*models.ExpenseShare, error) {
	result := make(map[string][]*models.ExpenseShare)
	if len(expenseIDs) == 0 {
		return result, nil
	}

	var rows []shareRow
	err := s.selectIn(ctx, &rows,
		shareSelect+` WHERE s.expense_id IN (?) ORDER BY s.created_at, s.id`,
		expenseIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list shares: %w", err)
	}
	for _, r := range rows {
		result[r.ExpenseID] = append(result[r.ExpenseID], r.toModel())
	}
	return result, nil
}

// UpdateShare rewrites payee and amount. expense_id is never part of the update.
func (s *SQLStore) UpdateShare(ctx context.Context, share *models.ExpenseShare) error {
	res, err := s.exec(ctx,
		`UPDATE expense_shares SET payee_id = ?, amount = ? WHERE id = ?`,
		share.PayeeID, money(share.Amount), share.ID,
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("payee %s: %w", share.PayeeID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update share: %w", err)
	}
	return expectAffected(res, "share", share.ID)
}

// DeleteShare removes a share.
func (s *SQLStore) DeleteShare(ctx context.Context, shareID string) error {
	res, err := s.exec(ctx, `DELETE FROM expense_shares WHERE id = ?`, shareID)
	if err != nil {
		return fmt.Errorf("failed to delete share: %w", err)
	}
	return expectAffected(res, "share", shareID)
}
