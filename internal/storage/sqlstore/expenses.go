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

type expenseRow struct {
	ID          string          `db:"id"`
	OwnerID     string          `db:"owner_id"`
	Title       string          `db:"title"`
	Amount      decimal.Decimal `db:"amount"`
	Description string          `db:"description"`
	CreatedAt   int64           `db:"created_at"`
}

func (r expenseRow) toModel() *models.Expense {
	return &models.Expense{
		ID:          r.ID,
		OwnerID:     r.OwnerID,
		Title:       r.Title,
		Amount:      r.Amount,
		Description: r.Description,
		CreatedAt:   fromMicros(r.CreatedAt),
	}
}

type participantRow struct {
	ExpenseID string `db:"expense_id"`
	ProfileID string `db:"profile_id"`
}

// visibleExpense is the visibility predicate: owner, participant or payee.
// It expects the expense aliased as e and three viewer arguments.
const visibleExpense = `(e.owner_id = ?
    OR EXISTS (SELECT 1 FROM expense_participants ep WHERE ep.expense_id = e.id AND ep.profile_id = ?)
    OR EXISTS (SELECT 1 FROM expense_shares es WHERE es.expense_id = e.id AND es.payee_id = ?))`

const expenseSelect = `SELECT e.id, e.owner_id, e.title, e.amount, e.description, e.created_at FROM expenses e`

// CreateExpense persists a new expense and its participant set in one transaction.
func (s *SQLStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}
	// Stored with microsecond precision.
	expense.CreatedAt = expense.CreatedAt.Truncate(time.Microsecond)

	return s.WithTx(ctx, func(tx storage.Store) error {
		ts := tx.(*SQLStore)

		_, err := ts.exec(ctx,
			`INSERT INTO expenses (id, owner_id, title, amount, description, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			expense.ID, expense.OwnerID, expense.Title, money(expense.Amount),
			expense.Description, toMicros(expense.CreatedAt),
		)
		if isForeignKeyViolation(err) {
			return fmt.Errorf("owner %s: %w", expense.OwnerID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		return ts.insertParticipants(ctx, expense.ID, expense.ParticipantIDs)
	})
}

func (s *SQLStore) insertParticipants(ctx context.Context, expenseID string, profileIDs []string) error {
	for _, id := range profileIDs {
		_, err := s.exec(ctx,
			`INSERT INTO expense_participants (expense_id, profile_id) VALUES (?, ?)`,
			expenseID, id,
		)
		switch {
		case isForeignKeyViolation(err):
			return fmt.Errorf("participant %s: %w", id, storage.ErrNotFound)
		case isUniqueViolation(err):
			return fmt.Errorf("participant %s: %w", id, storage.ErrDuplicate)
		case err != nil:
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}
	return nil
}

// GetVisibleExpense retrieves an expense by ID if viewerID may see it.
func (s *SQLStore) GetVisibleExpense(ctx context.Context, expenseID, viewerID string) (*models.Expense, error) {
	var row expenseRow
	err := s.get(ctx, &row,
		expenseSelect+` WHERE e.id = ? AND `+visibleExpense,
		expenseID, viewerID, viewerID, viewerID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	expense := row.toModel()
	if err := s.attachParticipants(ctx, []*models.Expense{expense}); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListVisibleExpenses retrieves every expense viewerID may see, newest first.
func (s *SQLStore) ListVisibleExpenses(ctx context.Context, viewerID string) ([]*models.Expense, error) {
	var rows []expenseRow
	err := s.selectAll(ctx, &rows,
		expenseSelect+` WHERE `+visibleExpense+` ORDER BY e.created_at DESC, e.id DESC`,
		viewerID, viewerID, viewerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	expenses := make([]*models.Expense, len(rows))
	for i, r := range rows {
		expenses[i] = r.toModel()
	}
	if err := s.attachParticipants(ctx, expenses); err != nil {
		return nil, err
	}
	return expenses, nil
}

// attachParticipants loads participant sets for all expenses with one query.
func (s *SQLStore) attachParticipants(ctx context.Context, expenses []*models.Expense) error {
	if len(expenses) == 0 {
		return nil
	}

	ids := make([]string, len(expenses))
	byID := make(map[string]*models.Expense, len(expenses))
	for i, e := range expenses {
		ids[i] = e.ID
		byID[e.ID] = e
		e.ParticipantIDs = []string{}
	}

	var rows []participantRow
	err := s.selectIn(ctx, &rows,
		`SELECT expense_id, profile_id FROM expense_participants WHERE expense_id IN (?) ORDER BY profile_id`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("failed to get participants: %w", err)
	}
	for _, r := range rows {
		e := byID[r.ExpenseID]
		e.ParticipantIDs = append(e.ParticipantIDs, r.ProfileID)
	}
	return nil
}

// UpdateExpense rewrites the mutable fields and replaces the participant set.
func (s *SQLStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	return s.WithTx(ctx, func(tx storage.Store) error {
		ts := tx.(*SQLStore)

		res, err := ts.exec(ctx,
			`UPDATE expenses SET title = ?, amount = ?, description = ? WHERE id = ?`,
			expense.Title, money(expense.Amount), expense.Description, expense.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		if err := expectAffected(res, "expense", expense.ID); err != nil {
			return err
		}

		if _, err := ts.exec(ctx, `DELETE FROM expense_participants WHERE expense_id = ?`, expense.ID); err != nil {
			return fmt.Errorf("failed to clear participants: %w", err)
		}
		return ts.insertParticipants(ctx, expense.ID, expense.ParticipantIDs)
	})
}

// DeleteExpense removes an expense. Participants and shares cascade.
func (s *SQLStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.exec(ctx, `DELETE FROM expenses WHERE id = ?`, expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return expectAffected(res, "expense", expenseID)
}
