package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// ShareService manages explicit per-payee shares of an expense.
type ShareService struct {
	store  storage.Store
	logger *slog.Logger
}

// NewShareService creates a new ShareService with the given storage backend.
func NewShareService(store storage.Store, logger *slog.Logger) *ShareService {
	return &ShareService{store: store, logger: logger}
}

// ShareInput carries caller-supplied share fields. Nil means "not supplied".
// The parent expense is taken from the route on create and is never writable afterwards.
type ShareInput struct {
	PayeeID *string
	Amount  *decimal.Decimal
}

// List returns the shares of a visible expense.
func (s *ShareService) List(ctx context.Context, actor Actor, expenseID string) ([]*models.ExpenseShare, error) {
	expense, err := s.store.GetVisibleExpense(ctx, expenseID, actor.ProfileID())
	if err != nil {
		return nil, notFoundOr(err)
	}
	shares, err := s.store.ListShares(ctx, expense.ID)
	if err != nil {
		s.logger.Error("ListShares failed", "expense_id", expense.ID, "error", err)
		return nil, internalError(err)
	}
	return shares, nil
}

// Add attaches a share to an expense owned by the actor.
// The share sum is not checked against the expense amount.
func (s *ShareService) Add(ctx context.Context, actor Actor, expenseID string, in ShareInput) (*models.ExpenseShare, error) {
	if err := validateShare(in, true); err != nil {
		return nil, err
	}

	share := &models.ExpenseShare{
		ExpenseID: expenseID,
		PayeeID:   strings.TrimSpace(*in.PayeeID),
		Amount:    *in.Amount,
	}
	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		expense, err := tx.GetVisibleExpense(ctx, expenseID, actor.ProfileID())
		if err != nil {
			return err
		}
		if err := requireOwner(expense, actor, "Only the payer can add shares."); err != nil {
			return err
		}
		if err := checkPayee(ctx, tx, share.PayeeID); err != nil {
			return err
		}
		return tx.CreateShare(ctx, share)
	})
	if err != nil {
		s.logger.Warn("AddShare failed", "expense_id", expenseID, "profile_id", actor.ProfileID(), "error", err)
		return nil, storeError(err)
	}

	metrics.RecordLedgerOp("share_create")
	s.logger.Info("Share added",
		"share_id", share.ID,
		"expense_id", share.ExpenseID,
		"payee_id", share.PayeeID,
		"amount", share.Amount.StringFixed(2),
	)
	return share, nil
}

// Get returns a share visible to the actor as expense owner or payee.
func (s *ShareService) Get(ctx context.Context, actor Actor, shareID string) (*models.ExpenseShare, error) {
	share, err := s.store.GetVisibleShare(ctx, shareID, actor.ProfileID())
	if err != nil {
		return nil, notFoundOr(err)
	}
	return share, nil
}

// Update rewrites payee and amount of a share whose expense the actor owns.
func (s *ShareService) Update(ctx context.Context, actor Actor, shareID string, in ShareInput, partial bool) (*models.ExpenseShare, error) {
	if err := validateShare(in, !partial); err != nil {
		return nil, err
	}

	var share *models.ExpenseShare
	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		var err error
		share, err = s.ownedShare(ctx, tx, actor, shareID, "Only the payer can modify this share.")
		if err != nil {
			return err
		}
		if in.PayeeID != nil {
			share.PayeeID = strings.TrimSpace(*in.PayeeID)
			if err := checkPayee(ctx, tx, share.PayeeID); err != nil {
				return err
			}
		}
		if in.Amount != nil {
			share.Amount = *in.Amount
		}
		return tx.UpdateShare(ctx, share)
	})
	if err != nil {
		s.logger.Warn("UpdateShare failed", "share_id", shareID, "profile_id", actor.ProfileID(), "error", err)
		return nil, storeError(err)
	}

	metrics.RecordLedgerOp("share_update")
	s.logger.Info("Share updated", "share_id", share.ID, "expense_id", share.ExpenseID)
	return share, nil
}

// Delete removes a share whose expense the actor owns.
func (s *ShareService) Delete(ctx context.Context, actor Actor, shareID string) error {
	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		if _, err := s.ownedShare(ctx, tx, actor, shareID, "Only the payer can delete this share."); err != nil {
			return err
		}
		return tx.DeleteShare(ctx, shareID)
	})
	if err != nil {
		s.logger.Warn("DeleteShare failed", "share_id", shareID, "profile_id", actor.ProfileID(), "error", err)
		return storeError(err)
	}

	metrics.RecordLedgerOp("share_delete")
	s.logger.Info("Share deleted", "share_id", shareID)
	return nil
}

// ownedShare loads a visible share and checks that the actor owns its expense.
func (s *ShareService) ownedShare(ctx context.Context, tx storage.Store, actor Actor, shareID, detail string) (*models.ExpenseShare, error) {
	share, err := tx.GetVisibleShare(ctx, shareID, actor.ProfileID())
	if err != nil {
		return nil, err
	}
	expense, err := tx.GetVisibleExpense(ctx, share.ExpenseID, actor.ProfileID())
	if err != nil {
		return nil, err
	}
	if err := requireOwner(expense, actor, detail); err != nil {
		return nil, err
	}
	return share, nil
}

func validateShare(in ShareInput, full bool) error {
	fe := fieldErrors{}
	if in.PayeeID == nil {
		if full {
			fe.add("payee", "This field is required.")
		}
	} else if strings.TrimSpace(*in.PayeeID) == "" {
		fe.add("payee", "This field may not be blank.")
	}
	if in.Amount == nil {
		if full {
			fe.add("amount", "This field is required.")
		}
	} else {
		checkAmount(fe, "amount", *in.Amount)
	}
	return fe.err()
}

func checkPayee(ctx context.Context, store storage.ProfileStore, payeeID string) error {
	found, err := store.GetProfilesByIDs(ctx, []string{payeeID})
	if err != nil {
		return err
	}
	if _, ok := found[payeeID]; !ok {
		return validationError(map[string][]string{
			"payee": {"Invalid pk \"" + payeeID + "\" - object does not exist."},
		})
	}
	return nil
}
