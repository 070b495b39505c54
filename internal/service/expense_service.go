package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const maxTitleLen = 255

// ExpenseService implements the expense ledger.
// Reads are scoped to expenses the actor owns, participates in or holds a share on;
// writes are reserved to the owner.
type ExpenseService struct {
	store  storage.Store
	logger *slog.Logger
}

// NewExpenseService creates a new ExpenseService with the given storage backend.
func NewExpenseService(store storage.Store, logger *slog.Logger) *ExpenseService {
	return &ExpenseService{store: store, logger: logger}
}

// ExpenseInput carries caller-supplied expense fields. Nil means "not supplied".
// There is deliberately no owner field: the owner is always the actor.
type ExpenseInput struct {
	Title          *string
	Amount         *decimal.Decimal
	Description    *string
	ParticipantIDs *[]string
}

// ExpenseView is an expense with its participant profiles resolved.
type ExpenseView struct {
	Expense      *models.Expense
	Owner        *models.Profile
	Participants []*models.Profile
}

// SplitView describes how an expense divides among its members.
type SplitView struct {
	Expense *models.Expense
	// Mode is "shares" when explicit shares exist, "even" otherwise.
	Mode        string
	Parts       []calculator.Part
	Allocated   decimal.Decimal
	Unallocated decimal.Decimal
}

// Counterparty is the net position between the actor and one other profile.
// A positive Amount means the counterparty owes the actor.
type Counterparty struct {
	Profile *models.Profile
	Amount  decimal.Decimal
}

// BalanceView summarizes the actor's position over every visible expense.
type BalanceView struct {
	Net            decimal.Decimal
	TotalPaid      decimal.Decimal
	TotalOwed      decimal.Decimal
	Counterparties []Counterparty
	// Suggested is a minimal set of transfers settling every visible balance.
	Suggested []calculator.DebtEdge
}

// Create records a new expense owned by the actor. The actor is always a participant.
func (s *ExpenseService) Create(ctx context.Context, actor Actor, in ExpenseInput) (*ExpenseView, error) {
	if err := validateExpense(in, true, false); err != nil {
		return nil, err
	}

	expense := &models.Expense{
		OwnerID: actor.ProfileID(),
		Title:   strings.TrimSpace(*in.Title),
		Amount:  *in.Amount,
	}
	if in.Description != nil {
		expense.Description = *in.Description
	}
	var requested []string
	if in.ParticipantIDs != nil {
		requested = *in.ParticipantIDs
	}
	expense.ParticipantIDs = withOwner(requested, actor.ProfileID())

	var view *ExpenseView
	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		if err := checkProfilesExist(ctx, tx, expense.ParticipantIDs); err != nil {
			return err
		}
		if err := tx.CreateExpense(ctx, expense); err != nil {
			return err
		}
		var err error
		view, err = expandExpense(ctx, tx, expense)
		return err
	})
	if err != nil {
		s.logger.Warn("CreateExpense failed", "owner_id", actor.ProfileID(), "error", err)
		return nil, storeError(err)
	}

	metrics.RecordLedgerOp("expense_create")
	s.logger.Info("Expense created",
		"expense_id", expense.ID,
		"owner_id", expense.OwnerID,
		"amount", expense.Amount.StringFixed(2),
		"participants_count", len(expense.ParticipantIDs),
	)
	return view, nil
}

// Get returns a visible expense.
func (s *ExpenseService) Get(ctx context.Context, actor Actor, expenseID string) (*ExpenseView, error) {
	expense, err := s.store.GetVisibleExpense(ctx, expenseID, actor.ProfileID())
	if err != nil {
		return nil, notFoundOr(err)
	}
	view, err := expandExpense(ctx, s.store, expense)
	if err != nil {
		return nil, internalError(err)
	}
	return view, nil
}

// List returns every expense visible to the actor, newest first.
func (s *ExpenseService) List(ctx context.Context, actor Actor) ([]*ExpenseView, error) {
	expenses, err := s.store.ListVisibleExpenses(ctx, actor.ProfileID())
	if err != nil {
		s.logger.Error("ListExpenses failed", "profile_id", actor.ProfileID(), "error", err)
		return nil, internalError(err)
	}
	views, err := expandExpenses(ctx, s.store, expenses)
	if err != nil {
		return nil, internalError(err)
	}
	return views, nil
}

// Update rewrites a visible expense owned by the actor. A full update (partial=false)
// requires title, amount and participant_ids. Owner and creation date never change.
func (s *ExpenseService) Update(ctx context.Context, actor Actor, expenseID string, in ExpenseInput, partial bool) (*ExpenseView, error) {
	if err := validateExpense(in, !partial, !partial); err != nil {
		return nil, err
	}

	var view *ExpenseView
	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		expense, err := tx.GetVisibleExpense(ctx, expenseID, actor.ProfileID())
		if err != nil {
			return err
		}
		if err := requireOwner(expense, actor, "Only the payer can update this expense."); err != nil {
			return err
		}

		if in.Title != nil {
			expense.Title = strings.TrimSpace(*in.Title)
		}
		if in.Amount != nil {
			expense.Amount = *in.Amount
		}
		if in.Description != nil {
			expense.Description = *in.Description
		}
		if in.ParticipantIDs != nil {
			expense.ParticipantIDs = *in.ParticipantIDs
		}
		expense.OwnerID = actor.ProfileID()
		expense.ParticipantIDs = withOwner(expense.ParticipantIDs, expense.OwnerID)

		if err := checkProfilesExist(ctx, tx, expense.ParticipantIDs); err != nil {
			return err
		}
		if err := tx.UpdateExpense(ctx, expense); err != nil {
			return err
		}
		view, err = expandExpense(ctx, tx, expense)
		return err
	})
	if err != nil {
		s.logger.Warn("UpdateExpense failed", "expense_id", expenseID, "profile_id", actor.ProfileID(), "error", err)
		return nil, storeError(err)
	}

	metrics.RecordLedgerOp("expense_update")
	s.logger.Info("Expense updated", "expense_id", expenseID, "owner_id", actor.ProfileID())
	return view, nil
}

// Delete removes a visible expense owned by the actor, together with its
// participant links and shares.
func (s *ExpenseService) Delete(ctx context.Context, actor Actor, expenseID string) error {
	err := s.store.WithTx(ctx, func(tx storage.Store) error {
		expense, err := tx.GetVisibleExpense(ctx, expenseID, actor.ProfileID())
		if err != nil {
			return err
		}
		if err := requireOwner(expense, actor, "Only the payer can delete this expense."); err != nil {
			return err
		}
		return tx.DeleteExpense(ctx, expenseID)
	})
	if err != nil {
		s.logger.Warn("DeleteExpense failed", "expense_id", expenseID, "profile_id", actor.ProfileID(), "error", err)
		return storeError(err)
	}

	metrics.RecordLedgerOp("expense_delete")
	s.logger.Info("Expense deleted", "expense_id", expenseID, "owner_id", actor.ProfileID())
	return nil
}

// Split reports how a visible expense divides. Explicit shares win over the even
// split; their sum is not required to match the total.
func (s *ExpenseService) Split(ctx context.Context, actor Actor, expenseID string) (*SplitView, error) {
	expense, err := s.store.GetVisibleExpense(ctx, expenseID, actor.ProfileID())
	if err != nil {
		return nil, notFoundOr(err)
	}
	shares, err := s.store.ListShares(ctx, expense.ID)
	if err != nil {
		return nil, internalError(err)
	}

	input := toBalanceInput(expense, shares)
	parts, err := calculator.PartsFor(input)
	if err != nil {
		s.logger.Error("Split failed", "expense_id", expense.ID, "error", err)
		return nil, internalError(err)
	}

	mode := "even"
	if len(shares) > 0 {
		mode = "shares"
	}
	allocated := calculator.Sum(parts)
	return &SplitView{
		Expense:     expense,
		Mode:        mode,
		Parts:       parts,
		Allocated:   allocated,
		Unallocated: expense.Amount.Sub(allocated),
	}, nil
}

// Balances nets the actor against every counterparty across all visible expenses.
func (s *ExpenseService) Balances(ctx context.Context, actor Actor) (*BalanceView, error) {
	me := actor.ProfileID()

	expenses, err := s.store.ListVisibleExpenses(ctx, me)
	if err != nil {
		return nil, internalError(err)
	}
	ids := make([]string, len(expenses))
	for i, e := range expenses {
		ids[i] = e.ID
	}
	shares, err := s.store.ListSharesForExpenses(ctx, ids)
	if err != nil {
		return nil, internalError(err)
	}

	inputs := make([]calculator.ExpenseForBalance, len(expenses))
	for i, e := range expenses {
		inputs[i] = toBalanceInput(e, shares[e.ID])
	}
	members, debts, err := calculator.CalculateBalances(inputs)
	if err != nil {
		s.logger.Error("Balances failed", "profile_id", me, "error", err)
		return nil, internalError(err)
	}

	view := &BalanceView{
		Net:       decimal.Zero,
		TotalPaid: decimal.Zero,
		TotalOwed: decimal.Zero,
		Suggested: calculator.SimplifyDebts(members),
	}
	for _, m := range members {
		if m.ProfileID == me {
			view.Net = m.NetBalance
			view.TotalPaid = m.TotalPaid
			view.TotalOwed = m.TotalOwed
		}
	}

	net := make(map[string]decimal.Decimal)
	for _, d := range debts {
		switch me {
		case d.To:
			net[d.From] = net[d.From].Add(d.Amount)
		case d.From:
			net[d.To] = net[d.To].Sub(d.Amount)
		}
	}
	others := make([]string, 0, len(net))
	for id := range net {
		others = append(others, id)
	}
	sort.Strings(others)

	profiles, err := s.store.GetProfilesByIDs(ctx, others)
	if err != nil {
		return nil, internalError(err)
	}
	for _, id := range others {
		p, ok := profiles[id]
		if !ok {
			p = &models.Profile{ID: id}
		}
		view.Counterparties = append(view.Counterparties, Counterparty{Profile: p, Amount: net[id]})
	}
	return view, nil
}

// validateExpense checks field shapes. full requires title and amount;
// needParticipants additionally requires participant_ids, which only a PUT does.
func validateExpense(in ExpenseInput, full, needParticipants bool) error {
	fe := fieldErrors{}
	if in.Title == nil {
		if full {
			fe.add("title", "This field is required.")
		}
	} else {
		switch t := strings.TrimSpace(*in.Title); {
		case t == "":
			fe.add("title", "This field may not be blank.")
		case utf8.RuneCountInString(t) > maxTitleLen:
			fe.add("title", "Ensure this field has no more than 255 characters.")
		}
	}
	if in.Amount == nil {
		if full {
			fe.add("amount", "This field is required.")
		}
	} else {
		checkAmount(fe, "amount", *in.Amount)
	}
	if in.ParticipantIDs == nil && needParticipants {
		fe.add("participant_ids", "This field is required.")
	}
	return fe.err()
}

// withOwner dedupes ids and makes sure the owner is among them.
func withOwner(ids []string, ownerID string) []string {
	seen := map[string]bool{ownerID: true}
	out := []string{ownerID}
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// checkProfilesExist fails with a field error naming the first unknown profile.
func checkProfilesExist(ctx context.Context, store storage.ProfileStore, ids []string) error {
	found, err := store.GetProfilesByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return validationError(map[string][]string{
				"participant_ids": {fmt.Sprintf("Invalid pk %q - object does not exist.", id)},
			})
		}
	}
	return nil
}

func toBalanceInput(e *models.Expense, shares []*models.ExpenseShare) calculator.ExpenseForBalance {
	in := calculator.ExpenseForBalance{
		OwnerID:      e.OwnerID,
		Amount:       e.Amount,
		Participants: e.ParticipantIDs,
	}
	for _, sh := range shares {
		in.Shares = append(in.Shares, calculator.Share{PayeeID: sh.PayeeID, Amount: sh.Amount})
	}
	return in
}

func expandExpense(ctx context.Context, store storage.ProfileStore, expense *models.Expense) (*ExpenseView, error) {
	views, err := expandExpenses(ctx, store, []*models.Expense{expense})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// expandExpenses resolves owners and participants of all expenses with one lookup.
func expandExpenses(ctx context.Context, store storage.ProfileStore, expenses []*models.Expense) ([]*ExpenseView, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, e := range expenses {
		for _, id := range append([]string{e.OwnerID}, e.ParticipantIDs...) {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}

	profiles, err := store.GetProfilesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*ExpenseView, len(expenses))
	for i, e := range expenses {
		owner, ok := profiles[e.OwnerID]
		if !ok {
			return nil, fmt.Errorf("owner %s of expense %s: %w", e.OwnerID, e.ID, storage.ErrNotFound)
		}
		v := &ExpenseView{Expense: e, Owner: owner, Participants: []*models.Profile{}}
		for _, id := range e.ParticipantIDs {
			if p, ok := profiles[id]; ok {
				v.Participants = append(v.Participants, p)
			}
		}
		views[i] = v
	}
	return views, nil
}
