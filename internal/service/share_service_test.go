package service

import (
	"context"
	"testing"
)

func TestShares(t *testing.T) {
	store := newTestStore(t)
	expenses := NewExpenseService(store, discardLogger)
	svc := NewShareService(store, discardLogger)
	owner := newActor(t, store, "owen")
	payee := newActor(t, store, "pat")
	stranger := newActor(t, store, "sam")
	ctx := context.Background()

	// The payee is not a participant; visibility comes from the share alone.
	created, err := expenses.Create(ctx, owner, ExpenseInput{Title: ptr("Concert"), Amount: dec("80.00")})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	expenseID := created.Expense.ID

	_, err = expenses.Get(ctx, payee, expenseID)
	wantKind(t, err, KindNotFound)

	share, err := svc.Add(ctx, owner, expenseID, ShareInput{PayeeID: ptr(payee.ProfileID()), Amount: dec("25.00")})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if share.ID == "" || share.ExpenseID != expenseID {
		t.Fatalf("unexpected share: %+v", share)
	}

	t.Run("payee can read", func(t *testing.T) {
		if _, err := expenses.Get(ctx, payee, expenseID); err != nil {
			t.Errorf("payee Get expense: %v", err)
		}
		got, err := svc.Get(ctx, payee, share.ID)
		if err != nil {
			t.Fatalf("payee Get share: %v", err)
		}
		if got.Amount.StringFixed(2) != "25.00" {
			t.Errorf("amount: expected 25.00, got %s", got.Amount.StringFixed(2))
		}
		list, err := svc.List(ctx, payee, expenseID)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(list) != 1 {
			t.Errorf("shares: expected 1, got %d", len(list))
		}
	})

	t.Run("payee cannot mutate", func(t *testing.T) {
		_, err := svc.Add(ctx, payee, expenseID, ShareInput{PayeeID: ptr(payee.ProfileID()), Amount: dec("1.00")})
		wantKind(t, err, KindPermissionDenied)
		_, err = svc.Update(ctx, payee, share.ID, ShareInput{Amount: dec("1.00")}, true)
		wantKind(t, err, KindPermissionDenied)
		wantKind(t, svc.Delete(ctx, payee, share.ID), KindPermissionDenied)
	})

	t.Run("stranger sees nothing", func(t *testing.T) {
		_, err := svc.Get(ctx, stranger, share.ID)
		wantKind(t, err, KindNotFound)
		_, err = svc.List(ctx, stranger, expenseID)
		wantKind(t, err, KindNotFound)
		_, err = svc.Add(ctx, stranger, expenseID, ShareInput{PayeeID: ptr(stranger.ProfileID()), Amount: dec("1.00")})
		wantKind(t, err, KindNotFound)
		wantKind(t, svc.Delete(ctx, stranger, share.ID), KindNotFound)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.Add(ctx, owner, expenseID, ShareInput{PayeeID: ptr("nobody"), Amount: dec("1.00")})
		wantKind(t, err, KindValidation)
		_, err = svc.Add(ctx, owner, expenseID, ShareInput{PayeeID: ptr(payee.ProfileID()), Amount: dec("0")})
		wantKind(t, err, KindValidation)
		_, err = svc.Update(ctx, owner, share.ID, ShareInput{Amount: dec("2.00")}, false)
		wantKind(t, err, KindValidation)
	})

	t.Run("split reports unallocated amount", func(t *testing.T) {
		split, err := expenses.Split(ctx, owner, expenseID)
		if err != nil {
			t.Fatalf("Split failed: %v", err)
		}
		if split.Mode != "shares" {
			t.Errorf("mode: expected shares, got %s", split.Mode)
		}
		if split.Allocated.StringFixed(2) != "25.00" || split.Unallocated.StringFixed(2) != "55.00" {
			t.Errorf("allocated %s unallocated %s", split.Allocated, split.Unallocated)
		}
	})

	t.Run("owner updates, expense stays pinned", func(t *testing.T) {
		other, err := expenses.Create(ctx, owner, ExpenseInput{Title: ptr("Other"), Amount: dec("5.00")})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		updated, err := svc.Update(ctx, owner, share.ID, ShareInput{Amount: dec("30.00")}, true)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.ExpenseID != expenseID || updated.ExpenseID == other.Expense.ID {
			t.Errorf("expense link moved to %s", updated.ExpenseID)
		}
		if updated.Amount.StringFixed(2) != "30.00" {
			t.Errorf("amount: expected 30.00, got %s", updated.Amount.StringFixed(2))
		}
	})

	t.Run("delete cascades with expense", func(t *testing.T) {
		if err := expenses.Delete(ctx, owner, expenseID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		_, err := svc.Get(ctx, owner, share.ID)
		wantKind(t, err, KindNotFound)
	})
}

func TestDeleteShare(t *testing.T) {
	store := newTestStore(t)
	expenses := NewExpenseService(store, discardLogger)
	svc := NewShareService(store, discardLogger)
	owner := newActor(t, store, "owen")
	payee := newActor(t, store, "pat")
	ctx := context.Background()

	created, err := expenses.Create(ctx, owner, ExpenseInput{Title: ptr("Taxi"), Amount: dec("12.00")})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	share, err := svc.Add(ctx, owner, created.Expense.ID, ShareInput{PayeeID: ptr(payee.ProfileID()), Amount: dec("6.00")})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := svc.Delete(ctx, owner, share.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	_, err = svc.Get(ctx, payee, share.ID)
	wantKind(t, err, KindNotFound)

	// Without the share the payee loses sight of the expense.
	_, err = expenses.Get(ctx, payee, created.Expense.ID)
	wantKind(t, err, KindNotFound)
}
