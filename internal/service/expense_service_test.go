package service

import (
	"context"
	"sort"
	"testing"
)

func TestCreateExpense(t *testing.T) {
	store := newTestStore(t)
	svc := NewExpenseService(store, discardLogger)
	owner := newActor(t, store, "owen")
	friend := newActor(t, store, "pat")
	ctx := context.Background()

	t.Run("owner forced into participants", func(t *testing.T) {
		view, err := svc.Create(ctx, owner, ExpenseInput{
			Title:          ptr("Dinner"),
			Amount:         dec("42.50"),
			ParticipantIDs: ptr([]string{friend.ProfileID(), friend.ProfileID()}),
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		e := view.Expense
		if e.ID == "" {
			t.Error("expected non-empty expense ID")
		}
		if e.OwnerID != owner.ProfileID() {
			t.Errorf("owner: expected %s, got %s", owner.ProfileID(), e.OwnerID)
		}
		if len(e.ParticipantIDs) != 2 || !e.HasParticipant(owner.ProfileID()) || !e.HasParticipant(friend.ProfileID()) {
			t.Errorf("participants: got %v", e.ParticipantIDs)
		}
		if len(view.Participants) != 2 {
			t.Errorf("expanded participants: expected 2, got %d", len(view.Participants))
		}
		if view.Owner.Username() != "owen" {
			t.Errorf("owner username: got %q", view.Owner.Username())
		}
	})

	t.Run("amount round-trips exactly", func(t *testing.T) {
		created, err := svc.Create(ctx, owner, ExpenseInput{Title: ptr("Dinner"), Amount: dec("42.50")})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		got, err := svc.Get(ctx, owner, created.Expense.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Expense.Amount.StringFixed(2) != "42.50" {
			t.Errorf("amount: expected 42.50, got %s", got.Expense.Amount.StringFixed(2))
		}
		if !got.Expense.CreatedAt.Equal(created.Expense.CreatedAt) {
			t.Errorf("created_at: expected %v, got %v", created.Expense.CreatedAt, got.Expense.CreatedAt)
		}
	})

	t.Run("participants default to owner", func(t *testing.T) {
		view, err := svc.Create(ctx, owner, ExpenseInput{Title: ptr("Books"), Amount: dec("18.00")})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		ids := view.Expense.ParticipantIDs
		if len(ids) != 1 || ids[0] != owner.ProfileID() {
			t.Errorf("participants: expected only owner, got %v", ids)
		}
		if len(view.Participants) != 1 || view.Participants[0].ID != owner.ProfileID() {
			t.Errorf("participant profiles: expected only owner, got %v", view.Participants)
		}
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name  string
			input ExpenseInput
			field string
		}{
			{"missing title", ExpenseInput{Amount: dec("1.00")}, "title"},
			{"blank title", ExpenseInput{Title: ptr("  "), Amount: dec("1.00")}, "title"},
			{"missing amount", ExpenseInput{Title: ptr("x")}, "amount"},
			{"negative amount", ExpenseInput{Title: ptr("x"), Amount: dec("-1.00")}, "amount"},
			{"too precise", ExpenseInput{Title: ptr("x"), Amount: dec("1.234")}, "amount"},
			{"unknown participant", ExpenseInput{Title: ptr("x"), Amount: dec("1.00"), ParticipantIDs: ptr([]string{"nobody"})}, "participant_ids"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Create(ctx, owner, tt.input)
				wantKind(t, err, KindValidation)
				if _, ok := err.(*Error).Fields[tt.field]; !ok {
					t.Errorf("expected error on %s, got %v", tt.field, err.(*Error).Fields)
				}
			})
		}
	})

	t.Run("failed create leaves nothing behind", func(t *testing.T) {
		before, err := svc.List(ctx, owner)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		_, err = svc.Create(ctx, owner, ExpenseInput{
			Title:          ptr("Broken"),
			Amount:         dec("10.00"),
			ParticipantIDs: ptr([]string{friend.ProfileID(), "missing"}),
		})
		wantKind(t, err, KindValidation)

		after, err := svc.List(ctx, owner)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(after) != len(before) {
			t.Errorf("expenses: expected %d, got %d", len(before), len(after))
		}
	})
}

func TestTripScenario(t *testing.T) {
	store := newTestStore(t)
	svc := NewExpenseService(store, discardLogger)
	o := newActor(t, store, "olga")
	p := newActor(t, store, "piotr")
	q := newActor(t, store, "quinn")
	stranger := newActor(t, store, "sam")
	ctx := context.Background()

	trip, err := svc.Create(ctx, o, ExpenseInput{
		Title:          ptr("Trip"),
		Amount:         dec("100.00"),
		ParticipantIDs: ptr([]string{o.ProfileID(), p.ProfileID(), q.ProfileID()}),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	id := trip.Expense.ID

	list, err := svc.List(ctx, p)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 1 || list[0].Expense.Title != "Trip" {
		t.Fatalf("participant list: expected [Trip], got %d expenses", len(list))
	}

	if list, _ := svc.List(ctx, stranger); len(list) != 0 {
		t.Errorf("stranger list: expected empty, got %d", len(list))
	}
	_, err = svc.Get(ctx, stranger, id)
	wantKind(t, err, KindNotFound)

	wantKind(t, svc.Delete(ctx, p, id), KindPermissionDenied)
	wantKind(t, svc.Delete(ctx, stranger, id), KindNotFound)

	if err := svc.Delete(ctx, o, id); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	for _, a := range []Actor{o, p} {
		_, err := svc.Get(ctx, a, id)
		wantKind(t, err, KindNotFound)
	}
}

func TestListExpensesNewestFirst(t *testing.T) {
	store := newTestStore(t)
	svc := NewExpenseService(store, discardLogger)
	owner := newActor(t, store, "owen")
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		if _, err := svc.Create(ctx, owner, ExpenseInput{Title: ptr(title), Amount: dec("1.00")}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	list, err := svc.List(ctx, owner)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 expenses, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].Expense.CreatedAt.After(list[i-1].Expense.CreatedAt) {
			t.Errorf("expense %d is newer than expense %d", i, i-1)
		}
	}
}

func TestUpdateExpense(t *testing.T) {
	store := newTestStore(t)
	svc := NewExpenseService(store, discardLogger)
	owner := newActor(t, store, "owen")
	friend := newActor(t, store, "pat")
	stranger := newActor(t, store, "sam")
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, ExpenseInput{
		Title:          ptr("Groceries"),
		Amount:         dec("30.00"),
		ParticipantIDs: ptr([]string{friend.ProfileID()}),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	id := created.Expense.ID

	t.Run("full update keeps owner and date", func(t *testing.T) {
		updated, err := svc.Update(ctx, owner, id, ExpenseInput{
			Title:          ptr("Groceries and wine"),
			Amount:         dec("45.10"),
			Description:    ptr("Friday"),
			ParticipantIDs: ptr([]string{}),
		}, false)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		e := updated.Expense
		if e.OwnerID != owner.ProfileID() {
			t.Errorf("owner: expected %s, got %s", owner.ProfileID(), e.OwnerID)
		}
		if !e.CreatedAt.Equal(created.Expense.CreatedAt) {
			t.Errorf("created_at changed: %v -> %v", created.Expense.CreatedAt, e.CreatedAt)
		}
		if e.Amount.StringFixed(2) != "45.10" || e.Title != "Groceries and wine" || e.Description != "Friday" {
			t.Errorf("fields not applied: %+v", e)
		}
		if len(e.ParticipantIDs) != 1 || e.ParticipantIDs[0] != owner.ProfileID() {
			t.Errorf("participants: expected only owner, got %v", e.ParticipantIDs)
		}
	})

	t.Run("full update requires every field", func(t *testing.T) {
		_, err := svc.Update(ctx, owner, id, ExpenseInput{Title: ptr("x")}, false)
		wantKind(t, err, KindValidation)
		fields := err.(*Error).Fields
		for _, f := range []string{"amount", "participant_ids"} {
			if _, ok := fields[f]; !ok {
				t.Errorf("expected error on %s", f)
			}
		}
	})

	t.Run("full update without participants", func(t *testing.T) {
		_, err := svc.Update(ctx, owner, id, ExpenseInput{Title: ptr("x"), Amount: dec("5.00")}, false)
		wantKind(t, err, KindValidation)
		fields := err.(*Error).Fields
		if _, ok := fields["participant_ids"]; !ok || len(fields) != 1 {
			t.Errorf("expected only participant_ids error, got %v", fields)
		}
	})

	t.Run("partial update", func(t *testing.T) {
		updated, err := svc.Update(ctx, owner, id, ExpenseInput{Amount: dec("12.00")}, true)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.Expense.Title != "Groceries and wine" {
			t.Errorf("title: expected unchanged, got %q", updated.Expense.Title)
		}
		if updated.Expense.Amount.StringFixed(2) != "12.00" {
			t.Errorf("amount: expected 12.00, got %s", updated.Expense.Amount)
		}
	})

	t.Run("participant cannot update", func(t *testing.T) {
		if _, err := svc.Update(ctx, owner, id, ExpenseInput{ParticipantIDs: ptr([]string{friend.ProfileID()})}, true); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		_, err := svc.Update(ctx, friend, id, ExpenseInput{Title: ptr("mine now")}, true)
		wantKind(t, err, KindPermissionDenied)
	})

	t.Run("stranger sees nothing", func(t *testing.T) {
		_, err := svc.Update(ctx, stranger, id, ExpenseInput{Title: ptr("mine now")}, true)
		wantKind(t, err, KindNotFound)
	})
}

func TestSplitEven(t *testing.T) {
	store := newTestStore(t)
	svc := NewExpenseService(store, discardLogger)
	o := newActor(t, store, "olga")
	p := newActor(t, store, "piotr")
	q := newActor(t, store, "quinn")
	ctx := context.Background()

	created, err := svc.Create(ctx, o, ExpenseInput{
		Title:          ptr("Trip"),
		Amount:         dec("100.00"),
		ParticipantIDs: ptr([]string{p.ProfileID(), q.ProfileID()}),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	split, err := svc.Split(ctx, p, created.Expense.ID)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}
	if split.Mode != "even" {
		t.Errorf("mode: expected even, got %s", split.Mode)
	}
	if split.Allocated.StringFixed(2) != "100.00" || !split.Unallocated.IsZero() {
		t.Errorf("allocated %s unallocated %s", split.Allocated, split.Unallocated)
	}

	ids := []string{o.ProfileID(), p.ProfileID(), q.ProfileID()}
	sort.Strings(ids)
	want := map[string]string{ids[0]: "33.34", ids[1]: "33.33", ids[2]: "33.33"}
	for _, part := range split.Parts {
		if part.Amount.StringFixed(2) != want[part.ProfileID] {
			t.Errorf("part %s: expected %s, got %s", part.ProfileID, want[part.ProfileID], part.Amount.StringFixed(2))
		}
	}
}

func TestBalances(t *testing.T) {
	store := newTestStore(t)
	svc := NewExpenseService(store, discardLogger)
	o := newActor(t, store, "olga")
	p := newActor(t, store, "piotr")
	q := newActor(t, store, "quinn")
	ctx := context.Background()

	mustCreate := func(a Actor, amount string, participants ...string) {
		t.Helper()
		if _, err := svc.Create(ctx, a, ExpenseInput{Title: ptr("x"), Amount: dec(amount), ParticipantIDs: ptr(participants)}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	mustCreate(o, "90.00", p.ProfileID(), q.ProfileID())
	mustCreate(p, "20.00", o.ProfileID())

	t.Run("owner", func(t *testing.T) {
		b, err := svc.Balances(ctx, o)
		if err != nil {
			t.Fatalf("Balances failed: %v", err)
		}
		// paid 90, owes 30 + 10
		if b.Net.StringFixed(2) != "50.00" {
			t.Errorf("net: expected 50.00, got %s", b.Net.StringFixed(2))
		}
		got := map[string]string{}
		for _, c := range b.Counterparties {
			got[c.Profile.ID] = c.Amount.StringFixed(2)
		}
		if got[p.ProfileID()] != "20.00" || got[q.ProfileID()] != "30.00" {
			t.Errorf("counterparties: got %v", got)
		}
	})

	t.Run("participant", func(t *testing.T) {
		b, err := svc.Balances(ctx, q)
		if err != nil {
			t.Fatalf("Balances failed: %v", err)
		}
		if b.Net.StringFixed(2) != "-30.00" {
			t.Errorf("net: expected -30.00, got %s", b.Net.StringFixed(2))
		}
		if len(b.Counterparties) != 1 || b.Counterparties[0].Profile.Username() != "olga" {
			t.Errorf("counterparties: got %+v", b.Counterparties)
		}
		if len(b.Suggested) == 0 {
			t.Error("expected suggested transfers")
		}
	})
}
