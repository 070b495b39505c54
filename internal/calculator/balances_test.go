package calculator

import (
	"testing"
)

func findBalance(t *testing.T, balances []MemberBalance, id string) MemberBalance {
	t.Helper()
	for _, b := range balances {
		if b.ProfileID == id {
			return b
		}
	}
	t.Fatalf("no balance for %s", id)
	return MemberBalance{}
}

func TestCalculateBalances(t *testing.T) {
	expenses := []ExpenseForBalance{
		// O pays 90 for O, P, Q: P and Q owe O 30 each.
		{OwnerID: "o", Amount: dec("90.00"), Participants: []string{"o", "p", "q"}},
		// P pays 20 with an explicit share: O owes P 20.
		{OwnerID: "p", Amount: dec("20.00"), Participants: []string{"p"}, Shares: []Share{{PayeeID: "o", Amount: dec("20.00")}}},
	}

	balances, debts, err := CalculateBalances(expenses)
	if err != nil {
		t.Fatalf("CalculateBalances() error: %v", err)
	}

	o := findBalance(t, balances, "o")
	if !o.TotalPaid.Equal(dec("90")) || !o.TotalOwed.Equal(dec("50")) || !o.NetBalance.Equal(dec("40")) {
		t.Errorf("o = paid %s owed %s net %s, want 90/50/40", o.TotalPaid, o.TotalOwed, o.NetBalance)
	}
	p := findBalance(t, balances, "p")
	if !p.NetBalance.Equal(dec("-10")) {
		t.Errorf("p net = %s, want -10", p.NetBalance)
	}
	q := findBalance(t, balances, "q")
	if !q.NetBalance.Equal(dec("-30")) {
		t.Errorf("q net = %s, want -30", q.NetBalance)
	}

	// P owes O 30, O owes P 20: netted to P->O 10.
	want := []DebtEdge{
		{From: "p", To: "o", Amount: dec("10")},
		{From: "q", To: "o", Amount: dec("30")},
	}
	if len(debts) != len(want) {
		t.Fatalf("got %d debts (%+v), want %d", len(debts), debts, len(want))
	}
	for i, d := range debts {
		if d.From != want[i].From || d.To != want[i].To || !d.Amount.Equal(want[i].Amount) {
			t.Errorf("debts[%d] = %+v, want %+v", i, d, want[i])
		}
	}
}

func TestCalculateBalances_MutualDebtCancels(t *testing.T) {
	expenses := []ExpenseForBalance{
		{OwnerID: "a", Amount: dec("10.00"), Participants: []string{"a", "b"}},
		{OwnerID: "b", Amount: dec("10.00"), Participants: []string{"a", "b"}},
	}

	_, debts, err := CalculateBalances(expenses)
	if err != nil {
		t.Fatalf("CalculateBalances() error: %v", err)
	}
	if len(debts) != 0 {
		t.Errorf("expected no debts, got %+v", debts)
	}
}

func TestSimplifyDebts(t *testing.T) {
	balances := []MemberBalance{
		{ProfileID: "a", NetBalance: dec("50")},
		{ProfileID: "b", NetBalance: dec("-20")},
		{ProfileID: "c", NetBalance: dec("-30")},
	}

	edges := SimplifyDebts(balances)
	if len(edges) != 2 {
		t.Fatalf("got %d edges, want 2: %+v", len(edges), edges)
	}

	total := dec("0")
	for _, e := range edges {
		if e.To != "a" {
			t.Errorf("edge %+v should pay a", e)
		}
		total = total.Add(e.Amount)
	}
	if !total.Equal(dec("50")) {
		t.Errorf("transfers sum to %s, want 50", total)
	}
	if edges[0].From != "c" || !edges[0].Amount.Equal(dec("30")) {
		t.Errorf("largest debtor should settle first, got %+v", edges[0])
	}
}
