package calculator

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ExpenseForBalance represents an expense with the minimal information needed for balance calculations.
type ExpenseForBalance struct {
	OwnerID      string
	Amount       decimal.Decimal
	Participants []string
	// Shares, when present, replace the even split over Participants.
	Shares []Share
}

// MemberBalance represents the balance information for one profile.
type MemberBalance struct {
	ProfileID  string
	NetBalance decimal.Decimal // Positive = owed money, Negative = owes money
	TotalPaid  decimal.Decimal // Total amount paid across all expenses
	TotalOwed  decimal.Decimal // Total amount this profile owes
}

// DebtEdge represents a debt from one profile to another.
type DebtEdge struct {
	From   string // Profile who owes
	To     string // Profile who is owed
	Amount decimal.Decimal
}

// PartsFor returns how an expense divides: explicit shares when it has any,
// an even split over participants otherwise.
func PartsFor(e ExpenseForBalance) ([]Part, error) {
	if len(e.Shares) > 0 {
		return FromShares(e.Shares)
	}
	return SplitEvenly(e.Amount, e.Participants)
}

// CalculateBalances aggregates who paid what and who owes what.
//
// Algorithm:
// - For each expense: owner contributed +amount, each part is owed by its profile
// - Debts between the same two profiles are netted pairwise
// - net_balance = total_paid - total_owed
//
// Balances are ordered by profile ID; debts by (From, To).
func CalculateBalances(expenses []ExpenseForBalance) ([]MemberBalance, []DebtEdge, error) {
	balances := make(map[string]*MemberBalance)
	member := func(id string) *MemberBalance {
		b, ok := balances[id]
		if !ok {
			b = &MemberBalance{ProfileID: id}
			balances[id] = b
		}
		return b
	}

	// debts[debtor][creditor] = amount
	debts := make(map[string]map[string]decimal.Decimal)

	for _, e := range expenses {
		parts, err := PartsFor(e)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to split expense: %w", err)
		}

		owner := member(e.OwnerID)
		owner.TotalPaid = owner.TotalPaid.Add(e.Amount)

		for _, p := range parts {
			m := member(p.ProfileID)
			m.TotalOwed = m.TotalOwed.Add(p.Amount)

			if p.ProfileID == e.OwnerID {
				continue
			}
			if _, ok := debts[p.ProfileID]; !ok {
				debts[p.ProfileID] = make(map[string]decimal.Decimal)
			}
			debts[p.ProfileID][e.OwnerID] = debts[p.ProfileID][e.OwnerID].Add(p.Amount)
		}
	}

	memberBalances := make([]MemberBalance, 0, len(balances))
	for _, b := range balances {
		b.NetBalance = b.TotalPaid.Sub(b.TotalOwed)
		memberBalances = append(memberBalances, *b)
	}
	sort.Slice(memberBalances, func(i, j int) bool {
		return memberBalances[i].ProfileID < memberBalances[j].ProfileID
	})

	return memberBalances, netPairs(debts), nil
}

// netPairs collapses A->B and B->A into a single edge in the larger direction.
func netPairs(debts map[string]map[string]decimal.Decimal) []DebtEdge {
	var edges []DebtEdge
	for from, row := range debts {
		for to, amount := range row {
			reverse := debts[to][from]
			net := amount.Sub(reverse)
			// Each pair is emitted once, from the side that owes.
			if net.IsPositive() {
				edges = append(edges, DebtEdge{From: from, To: to, Amount: net})
			}
		}
	}
	sortEdges(edges)
	return edges
}

// SimplifyDebts proposes a minimal set of transfers that settles every balance.
// Largest debtors are matched with largest creditors greedily.
func SimplifyDebts(balances []MemberBalance) []DebtEdge {
	var creditors, debtors []MemberBalance
	for _, b := range balances {
		switch {
		case b.NetBalance.IsPositive():
			creditors = append(creditors, b)
		case b.NetBalance.IsNegative():
			debtors = append(debtors, b)
		}
	}
	sort.Slice(creditors, func(i, j int) bool { return creditors[i].NetBalance.GreaterThan(creditors[j].NetBalance) })
	sort.Slice(debtors, func(i, j int) bool { return debtors[i].NetBalance.LessThan(debtors[j].NetBalance) })

	owes := make([]decimal.Decimal, len(debtors))
	for i, d := range debtors {
		owes[i] = d.NetBalance.Neg()
	}
	owed := make([]decimal.Decimal, len(creditors))
	for j, c := range creditors {
		owed[j] = c.NetBalance
	}

	var edges []DebtEdge
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := decimal.Min(owes[i], owed[j])
		if amount.IsPositive() {
			edges = append(edges, DebtEdge{
				From:   debtors[i].ProfileID,
				To:     creditors[j].ProfileID,
				Amount: amount,
			})
		}

		owes[i] = owes[i].Sub(amount)
		owed[j] = owed[j].Sub(amount)
		if !owes[i].IsPositive() {
			i++
		}
		if !owed[j].IsPositive() {
			j++
		}
	}
	return edges
}

func sortEdges(edges []DebtEdge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
}
