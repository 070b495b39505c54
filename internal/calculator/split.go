// Package calculator computes how expenses divide among the people sharing them.
// All arithmetic is done in whole cents so parts always sum to the total.
package calculator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

var (
	ErrNoParticipants = errors.New("must have at least one participant")
	ErrInvalidAmount  = errors.New("amount must be positive with at most two decimal places")
)

var hundred = decimal.NewFromInt(100)

// Part is the amount one profile owes towards an expense.
type Part struct {
	ProfileID string
	Amount    decimal.Decimal
}

// Share is an explicit amount one payee owes.
type Share struct {
	PayeeID string
	Amount  decimal.Decimal
}

// SplitEvenly divides amount over participants in cents.
// Remainder cents go one each to participants in ascending ID order.
// Duplicate participant IDs are counted once.
func SplitEvenly(amount decimal.Decimal, participants []string) ([]Part, error) {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return nil, ErrInvalidAmount
	}

	ids := uniqueSorted(participants)
	if len(ids) == 0 {
		return nil, ErrNoParticipants
	}

	cents := amount.Mul(hundred).IntPart()
	n := int64(len(ids))
	base, rem := cents/n, cents%n

	parts := make([]Part, len(ids))
	for i, id := range ids {
		c := base
		if int64(i) < rem {
			c++
		}
		parts[i] = Part{ProfileID: id, Amount: decimal.New(c, -2)}
	}
	return parts, nil
}

// FromShares turns explicit shares into parts, summing repeated payees.
// Parts are ordered by profile ID.
func FromShares(shares []Share) ([]Part, error) {
	totals := make(map[string]decimal.Decimal)
	for _, s := range shares {
		if !s.Amount.IsPositive() {
			return nil, fmt.Errorf("share for %s: %w", s.PayeeID, ErrInvalidAmount)
		}
		totals[s.PayeeID] = totals[s.PayeeID].Add(s.Amount)
	}

	parts := make([]Part, 0, len(totals))
	for id, amt := range totals {
		parts = append(parts, Part{ProfileID: id, Amount: amt})
	}
	sort.Slice(parts, func(i, j int) bool { return parts[i].ProfileID < parts[j].ProfileID })
	return parts, nil
}

// Sum adds up the amounts of parts.
func Sum(parts []Part) decimal.Decimal {
	total := decimal.Zero
	for _, p := range parts {
		total = total.Add(p.Amount)
	}
	return total
}

func uniqueSorted(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
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
