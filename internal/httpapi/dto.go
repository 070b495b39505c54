package httpapi

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/service"
)

// Money values are rendered as strings with exactly two decimals.

type userJSON struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type friendJSON struct {
	ID   string    `json:"id"`
	User *userJSON `json:"user"`
}

type profileJSON struct {
	ID            string       `json:"id"`
	User          *userJSON    `json:"user"`
	Department    string       `json:"department"`
	WalletBalance string       `json:"wallet_balance"`
	Friends       []friendJSON `json:"friends"`
}

type expenseJSON struct {
	ID           string       `json:"id"`
	Owner        friendJSON   `json:"owner"`
	Title        string       `json:"title"`
	Amount       string       `json:"amount"`
	Description  string       `json:"description"`
	Date         time.Time    `json:"date"`
	Participants []friendJSON `json:"participants"`
}

type shareJSON struct {
	ID        string    `json:"id"`
	Expense   string    `json:"expense"`
	Payee     string    `json:"payee"`
	Amount    string    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

type partJSON struct {
	Profile string `json:"profile"`
	Amount  string `json:"amount"`
}

type splitJSON struct {
	Expense     string     `json:"expense"`
	Mode        string     `json:"mode"`
	Amount      string     `json:"amount"`
	Allocated   string     `json:"allocated"`
	Unallocated string     `json:"unallocated"`
	Parts       []partJSON `json:"parts"`
}

type counterpartyJSON struct {
	Profile friendJSON `json:"profile"`
	Amount  string     `json:"amount"`
}

type transferJSON struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type balancesJSON struct {
	Net            string             `json:"net"`
	TotalPaid      string             `json:"total_paid"`
	TotalOwed      string             `json:"total_owed"`
	Counterparties []counterpartyJSON `json:"counterparties"`
	Suggested      []transferJSON     `json:"suggested"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toUserJSON(u *models.User) *userJSON {
	if u == nil {
		return nil
	}
	return &userJSON{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func toFriendJSON(p *models.Profile) friendJSON {
	return friendJSON{ID: p.ID, User: toUserJSON(p.User)}
}

func toFriendsJSON(profiles []*models.Profile) []friendJSON {
	out := make([]friendJSON, len(profiles))
	for i, p := range profiles {
		out[i] = toFriendJSON(p)
	}
	return out
}

func toProfileJSON(v *service.ProfileView) profileJSON {
	return profileJSON{
		ID:            v.Profile.ID,
		User:          toUserJSON(v.Profile.User),
		Department:    v.Profile.Department,
		WalletBalance: money(v.Profile.WalletBalance),
		Friends:       toFriendsJSON(v.Friends),
	}
}

func toExpenseJSON(v *service.ExpenseView) expenseJSON {
	e := v.Expense
	return expenseJSON{
		ID:           e.ID,
		Owner:        toFriendJSON(v.Owner),
		Title:        e.Title,
		Amount:       money(e.Amount),
		Description:  e.Description,
		Date:         e.CreatedAt.UTC(),
		Participants: toFriendsJSON(v.Participants),
	}
}

func toShareJSON(s *models.ExpenseShare) shareJSON {
	return shareJSON{
		ID:        s.ID,
		Expense:   s.ExpenseID,
		Payee:     s.PayeeID,
		Amount:    money(s.Amount),
		CreatedAt: s.CreatedAt.UTC(),
	}
}

func toSplitJSON(v *service.SplitView) splitJSON {
	parts := make([]partJSON, len(v.Parts))
	for i, p := range v.Parts {
		parts[i] = partJSON{Profile: p.ProfileID, Amount: money(p.Amount)}
	}
	return splitJSON{
		Expense:     v.Expense.ID,
		Mode:        v.Mode,
		Amount:      money(v.Expense.Amount),
		Allocated:   money(v.Allocated),
		Unallocated: money(v.Unallocated),
		Parts:       parts,
	}
}

func toBalancesJSON(v *service.BalanceView) balancesJSON {
	out := balancesJSON{
		Net:            money(v.Net),
		TotalPaid:      money(v.TotalPaid),
		TotalOwed:      money(v.TotalOwed),
		Counterparties: make([]counterpartyJSON, len(v.Counterparties)),
		Suggested:      toTransfersJSON(v.Suggested),
	}
	for i, c := range v.Counterparties {
		out.Counterparties[i] = counterpartyJSON{Profile: toFriendJSON(c.Profile), Amount: money(c.Amount)}
	}
	return out
}

func toTransfersJSON(edges []calculator.DebtEdge) []transferJSON {
	out := make([]transferJSON, len(edges))
	for i, e := range edges {
		out[i] = transferJSON{From: e.From, To: e.To, Amount: money(e.Amount)}
	}
	return out
}

// decimalField accepts a JSON number or numeric string and remembers malformed input,
// so the handler can report it as a field error.
type decimalField struct {
	value   decimal.Decimal
	invalid bool
}

func (d *decimalField) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		d.invalid = true
		return nil
	}
	switch raw.(type) {
	case string, float64:
		if err := d.value.UnmarshalJSON(b); err != nil {
			d.invalid = true
		}
	default:
		d.invalid = true
	}
	return nil
}

// fields collects request-level field errors before the service is called.
type fields map[string][]string

// amount converts an optional decimalField, recording malformed input under name.
func (f fields) amount(name string, d *decimalField) *decimal.Decimal {
	if d == nil {
		return nil
	}
	if d.invalid {
		f[name] = append(f[name], "A valid number is required.")
		return nil
	}
	v := d.value
	return &v
}

func (f fields) err() error {
	if len(f) == 0 {
		return nil
	}
	return &service.Error{Kind: service.KindValidation, Detail: "Invalid input.", Fields: f}
}
