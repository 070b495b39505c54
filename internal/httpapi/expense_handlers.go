package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mmynk/splitledger/internal/service"
)

// expenseRequest has no owner field; any owner sent by the client is ignored.
type expenseRequest struct {
	Title          *string       `json:"title"`
	Amount         *decimalField `json:"amount"`
	Description    *string       `json:"description"`
	ParticipantIDs *[]string     `json:"participant_ids"`
}

type shareRequest struct {
	Payee  *string       `json:"payee"`
	Amount *decimalField `json:"amount"`
}

func (req expenseRequest) input() (service.ExpenseInput, error) {
	f := fields{}
	in := service.ExpenseInput{
		Title:          req.Title,
		Amount:         f.amount("amount", req.Amount),
		Description:    req.Description,
		ParticipantIDs: req.ParticipantIDs,
	}
	return in, f.err()
}

func (req shareRequest) input() (service.ShareInput, error) {
	f := fields{}
	in := service.ShareInput{
		PayeeID: req.Payee,
		Amount:  f.amount("amount", req.Amount),
	}
	return in, f.err()
}

func (h *handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	views, err := h.Expenses.List(r.Context(), actor(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	out := make([]expenseJSON, len(views))
	for i, v := range views {
		out[i] = toExpenseJSON(v)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		WriteError(w, r, err)
		return
	}

	view, err := h.Expenses.Create(r.Context(), actor(r), in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseJSON(view))
}

func (h *handler) getExpense(w http.ResponseWriter, r *http.Request) {
	view, err := h.Expenses.Get(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toExpenseJSON(view))
}

func (h *handler) updateExpense(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req expenseRequest
		if err := decodeJSON(w, r, &req); err != nil {
			WriteError(w, r, err)
			return
		}
		in, err := req.input()
		if err != nil {
			WriteError(w, r, err)
			return
		}

		view, err := h.Expenses.Update(r.Context(), actor(r), chi.URLParam(r, "id"), in, partial)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toExpenseJSON(view))
	}
}

func (h *handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := h.Expenses.Delete(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) splitExpense(w http.ResponseWriter, r *http.Request) {
	view, err := h.Expenses.Split(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSplitJSON(view))
}

func (h *handler) balances(w http.ResponseWriter, r *http.Request) {
	view, err := h.Expenses.Balances(r.Context(), actor(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBalancesJSON(view))
}

func (h *handler) listShares(w http.ResponseWriter, r *http.Request) {
	shares, err := h.Shares.List(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	out := make([]shareJSON, len(shares))
	for i, s := range shares {
		out[i] = toShareJSON(s)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) addShare(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		WriteError(w, r, err)
		return
	}

	share, err := h.Shares.Add(r.Context(), actor(r), chi.URLParam(r, "id"), in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toShareJSON(share))
}

func (h *handler) getShare(w http.ResponseWriter, r *http.Request) {
	share, err := h.Shares.Get(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toShareJSON(share))
}

// updateShare ignores any "expense" in the body: the parent link is pinned.
func (h *handler) updateShare(partial bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req shareRequest
		if err := decodeJSON(w, r, &req); err != nil {
			WriteError(w, r, err)
			return
		}
		in, err := req.input()
		if err != nil {
			WriteError(w, r, err)
			return
		}

		share, err := h.Shares.Update(r.Context(), actor(r), chi.URLParam(r, "id"), in, partial)
		if err != nil {
			WriteError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toShareJSON(share))
	}
}

func (h *handler) deleteShare(w http.ResponseWriter, r *http.Request) {
	if err := h.Shares.Delete(r.Context(), actor(r), chi.URLParam(r, "id")); err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
