package handlers

import (
	"net/http"
	"strconv"

	"expense-api/internal/apperr"
	"expense-api/internal/models"
)

var errExpenseNotFound = apperr.NotFound("Expense not found")

type createExpenseRequest struct {
	Title  string   `json:"title"`
	Amount *float64 `json:"amount"`
}

type updateExpenseRequest struct {
	Title  *string  `json:"title"`
	Amount *float64 `json:"amount"`
}

type expenseResponse struct {
	Message string          `json:"message"`
	Expense *models.Expense `json:"expense"`
}

// ListExpenses returns every expense, or only the caller's when listing is
// owner scoped.
func (h *Handlers) ListExpenses(w http.ResponseWriter, r *http.Request) {
	var (
		expenses []models.Expense
		err      error
	)
	if owner := h.scopeOwner(r); owner != nil {
		expenses, err = h.expenses.ListByOwner(r.Context(), *owner)
	} else {
		expenses, err = h.expenses.List(r.Context())
	}
	if err != nil {
		h.fail(w, r, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, expenses)
}

// GetExpense returns a single expense.
func (h *Handlers) GetExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := expenseID(r)
	if !ok {
		h.fail(w, r, "error", errExpenseNotFound)
		return
	}

	expense, err := h.expenses.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, expense)
}

// CreateExpense stores a new expense owned by the authenticated caller, if any.
func (h *Handlers) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, "error", err)
		return
	}

	var owner *int64
	if userID, ok := UserIDFromContext(r.Context()); ok {
		owner = &userID
	}

	expense, err := h.expenses.Create(r.Context(), req.Title, req.Amount, owner)
	if err != nil {
		h.fail(w, r, "error", err)
		return
	}

	writeJSON(w, http.StatusCreated, expenseResponse{Message: "Expense added", Expense: expense})
}

// UpdateExpense applies a partial update.
func (h *Handlers) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := expenseID(r)
	if !ok {
		h.fail(w, r, "error", errExpenseNotFound)
		return
	}

	var req updateExpenseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, "error", err)
		return
	}

	expense, err := h.expenses.Update(r.Context(), id, models.ExpenseUpdate{Title: req.Title, Amount: req.Amount})
	if err != nil {
		h.fail(w, r, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, expenseResponse{Message: "Expense updated successfully", Expense: expense})
}

// DeleteExpense removes an expense.
func (h *Handlers) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := expenseID(r)
	if !ok {
		h.fail(w, r, "error", errExpenseNotFound)
		return
	}

	if err := h.expenses.Delete(r.Context(), id); err != nil {
		h.fail(w, r, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Expense deleted successfully"})
}

// scopeOwner returns the caller's id when listing must be restricted to it.
func (h *Handlers) scopeOwner(r *http.Request) *int64 {
	if !h.opts.RequireAuth || !h.opts.OwnerScoped {
		return nil
	}
	if userID, ok := UserIDFromContext(r.Context()); ok {
		return &userID
	}
	return nil
}

func expenseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
