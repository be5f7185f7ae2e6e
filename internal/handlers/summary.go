package handlers

import "net/http"

// Summary reports the count and total amount of the expenses ListExpenses
// would return.
func (h *Handlers) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.expenses.Summary(r.Context(), h.scopeOwner(r))
	if err != nil {
		h.fail(w, r, "error", err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
