package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"petale/internal/entities"
	"petale/internal/service"

	"github.com/gorilla/mux"
)

type ExpenseHandler struct {
	Service *service.ExpenseService
}

func NewExpenseHandler(svc *service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{Service: svc}
}

func (h *ExpenseHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req entities.ExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	expense, err := h.Service.CreateExpense(req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidExpense) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Could not create expense", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toExpenseResponse(expense))
}

// ListExpenses handles GET /api/admin/expenses?from=&to= (inclusive date bounds).
func (h *ExpenseHandler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	expenses, err := h.Service.ListExpenses(from, to)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	resp := make([]entities.ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		resp = append(resp, toExpenseResponse(&expenses[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ExpenseHandler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}
	if err := h.Service.DeleteExpense(id); err != nil {
		http.Error(w, "Could not delete expense", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Expense deleted successfully"})
}

// FinanceSummary handles GET /api/admin/finance/summary?from=&to=.
func (h *ExpenseHandler) FinanceSummary(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")

	summary, err := h.Service.FinanceSummary(from, to)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
