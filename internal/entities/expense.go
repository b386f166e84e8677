package entities

import "time"

type ExpenseRequest struct {
	Label    string  `json:"label"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	SpentAt  string  `json:"spentAt"` // YYYY-MM-DD, defaults to today
	Notes    string  `json:"notes"`
}

type ExpenseResponse struct {
	ID       int       `json:"id"`
	Label    string    `json:"label"`
	Category string    `json:"category"`
	Amount   float64   `json:"amount"`
	SpentAt  time.Time `json:"spentAt"`
	Notes    string    `json:"notes,omitempty"`
}

// FinanceSummary aggregates revenue from non-rejected orders against logged expenses.
type FinanceSummary struct {
	From         string  `json:"from,omitempty"`
	To           string  `json:"to,omitempty"`
	OrderCount   int     `json:"orderCount"`
	Revenue      float64 `json:"revenue"`
	TipTotal     float64 `json:"tipTotal"`
	ExpenseTotal float64 `json:"expenseTotal"`
	Net          float64 `json:"net"`
}
