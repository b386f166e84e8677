package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"petale/internal/db"
	"petale/internal/entities"
	"petale/internal/repository"
)

var ErrInvalidExpense = errors.New("invalid expense")

type ExpenseService struct {
	Expenses *repository.ExpenseRepository
	Orders   *repository.OrderRepository
}

func NewExpenseService(expenses *repository.ExpenseRepository, orders *repository.OrderRepository) *ExpenseService {
	return &ExpenseService{Expenses: expenses, Orders: orders}
}

func (s *ExpenseService) CreateExpense(req entities.ExpenseRequest) (*db.Expense, error) {
	label := strings.TrimSpace(req.Label)
	if label == "" {
		return nil, fmt.Errorf("%w: label is required", ErrInvalidExpense)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be > 0", ErrInvalidExpense)
	}

	spentAt := time.Now()
	if normalized := entities.NormalizeDate(req.SpentAt); normalized != "" {
		parsed, err := time.Parse("2006-01-02", normalized)
		if err == nil {
			spentAt = parsed
		}
	} else if req.SpentAt != "" {
		return nil, fmt.Errorf("%w: unparseable spentAt %q", ErrInvalidExpense, req.SpentAt)
	}

	category := req.Category
	if category == "" {
		category = "General"
	}

	expense := &db.Expense{
		Label:    label,
		Category: category,
		Amount:   req.Amount,
		SpentAt:  spentAt,
		Notes:    req.Notes,
	}
	if err := s.Expenses.CreateExpense(expense); err != nil {
		return nil, err
	}
	return expense, nil
}

func (s *ExpenseService) ListExpenses(from, to string) ([]db.Expense, error) {
	return s.Expenses.ListExpenses(entities.NormalizeDate(from), entities.NormalizeDate(to))
}

func (s *ExpenseService) DeleteExpense(id int) error {
	return s.Expenses.DeleteExpense(id)
}

// FinanceSummary combines order revenue (rejected orders excluded) with logged expenses
// over an optional inclusive date range.
func (s *ExpenseService) FinanceSummary(from, to string) (*entities.FinanceSummary, error) {
	fromDate := entities.NormalizeDate(from)
	toDate := entities.NormalizeDate(to)

	count, revenue, tips, err := s.Orders.RevenueSummary(fromDate, toDate)
	if err != nil {
		return nil, err
	}
	expenseTotal, err := s.Expenses.ExpenseTotal(fromDate, toDate)
	if err != nil {
		return nil, err
	}

	return &entities.FinanceSummary{
		From:         fromDate,
		To:           toDate,
		OrderCount:   count,
		Revenue:      revenue,
		TipTotal:     tips,
		ExpenseTotal: expenseTotal,
		Net:          revenue - expenseTotal,
	}, nil
}
