package repository

import (
	"database/sql"
	"fmt"
	"strconv"

	"petale/internal/db"
)

type ExpenseRepository struct {
	DB *sql.DB
}

func NewExpenseRepository(database *sql.DB) *ExpenseRepository {
	return &ExpenseRepository{DB: database}
}

func (r *ExpenseRepository) CreateExpense(e *db.Expense) error {
	query := `
		INSERT INTO expenses (label, category, amount, spent_at, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`
	err := r.DB.QueryRow(query, e.Label, e.Category, e.Amount, e.SpentAt, e.Notes).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("error inserting expense %q: %w", e.Label, err)
	}
	return nil
}

// ListExpenses returns expenses newest first, optionally bounded by spent-at date.
func (r *ExpenseRepository) ListExpenses(from, to string) ([]db.Expense, error) {
	query := `SELECT id, label, category, amount, spent_at, notes, created_at FROM expenses WHERE 1=1`
	args := []interface{}{}
	idx := 1
	if from != "" {
		query += " AND spent_at >= $" + strconv.Itoa(idx) + "::date"
		args = append(args, from)
		idx++
	}
	if to != "" {
		query += " AND spent_at < $" + strconv.Itoa(idx) + "::date + interval '1 day'"
		args = append(args, to)
		idx++
	}
	query += " ORDER BY spent_at DESC"

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing expenses: %w", err)
	}
	defer rows.Close()

	var expenses []db.Expense
	for rows.Next() {
		var e db.Expense
		if err := rows.Scan(&e.ID, &e.Label, &e.Category, &e.Amount, &e.SpentAt, &e.Notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning expense row: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *ExpenseRepository) DeleteExpense(id int) error {
	result, err := r.DB.Exec(`DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting expense %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("expense %d not found", id)
	}
	return nil
}

// ExpenseTotal sums expenses, optionally bounded by spent-at date.
func (r *ExpenseRepository) ExpenseTotal(from, to string) (float64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE 1=1`
	args := []interface{}{}
	idx := 1
	if from != "" {
		query += " AND spent_at >= $" + strconv.Itoa(idx) + "::date"
		args = append(args, from)
		idx++
	}
	if to != "" {
		query += " AND spent_at < $" + strconv.Itoa(idx) + "::date + interval '1 day'"
		args = append(args, to)
		idx++
	}
	var total float64
	if err := r.DB.QueryRow(query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("error summing expenses: %w", err)
	}
	return total, nil
}
