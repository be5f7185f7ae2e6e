package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"expense-api/internal/apperr"
	"expense-api/internal/models"
)

const expenseColumns = "id, title, amount, owner_id"

var (
	errExpenseNotFound = apperr.NotFound("Expense not found")
	errExpenseRequired = apperr.Validation("title and amount required")
	errEmptyTitle      = apperr.Validation("title must not be empty")
)

// ExpenseRepository runs CRUD operations over the expenses table.
type ExpenseRepository struct {
	db *DB
}

// NewExpenseRepository returns a repository backed by db.
func NewExpenseRepository(db *DB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// List returns all expenses in insertion order.
func (r *ExpenseRepository) List(ctx context.Context) ([]models.Expense, error) {
	return r.query(ctx, "SELECT "+expenseColumns+" FROM expenses ORDER BY id")
}

// ListByOwner returns the expenses created by ownerID in insertion order.
func (r *ExpenseRepository) ListByOwner(ctx context.Context, ownerID int64) ([]models.Expense, error) {
	return r.query(ctx, "SELECT "+expenseColumns+" FROM expenses WHERE owner_id = ? ORDER BY id", ownerID)
}

// Get returns the expense with the given id.
func (r *ExpenseRepository) Get(ctx context.Context, id int64) (*models.Expense, error) {
	row := r.db.conn.QueryRowContext(ctx,
		r.db.rebind("SELECT "+expenseColumns+" FROM expenses WHERE id = ?"), id)
	return scanExpense(row)
}

// Create validates and stores a new expense. ownerID may be nil.
func (r *ExpenseRepository) Create(ctx context.Context, title string, amount *float64, ownerID *int64) (*models.Expense, error) {
	if strings.TrimSpace(title) == "" || amount == nil {
		return nil, errExpenseRequired
	}

	e := &models.Expense{Title: title, Amount: *amount, OwnerID: ownerID}
	err := r.db.conn.QueryRowContext(ctx,
		r.db.rebind("INSERT INTO expenses (title, amount, owner_id) VALUES (?, ?, ?) RETURNING id"),
		e.Title, e.Amount, nullable(ownerID),
	).Scan(&e.ID)
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}
	return e, nil
}

// Update applies the non-nil fields of u to the expense with the given id
// and returns the stored result.
func (r *ExpenseRepository) Update(ctx context.Context, id int64, u models.ExpenseUpdate) (*models.Expense, error) {
	if u.Title != nil && strings.TrimSpace(*u.Title) == "" {
		// A missing expense is reported before an invalid field.
		if _, err := r.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, errEmptyTitle
	}

	row := r.db.conn.QueryRowContext(ctx,
		r.db.rebind(`UPDATE expenses
			SET title = COALESCE(?, title), amount = COALESCE(?, amount)
			WHERE id = ?
			RETURNING `+expenseColumns),
		nullable(u.Title), nullable(u.Amount), id,
	)
	return scanExpense(row)
}

// Delete removes the expense with the given id.
func (r *ExpenseRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.conn.ExecContext(ctx, r.db.rebind("DELETE FROM expenses WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return errExpenseNotFound
	}
	return nil
}

// Summary counts and totals expenses, restricted to ownerID when non-nil.
func (r *ExpenseRepository) Summary(ctx context.Context, ownerID *int64) (models.ExpenseSummary, error) {
	query := "SELECT COUNT(*), COALESCE(SUM(amount), 0) FROM expenses"
	var args []any
	if ownerID != nil {
		query += " WHERE owner_id = ?"
		args = append(args, *ownerID)
	}

	var s models.ExpenseSummary
	if err := r.db.conn.QueryRowContext(ctx, r.db.rebind(query), args...).Scan(&s.Count, &s.Total); err != nil {
		return models.ExpenseSummary{}, fmt.Errorf("summarize expenses: %w", err)
	}
	return s, nil
}

func (r *ExpenseRepository) query(ctx context.Context, query string, args ...any) ([]models.Expense, error) {
	rows, err := r.db.conn.QueryContext(ctx, r.db.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}

	return expenses, rows.Err()
}

// nullable turns a nil pointer into an untyped NULL argument.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	var (
		e     models.Expense
		owner sql.NullInt64
	)
	if err := row.Scan(&e.ID, &e.Title, &e.Amount, &owner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errExpenseNotFound
		}
		return nil, fmt.Errorf("scan expense: %w", err)
	}
	if owner.Valid {
		id := owner.Int64
		e.OwnerID = &id
	}
	return &e, nil
}
