package models

import "time"

// Expense represents a single expense record.
type Expense struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Amount float64 `json:"amount"`
	// OwnerID is the creating user, nil when the record was created without
	// authentication.
	OwnerID *int64 `json:"-"`
}

// ExpenseUpdate carries the fields of a partial update. Nil fields keep
// their stored value.
type ExpenseUpdate struct {
	Title  *string
	Amount *float64
}

// ExpenseSummary aggregates a set of expenses.
type ExpenseSummary struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// User represents a user account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
