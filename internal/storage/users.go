package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"expense-api/internal/apperr"
	"expense-api/internal/models"
)

// CreateUser inserts a user with an already hashed password. A duplicate
// email yields an apperr conflict.
func (db *DB) CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error) {
	var id int64
	err := db.conn.QueryRowContext(ctx,
		db.rebind(`INSERT INTO "user" (email, password_hash) VALUES (?, ?) RETURNING id`),
		email, passwordHash,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Wrap(apperr.KindConflict, "Email already exists", err)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return db.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		db.rebind(`SELECT id, email, password_hash, created_at FROM "user" WHERE id = ?`),
		id,
	)
	return scanUser(row)
}

// GetUserByEmail retrieves a user by email.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		db.rebind(`SELECT id, email, password_hash, created_at FROM "user" WHERE email = ?`),
		email,
	)
	return scanUser(row)
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM "user"`).Scan(&count)
	return count, err
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}
