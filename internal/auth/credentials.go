package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"expense-api/internal/apperr"
	"expense-api/internal/models"

	"golang.org/x/crypto/bcrypt"
)

// UserStore persists user records.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

var (
	ErrCredentialsRequired = apperr.Validation("Email and password required")
	ErrEmailTaken          = apperr.Conflict("Email already exists")
	ErrInvalidCredentials  = apperr.Auth("Invalid credentials")
	ErrPasswordTooLong     = apperr.Validation("Password must be at most 72 bytes")
)

// dummyHash is compared against when the email is unknown so that lookups
// for missing and existing accounts cost the same bcrypt work. It is built
// at package init so no login pays for hashing it.
var dummyHash = mustHashPassword("expense-api-dummy-password")

func mustHashPassword(password string) string {
	hash, err := HashPassword(password)
	if err != nil {
		panic(fmt.Sprintf("hash dummy password: %v", err))
	}
	return hash
}

// Credentials registers users and verifies their passwords.
type Credentials struct {
	users UserStore
}

// NewCredentials returns a credential store backed by users.
func NewCredentials(users UserStore) *Credentials {
	return &Credentials{users: users}
}

// Register creates a user and returns its id.
func (c *Credentials) Register(ctx context.Context, email, password string) (int64, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return 0, ErrCredentialsRequired
	}

	existing, err := c.users.GetUserByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		return 0, ErrEmailTaken
	case err != nil && !errors.Is(err, apperr.ErrNotFound):
		return 0, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return 0, ErrPasswordTooLong
		}
		return 0, fmt.Errorf("hash password: %w", err)
	}

	// The unique constraint still guards against a concurrent registration.
	user, err := c.users.CreateUser(ctx, email, hash)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

// Verify returns the id of the user owning email when password matches.
func (c *Credentials) Verify(ctx context.Context, email, password string) (int64, error) {
	user, err := c.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			CheckPassword(password, dummyHash)
			return 0, ErrInvalidCredentials
		}
		return 0, fmt.Errorf("lookup user: %w", err)
	}

	if !CheckPassword(password, user.PasswordHash) {
		return 0, ErrInvalidCredentials
	}
	return user.ID, nil
}
