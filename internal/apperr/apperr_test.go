package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("title and amount required"), http.StatusBadRequest},
		{"conflict", Conflict("Email already exists"), http.StatusConflict},
		{"auth", Auth("Invalid credentials"), http.StatusUnauthorized},
		{"not found", NotFound("Expense not found"), http.StatusNotFound},
		{"wrapped", fmt.Errorf("get expense: %w", NotFound("Expense not found")), http.StatusNotFound},
		{"plain", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("register: %w", Conflict("Email already exists"))

	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestMessageHidesInternalErrors(t *testing.T) {
	assert.Equal(t, "Expense not found", Message(NotFound("Expense not found")))
	assert.Equal(t, "Internal server error", Message(errors.New("constraint failed: secret detail")))
	assert.Equal(t, "Internal server error", Message(Wrap(KindInternal, "scan row", errors.New("boom"))))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("token is expired")
	err := Wrap(KindAuth, "invalid token", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, "invalid token: token is expired", err.Error())
}
