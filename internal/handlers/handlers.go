package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"expense-api/internal/apperr"
	"expense-api/internal/models"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// CredentialStore registers users and checks their passwords.
type CredentialStore interface {
	Register(ctx context.Context, email, password string) (int64, error)
	Verify(ctx context.Context, email, password string) (int64, error)
}

// TokenService issues and verifies bearer tokens.
type TokenService interface {
	Issue(userID int64) (string, time.Time, error)
	Verify(token string) (int64, error)
}

// ExpenseStore is the expense repository used by the handlers.
type ExpenseStore interface {
	List(ctx context.Context) ([]models.Expense, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Expense, error)
	Get(ctx context.Context, id int64) (*models.Expense, error)
	Create(ctx context.Context, title string, amount *float64, ownerID *int64) (*models.Expense, error)
	Update(ctx context.Context, id int64, u models.ExpenseUpdate) (*models.Expense, error)
	Delete(ctx context.Context, id int64) error
	Summary(ctx context.Context, ownerID *int64) (models.ExpenseSummary, error)
}

// Options selects the authorization policy.
type Options struct {
	// RequireAuth gates listing and creating expenses behind a bearer token
	// and records the caller as owner of new expenses.
	RequireAuth bool
	// OwnerScoped restricts listing and summaries to the caller's expenses.
	// Only meaningful with RequireAuth.
	OwnerScoped bool
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	creds    CredentialStore
	tokens   TokenService
	expenses ExpenseStore
	log      *slog.Logger
	opts     Options
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(creds CredentialStore, tokens TokenService, expenses ExpenseStore, log *slog.Logger, opts Options) *Handlers {
	return &Handlers{creds: creds, tokens: tokens, expenses: expenses, log: log, opts: opts}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	Message     string `json:"message"`
}

// Home reports that the API is up.
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "api is running"})
}

// Register creates an account.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, "message", err)
		return
	}

	if _, err := h.creds.Register(r.Context(), req.Email, req.Password); err != nil {
		h.fail(w, r, "message", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Account created successfully"})
}

// Login exchanges credentials for a bearer token.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, "message", err)
		return
	}

	userID, err := h.creds.Verify(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, "message", err)
		return
	}

	token, _, err := h.tokens.Issue(userID)
	if err != nil {
		h.fail(w, r, "message", err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{AccessToken: token, Message: "Login successful"})
}

// fail writes err as a JSON body under key with the status its kind maps to.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, key string, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{key: apperr.Message(err)})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperr.Wrap(apperr.KindValidation, "Request body too large", err)
		case errors.Is(err, io.EOF):
			return apperr.Validation("Request body required")
		default:
			return apperr.Wrap(apperr.KindValidation, "Invalid JSON body", err)
		}
	}

	// The body must hold exactly one JSON value.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperr.Wrap(apperr.KindValidation, "Request body too large", err)
		}
		return apperr.Validation("Invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
