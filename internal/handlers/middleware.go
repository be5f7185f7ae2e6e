package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"expense-api/internal/apperr"

	"github.com/google/uuid"
	"github.com/mssola/user_agent"
)

// Context key type to avoid collisions.
type contextKey string

const (
	// UserIDContextKey is the context key for the authenticated user id.
	UserIDContextKey contextKey = "user_id"
	// RequestIDContextKey is the context key for the request id.
	RequestIDContextKey contextKey = "request_id"
	// RequestIDHeader carries the request id in and out.
	RequestIDHeader = "X-Request-ID"
)

var (
	errMissingToken = apperr.Auth("Missing Authorization Header")
	errBadScheme    = apperr.Auth("Authorization header must be Bearer <token>")
)

// UserIDFromContext returns the authenticated user id, if any.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDContextKey).(int64)
	return id, ok
}

// RequestIDFromContext returns the id assigned by RequestLogger.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// AuthMiddleware rejects requests without a valid bearer token and exposes
// the token's user id to next via the request context.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := h.authenticate(r)
		if err != nil {
			h.fail(w, r, "error", err)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Protect applies AuthMiddleware when authentication is required and
// returns next unchanged otherwise.
func (h *Handlers) Protect(next http.HandlerFunc) http.Handler {
	if !h.opts.RequireAuth {
		return next
	}
	return h.AuthMiddleware(next)
}

func (h *Handlers) authenticate(r *http.Request) (int64, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return 0, errMissingToken
	}

	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return 0, errBadScheme
	}

	return h.tokens.Verify(token)
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// RequestLogger assigns a request id and logs one line per request.
func (h *Handlers) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
		next.ServeHTTP(rec, r.WithContext(ctx))

		ua := user_agent.New(r.UserAgent())
		browser, _ := ua.Browser()

		level := slog.LevelInfo
		if rec.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		h.log.Log(ctx, level, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"request_id", requestID,
			"browser", browser,
			"os", ua.OS(),
		)
	})
}
